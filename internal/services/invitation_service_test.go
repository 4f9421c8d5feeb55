package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-market/models"

	"event-market/internal/status"
)

func TestInvitationService_Invite(t *testing.T) {
	f := newAllocationFixture(t)

	invitation, err := f.invitations.Invite(context.Background(), f.organizerID, f.event.ID, f.outletID)
	require.NoError(t, err)

	assert.Equal(t, models.InvitationPending, invitation.Status)
	assert.Equal(t, f.merchantID, invitation.MerchantID)
}

func TestInvitationService_Invite_DraftEvent(t *testing.T) {
	f := newAllocationFixture(t)
	draft := seedDraftEvent(t, f.db, f.organizerID)

	_, err := f.invitations.Invite(context.Background(), f.organizerID, draft.ID, f.outletID)
	require.Error(t, err)
	assert.Equal(t, status.KindInvalidState, status.KindOf(err))
}

func TestInvitationService_Invite_ClosedOutlet(t *testing.T) {
	f := newAllocationFixture(t)
	closed := seedOutlet(t, f.db, f.merchantID, "Kopi Pagi Kemang", false, models.ScoreMedium)

	_, err := f.invitations.Invite(context.Background(), f.organizerID, f.event.ID, closed)
	require.Error(t, err)
	assert.Equal(t, status.KindInvalidState, status.KindOf(err))
}

func TestInvitationService_Invite_TwiceConflicts(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()

	_, err := f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.NoError(t, err)

	_, err = f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.Error(t, err)
	assert.Equal(t, status.KindConflict, status.KindOf(err))
}

func TestInvitationService_Invite_RejectedInvitationStillBlocksReinvite(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()

	invitation, err := f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.NoError(t, err)

	_, err = f.invitations.Respond(ctx, f.merchantID, invitation.ID, models.DecisionReject)
	require.NoError(t, err)

	// The rejected row keeps claiming the (event, outlet) pair.
	_, err = f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.Error(t, err)
	assert.Equal(t, status.KindConflict, status.KindOf(err))
}

func TestInvitationService_Invite_MerchantAlreadyRegisteredConflicts(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()

	// The merchant applies through one outlet; inviting a sibling outlet of
	// the same merchant is blocked.
	_, err := f.registrations.Register(ctx, f.merchantID, f.event.ID, f.outletID)
	require.NoError(t, err)

	sibling := seedOutlet(t, f.db, f.merchantID, "Kopi Pagi Kemang", true, models.ScoreMedium)
	_, err = f.invitations.Invite(ctx, f.organizerID, f.event.ID, sibling)
	require.Error(t, err)
	assert.Equal(t, status.KindConflict, status.KindOf(err))
}

func TestInvitationService_Respond_FirstAnswerWins(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()

	invitation, err := f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.NoError(t, err)

	answered, err := f.invitations.Respond(ctx, f.merchantID, invitation.ID, models.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, answered.Status)

	_, err = f.invitations.Respond(ctx, f.merchantID, invitation.ID, models.DecisionReject)
	require.Error(t, err)
	assert.Equal(t, status.KindInvalidState, status.KindOf(err))
}

func TestInvitationService_Respond_ForeignMerchantAnswersNotFound(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()
	other := seedMerchant(t, f.db, "Sate Nusantara")

	invitation, err := f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.NoError(t, err)

	_, err = f.invitations.Respond(ctx, other, invitation.ID, models.DecisionAccept)
	require.Error(t, err)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}

func TestInvitationService_AvailableOutlets(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()

	closed := seedOutlet(t, f.db, f.merchantID, "Kopi Pagi Kemang", false, models.ScoreMedium)
	otherMerchant := seedMerchant(t, f.db, "Sate Nusantara")
	registered := seedOutlet(t, f.db, otherMerchant, "Sate Nusantara Blok M", true, models.ScoreLow)

	_, err := f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.NoError(t, err)
	_, err = f.registrations.Register(ctx, otherMerchant, f.event.ID, registered)
	require.NoError(t, err)

	outlets, err := f.invitations.AvailableOutlets(ctx, f.organizerID, f.event.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(outlets))
	for _, o := range outlets {
		ids = append(ids, o.ID)
	}
	assert.NotContains(t, ids, f.outletID, "invited outlet must disappear from the listing")
	assert.NotContains(t, ids, closed, "closed outlet must not be listed")
	// The listing is advisory: a registered outlet still shows up, and the
	// invite call itself rejects the cross-channel double-booking.
	assert.Contains(t, ids, registered)
}

func TestInvitationService_MerchantViews(t *testing.T) {
	f := newAllocationFixture(t)
	ctx := context.Background()

	invitation, err := f.invitations.Invite(ctx, f.organizerID, f.event.ID, f.outletID)
	require.NoError(t, err)

	views, err := f.invitations.ListForMerchant(ctx, f.merchantID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, f.event.Name, views[0].EventName)

	view, err := f.invitations.DetailForMerchant(ctx, f.merchantID, invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kopi Pagi Sudirman", view.OutletName)

	other := seedMerchant(t, f.db, "Sate Nusantara")
	_, err = f.invitations.DetailForMerchant(ctx, other, invitation.ID)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}
