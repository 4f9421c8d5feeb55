package services

import (
	"context"
	"testing"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-market/models"

	"event-market/internal/status"
)

func TestEventService_CreateDraft_DenormalizesOrganizerContact(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	svc := NewEventService(db, nil)

	event, err := svc.CreateDraft(context.Background(), organizerID, testEventInput())
	require.NoError(t, err)

	assert.Equal(t, models.EventDraft, event.Status)
	assert.Equal(t, "Ana", event.Pic)
	assert.Equal(t, "+62-811-0000-000", event.PicNumber)

	stored, err := svc.Detail(context.Background(), event.ID, organizerID)
	require.NoError(t, err)
	assert.Equal(t, event.Name, stored.Name)
	assert.True(t, stored.TenantPrice.Equal(decimal.NewFromInt(300)))
}

func TestEventService_CreateDraft_ValidationFailure(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	svc := NewEventService(db, nil)

	in := testEventInput()
	in.Name = ""
	in.VisitorNumber = 0

	_, err := svc.CreateDraft(context.Background(), organizerID, in)
	require.Error(t, err)
	assert.Equal(t, status.KindValidation, status.KindOf(err))
}

func TestEventService_UpdateDraft_PublishedIsImmutable(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	event := seedPublishedEvent(t, db, organizerID)
	svc := NewEventService(db, nil)

	_, err := svc.UpdateDraft(context.Background(), event.ID, organizerID, testEventInput())
	require.Error(t, err)
	assert.Equal(t, status.KindInvalidState, status.KindOf(err))
}

func TestEventService_UpdateDraft_KeepsBannerWhenOmitted(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	event := seedDraftEvent(t, db, organizerID)
	svc := NewEventService(db, nil)

	in := testEventInput()
	in.Name = "Harbor Food Festival, Second Edition"
	in.Banner = ""

	updated, err := svc.UpdateDraft(context.Background(), event.ID, organizerID, in)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Food Festival, Second Edition", updated.Name)
	assert.Equal(t, "banner-ref", updated.Banner)
}

func TestEventService_Publish_ExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	event := seedDraftEvent(t, db, organizerID)
	svc := NewEventService(db, nil)

	published, err := svc.Publish(context.Background(), event.ID, organizerID)
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, published.Status)

	_, err = svc.Publish(context.Background(), event.ID, organizerID)
	require.Error(t, err)
	assert.Equal(t, status.KindInvalidState, status.KindOf(err))
}

func TestEventService_DeleteDraft(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	svc := NewEventService(db, nil)

	draft := seedDraftEvent(t, db, organizerID)

	// Plant allocation rows under the draft; deletion must sweep them even
	// though a draft should never have any.
	merchantID := seedMerchant(t, db, "Kopi Pagi")
	outletID := seedOutlet(t, db, merchantID, "Kopi Pagi Sudirman", true, models.ScoreHigh)
	_, err := db.Insert("event_registrations", dbx.Params{
		"id": "reg-planted", "event_id": draft.ID, "organizer_id": organizerID,
		"merchant_id": merchantID, "outlet_id": outletID,
		"status": "received", "score": "high", "created": "2026-01-01T00:00:00Z",
	}).Execute()
	require.NoError(t, err)
	_, err = db.Insert("event_invitations", dbx.Params{
		"id": "inv-planted", "event_id": draft.ID, "organizer_id": organizerID,
		"merchant_id": merchantID, "outlet_id": outletID,
		"status": "pending", "created": "2026-01-01T00:00:00Z",
	}).Execute()
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDraft(context.Background(), draft.ID, organizerID))

	_, err = svc.Detail(context.Background(), draft.ID, organizerID)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))

	var n int
	require.NoError(t, db.Select("COUNT(*)").From("event_registrations").
		Where(dbx.HashExp{"event_id": draft.ID}).Row(&n))
	assert.Zero(t, n)
	require.NoError(t, db.Select("COUNT(*)").From("event_invitations").
		Where(dbx.HashExp{"event_id": draft.ID}).Row(&n))
	assert.Zero(t, n)

	published := seedPublishedEvent(t, db, organizerID)
	err = svc.DeleteDraft(context.Background(), published.ID, organizerID)
	require.Error(t, err)
	assert.Equal(t, status.KindInvalidState, status.KindOf(err))
}

func TestEventService_OwnershipScoping(t *testing.T) {
	db := newTestDB(t)
	owner := seedOrganizer(t, db, "Archipelago Events")
	other := seedOrganizer(t, db, "Metro Expo Group")
	event := seedDraftEvent(t, db, owner)
	svc := NewEventService(db, nil)

	_, err := svc.Detail(context.Background(), event.ID, other)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))

	_, err = svc.Publish(context.Background(), event.ID, other)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))

	err = svc.DeleteDraft(context.Background(), event.ID, other)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}

func TestEventService_ListByOrganizer_Filters(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	seedDraftEvent(t, db, organizerID)
	seedPublishedEvent(t, db, organizerID)
	svc := NewEventService(db, nil)

	all, err := svc.ListByOrganizer(context.Background(), organizerID, models.FilterAll, "asc")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := svc.ListByOrganizer(context.Background(), organizerID, models.FilterDraft, "asc")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, models.EventDraft, drafts[0].Status)

	published, err := svc.ListByOrganizer(context.Background(), organizerID, models.FilterPublished, "asc")
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, models.EventPublished, published[0].Status)

	// The seeded events are two weeks out, so both progress and coming_soon
	// see the published one.
	soon, err := svc.ListByOrganizer(context.Background(), organizerID, models.FilterComingSoon, "asc")
	require.NoError(t, err)
	assert.Len(t, soon, 1)

	_, err = svc.ListByOrganizer(context.Background(), organizerID, "bogus", "asc")
	require.Error(t, err)
	assert.Equal(t, status.KindValidation, status.KindOf(err))

	empty := seedOrganizer(t, db, "Metro Expo Group")
	none, err := svc.ListByOrganizer(context.Background(), empty, models.FilterDraft, "asc")
	require.NoError(t, err)
	require.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGroupEventsByDate(t *testing.T) {
	grouped := GroupEventsByDate(nil)
	require.NotNil(t, grouped)
	assert.Empty(t, grouped)

	day := time.Now().AddDate(0, 0, 14).Format("2006-01-02")
	grouped = GroupEventsByDate([]models.Event{
		{ID: "a", Date: day},
		{ID: "b", Date: day},
		{ID: "c", Date: "2031-01-01"},
	})
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped[day], 2)
	assert.Len(t, grouped["2031-01-01"], 1)
}

func TestEventService_PublicList_HidesDraftsAndFilters(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	seedDraftEvent(t, db, organizerID)
	published := seedPublishedEvent(t, db, organizerID)
	svc := NewEventService(db, nil)

	events, err := svc.PublicList(context.Background(), models.PublicEventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, published.ID, events[0].ID)

	events, err = svc.PublicList(context.Background(), models.PublicEventFilter{
		Categories: []models.EventCategory{models.CategoryConcert},
	})
	require.NoError(t, err)
	assert.Empty(t, events)

	min := decimal.NewFromInt(200)
	max := decimal.NewFromInt(400)
	events, err = svc.PublicList(context.Background(), models.PublicEventFilter{
		MinPrice: &min,
		MaxPrice: &max,
	})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	tooHigh := decimal.NewFromInt(500)
	events, err = svc.PublicList(context.Background(), models.PublicEventFilter{MinPrice: &tooHigh})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventService_PublicDetail_DraftAnswersNotFound(t *testing.T) {
	db := newTestDB(t)
	organizerID := seedOrganizer(t, db, "Archipelago Events")
	draft := seedDraftEvent(t, db, organizerID)
	svc := NewEventService(db, nil)

	_, err := svc.PublicDetail(context.Background(), draft.ID)
	require.Error(t, err)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}
