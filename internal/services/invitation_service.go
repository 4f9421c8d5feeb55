package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"

	"event-market/models"

	"event-market/internal/status"
	"event-market/monitoring"
)

// InvitationService handles the organizer-initiated allocation channel. An
// invitation claims the (event, outlet) pair just like a registration does;
// the invite-time checks keep the two channels from double-booking a slot.
type InvitationService struct {
	DB       *dbx.DB
	Notifier *Notifier
}

func NewInvitationService(db *dbx.DB, notifier *Notifier) *InvitationService {
	return &InvitationService{DB: db, Notifier: notifier}
}

// Invite offers a slot on a published event to an eligible outlet. It fails
// with a conflict when the outlet already holds an invitation for the event,
// or when any outlet of the same merchant already registered for it.
func (s *InvitationService) Invite(ctx context.Context, organizerID, eventID, outletID string) (*models.EventInvitation, error) {
	event, err := findOwnedEvent(s.DB, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventPublished {
		return nil, status.InvalidState("event is not published")
	}

	var outlet models.Outlet
	err = s.DB.Select("*").From("outlets").
		Where(dbx.HashExp{"id": outletID}).
		One(&outlet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("outlet not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load outlet")
	}
	if !outlet.EventOpen {
		return nil, status.InvalidState("outlet is not open for events")
	}

	invitation := &models.EventInvitation{
		ID:          uuid.NewString(),
		EventID:     event.ID,
		OrganizerID: organizerID,
		MerchantID:  outlet.MerchantID,
		OutletID:    outlet.ID,
		Status:      models.InvitationPending,
		Created:     time.Now().UTC().Format(time.RFC3339),
	}

	err = s.DB.Transactional(func(tx *dbx.Tx) error {
		var n int
		if err := tx.Select("COUNT(*)").From("event_invitations").
			Where(dbx.HashExp{"event_id": event.ID, "outlet_id": outlet.ID}).
			Row(&n); err != nil {
			return status.Internal(err, "check existing invitation")
		}
		if n > 0 {
			return status.Conflict("outlet has already been invited to this event")
		}

		// Merchant-wide guard: a merchant already applying through any of
		// its outlets cannot also be pulled in through an invite.
		if err := tx.Select("COUNT(*)").From("event_registrations").
			Where(dbx.HashExp{"event_id": event.ID, "merchant_id": outlet.MerchantID}).
			Row(&n); err != nil {
			return status.Internal(err, "check existing registration")
		}
		if n > 0 {
			return status.Conflict("merchant is already registered for this event")
		}

		if _, err := tx.Insert("event_invitations", dbx.Params{
			"id":           invitation.ID,
			"event_id":     invitation.EventID,
			"organizer_id": invitation.OrganizerID,
			"merchant_id":  invitation.MerchantID,
			"outlet_id":    invitation.OutletID,
			"status":       string(invitation.Status),
			"created":      invitation.Created,
		}).Execute(); err != nil {
			if isUniqueViolation(err) {
				return status.Conflict("outlet has already been invited to this event")
			}
			return status.Internal(err, "insert invitation")
		}
		return nil
	})
	if err != nil {
		monitoring.TrackAllocation("invitation", "invite", "failure")
		return nil, err
	}

	slog.Info("outlet invited",
		"invitation_id", invitation.ID,
		"event_id", event.ID,
		"outlet_id", outlet.ID,
	)
	monitoring.TrackAllocation("invitation", "invite", "success")
	s.Notifier.Notify(ctx, merchantChannel(outlet.MerchantID), map[string]any{
		"type":          "invitation_received",
		"invitation_id": invitation.ID,
		"event_id":      event.ID,
		"outlet_id":     outlet.ID,
	})
	return invitation, nil
}

// Respond applies the merchant's verdict to a pending invitation. Accept and
// reject are both terminal; the conditional update makes the first response
// win and later ones fail.
func (s *InvitationService) Respond(ctx context.Context, merchantID, invitationID string, decision models.Decision) (*models.EventInvitation, error) {
	var action models.Action
	switch decision {
	case models.DecisionAccept:
		action = models.ActionMerchantAccept
	case models.DecisionReject:
		action = models.ActionMerchantReject
	default:
		return nil, status.Validation("invalid decision", map[string]string{
			"decision": "must be accept or reject",
		})
	}

	var invitation models.EventInvitation
	txErr := s.DB.Transactional(func(tx *dbx.Tx) error {
		err := tx.Select("*").From("event_invitations").
			Where(dbx.HashExp{"id": invitationID, "merchant_id": merchantID}).
			One(&invitation)
		if errors.Is(err, sql.ErrNoRows) {
			return status.NotFound("invitation not found")
		}
		if err != nil {
			return status.Internal(err, "load invitation")
		}

		next, ok := models.NextInvitationStatus(invitation.Status, action)
		if !ok {
			return status.InvalidState("invitation is %s and cannot be %sed", invitation.Status, decision)
		}

		res, err := tx.Update("event_invitations",
			dbx.Params{"status": string(next)},
			dbx.HashExp{"id": invitationID, "status": string(models.InvitationPending)},
		).Execute()
		if err != nil {
			return status.Internal(err, "update invitation status")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.InvalidState("invitation is no longer pending")
		}
		invitation.Status = next
		return nil
	})
	if txErr != nil {
		monitoring.TrackAllocation("invitation", string(action), "failure")
		return nil, txErr
	}

	slog.Info("invitation answered",
		"invitation_id", invitation.ID,
		"status", invitation.Status,
		"merchant_id", merchantID,
	)
	monitoring.TrackAllocation("invitation", string(action), "success")
	s.Notifier.Notify(ctx, organizerChannel(invitation.OrganizerID), map[string]any{
		"type":          "invitation_" + string(invitation.Status),
		"invitation_id": invitation.ID,
		"event_id":      invitation.EventID,
		"outlet_id":     invitation.OutletID,
	})
	return &invitation, nil
}

// AvailableOutlets lists open outlets that have no invitation for the event
// yet. Registered outlets still appear here: the listing is advisory, and the
// invite call itself rejects cross-channel double-booking.
func (s *InvitationService) AvailableOutlets(ctx context.Context, organizerID, eventID string) ([]models.Outlet, error) {
	event, err := findOwnedEvent(s.DB, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventPublished {
		return nil, status.InvalidState("event is not published")
	}

	outlets := []models.Outlet{}
	err = s.DB.Select("*").From("outlets").
		Where(dbx.HashExp{"event_open": 1}).
		AndWhere(dbx.NewExp(
			"id NOT IN (SELECT outlet_id FROM event_invitations WHERE event_id = {:event})",
			dbx.Params{"event": eventID},
		)).
		OrderBy("name ASC").
		All(&outlets)
	if err != nil {
		return nil, status.Internal(err, "list available outlets")
	}
	return outlets, nil
}

// ListForMerchant returns the merchant's invitations with event context.
func (s *InvitationService) ListForMerchant(ctx context.Context, merchantID string) ([]models.InvitationView, error) {
	views := []models.InvitationView{}
	err := s.DB.Select(invitationViewColumns...).
		From("event_invitations i").
		InnerJoin("events e", dbx.NewExp("e.id = i.event_id")).
		InnerJoin("outlets o", dbx.NewExp("o.id = i.outlet_id")).
		Where(dbx.HashExp{"i.merchant_id": merchantID}).
		OrderBy("i.created DESC").
		All(&views)
	if err != nil {
		return nil, status.Internal(err, "list invitations")
	}
	return views, nil
}

// DetailForMerchant returns one of the merchant's own invitations.
func (s *InvitationService) DetailForMerchant(ctx context.Context, merchantID, invitationID string) (*models.InvitationView, error) {
	var view models.InvitationView
	err := s.DB.Select(invitationViewColumns...).
		From("event_invitations i").
		InnerJoin("events e", dbx.NewExp("e.id = i.event_id")).
		InnerJoin("outlets o", dbx.NewExp("o.id = i.outlet_id")).
		Where(dbx.HashExp{"i.id": invitationID, "i.merchant_id": merchantID}).
		One(&view)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("invitation not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load invitation")
	}
	return &view, nil
}

var invitationViewColumns = []string{
	"i.id", "i.event_id", "i.organizer_id", "i.merchant_id", "i.outlet_id",
	"i.status", "i.created",
	"e.name AS event_name", "e.date AS event_date",
	"o.name AS outlet_name",
}
