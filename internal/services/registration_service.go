package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"

	"event-market/models"

	"event-market/internal/status"
	"event-market/monitoring"
)

// RegistrationService handles the merchant-initiated allocation channel:
// an outlet applies for a slot on a published event, the organizer accepts
// into the paid stage or rejects, and payment confirmation seals the slot.
//
// Creation and every status transition are compound check-then-write steps;
// they run inside a transaction and the final write is conditional on the
// precondition status, so concurrent callers serialize: one wins, the rest
// fail with conflict or invalid-state.
type RegistrationService struct {
	DB       *dbx.DB
	Payments *PaymentService
	Notifier *Notifier
}

func NewRegistrationService(db *dbx.DB, payments *PaymentService, notifier *Notifier) *RegistrationService {
	return &RegistrationService{DB: db, Payments: payments, Notifier: notifier}
}

// Register creates a registration in the received status. It fails with a
// conflict whenever any allocation row already exists for (event, outlet),
// regardless of that row's status: rejected outlets cannot re-apply.
func (s *RegistrationService) Register(ctx context.Context, merchantID, eventID, outletID string) (*models.EventRegistration, error) {
	var outlet models.Outlet
	err := s.DB.Select("*").From("outlets").
		Where(dbx.HashExp{"id": outletID, "merchant_id": merchantID}).
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

	var event models.Event
	err = s.DB.Select("*").From("events").
		Where(dbx.HashExp{"id": eventID, "status": string(models.EventPublished)}).
		One(&event)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("event not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load event")
	}

	registration := &models.EventRegistration{
		ID:          uuid.NewString(),
		EventID:     event.ID,
		OrganizerID: event.OrganizerID,
		MerchantID:  merchantID,
		OutletID:    outlet.ID,
		Status:      models.RegistrationReceived,
		Score:       outlet.Score,
		Created:     time.Now().UTC().Format(time.RFC3339),
	}

	err = s.DB.Transactional(func(tx *dbx.Tx) error {
		var n int
		if err := tx.Select("COUNT(*)").From("event_registrations").
			Where(dbx.HashExp{"event_id": event.ID, "outlet_id": outlet.ID}).
			Row(&n); err != nil {
			return status.Internal(err, "check existing registration")
		}
		if n > 0 {
			return status.Conflict("outlet is already registered for this event")
		}

		if err := tx.Select("COUNT(*)").From("event_invitations").
			Where(dbx.HashExp{"event_id": event.ID, "outlet_id": outlet.ID}).
			Row(&n); err != nil {
			return status.Internal(err, "check existing invitation")
		}
		if n > 0 {
			return status.Conflict("outlet already holds an invitation for this event")
		}

		if _, err := tx.Insert("event_registrations", dbx.Params{
			"id":           registration.ID,
			"event_id":     registration.EventID,
			"organizer_id": registration.OrganizerID,
			"merchant_id":  registration.MerchantID,
			"outlet_id":    registration.OutletID,
			"status":       string(registration.Status),
			"score":        string(registration.Score),
			"created":      registration.Created,
		}).Execute(); err != nil {
			if isUniqueViolation(err) {
				return status.Conflict("outlet is already registered for this event")
			}
			return status.Internal(err, "insert registration")
		}
		return nil
	})
	if err != nil {
		monitoring.TrackAllocation("registration", "register", "failure")
		return nil, err
	}

	slog.Info("outlet registered",
		"registration_id", registration.ID,
		"event_id", event.ID,
		"outlet_id", outlet.ID,
		"merchant_id", merchantID,
	)
	monitoring.TrackAllocation("registration", "register", "success")
	s.Notifier.Notify(ctx, organizerChannel(event.OrganizerID), map[string]any{
		"type":            "registration_received",
		"registration_id": registration.ID,
		"event_id":        event.ID,
		"outlet_id":       outlet.ID,
	})
	return registration, nil
}

// Decide applies the organizer's verdict to a single registration: accept
// moves received to waiting and opens a payment session, reject is terminal.
func (s *RegistrationService) Decide(ctx context.Context, organizerID, registrationID string, decision models.Decision) (*models.EventRegistration, error) {
	action, err := organizerAction(decision)
	if err != nil {
		return nil, err
	}

	var registration models.EventRegistration
	txErr := s.DB.Transactional(func(tx *dbx.Tx) error {
		err := tx.Select("r.*").From("event_registrations r").
			InnerJoin("events e", dbx.NewExp("e.id = r.event_id")).
			Where(dbx.HashExp{"r.id": registrationID, "e.organizer_id": organizerID}).
			AndWhere(dbx.HashExp{"e.status": string(models.EventPublished)}).
			One(&registration)
		if errors.Is(err, sql.ErrNoRows) {
			return status.NotFound("registration not found")
		}
		if err != nil {
			return status.Internal(err, "load registration")
		}

		next, ok := models.NextRegistrationStatus(registration.Status, action)
		if !ok {
			return status.InvalidState("registration is %s and cannot be %sed", registration.Status, decision)
		}

		res, err := tx.Update("event_registrations",
			dbx.Params{"status": string(next)},
			dbx.HashExp{"id": registrationID, "status": string(models.RegistrationReceived)},
		).Execute()
		if err != nil {
			return status.Internal(err, "update registration status")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.InvalidState("registration is no longer in the received state")
		}
		registration.Status = next
		return nil
	})
	if txErr != nil {
		monitoring.TrackAllocation("registration", string(action), "failure")
		return nil, txErr
	}

	s.afterOrganizerDecision(ctx, []models.EventRegistration{registration}, action)
	return &registration, nil
}

// DecideBatch applies one verdict to the registrations of several outlets on
// one event. Only rows still in the received state transition; the returned
// count says how many did, and zero matched rows is a failure, never a silent
// success.
func (s *RegistrationService) DecideBatch(ctx context.Context, organizerID, eventID string, outletIDs []string, decision models.Decision) (int64, error) {
	action, err := organizerAction(decision)
	if err != nil {
		return 0, err
	}
	if len(outletIDs) == 0 {
		return 0, status.Validation("no outlets given", map[string]string{"outletIds": "must not be empty"})
	}

	next, _ := models.NextRegistrationStatus(models.RegistrationReceived, action)

	var transitioned []models.EventRegistration
	txErr := s.DB.Transactional(func(tx *dbx.Tx) error {
		event, err := findOwnedEvent(tx, eventID, organizerID)
		if err != nil {
			return err
		}
		if event.Status != models.EventPublished {
			return status.InvalidState("event is not published")
		}

		ids := make([]any, len(outletIDs))
		for i, id := range outletIDs {
			ids[i] = id
		}

		rows := []models.EventRegistration{}
		if err := tx.Select("*").From("event_registrations").
			Where(dbx.HashExp{"event_id": eventID, "status": string(models.RegistrationReceived)}).
			AndWhere(dbx.In("outlet_id", ids...)).
			All(&rows); err != nil {
			return status.Internal(err, "load registrations")
		}
		if len(rows) == 0 {
			return status.InvalidState("no registrations in the received state matched the given outlets")
		}

		regIDs := make([]any, len(rows))
		for i, row := range rows {
			regIDs[i] = row.ID
		}
		res, err := tx.Update("event_registrations",
			dbx.Params{"status": string(next)},
			dbx.And(
				dbx.In("id", regIDs...),
				dbx.HashExp{"status": string(models.RegistrationReceived)},
			),
		).Execute()
		if err != nil {
			return status.Internal(err, "update registrations")
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return status.InvalidState("no registrations in the received state matched the given outlets")
		}

		for i := range rows {
			rows[i].Status = next
		}
		transitioned = rows
		return nil
	})
	if txErr != nil {
		monitoring.TrackAllocation("registration", string(action), "failure")
		return 0, txErr
	}

	s.afterOrganizerDecision(ctx, transitioned, action)
	return int64(len(transitioned)), nil
}

func (s *RegistrationService) afterOrganizerDecision(ctx context.Context, registrations []models.EventRegistration, action models.Action) {
	monitoring.TrackAllocation("registration", string(action), "success")
	for _, registration := range registrations {
		if action == models.ActionOrganizerAccept && s.Payments != nil {
			if err := s.Payments.OpenSession(ctx, &registration); err != nil {
				slog.Warn("failed to open payment session", "registration_id", registration.ID, "error", err)
			}
		}
		s.Notifier.Notify(ctx, merchantChannel(registration.MerchantID), map[string]any{
			"type":            "registration_" + string(registration.Status),
			"registration_id": registration.ID,
			"event_id":        registration.EventID,
			"outlet_id":       registration.OutletID,
		})
		slog.Info("registration decided",
			"registration_id", registration.ID,
			"action", action,
			"status", registration.Status,
		)
	}
}

// ConfirmPayment settles the registration fee through the payment
// collaborator and moves the registration from waiting to accepted. Any other
// current status fails before the collaborator is called.
func (s *RegistrationService) ConfirmPayment(ctx context.Context, merchantID, registrationID string) (*models.EventRegistration, error) {
	var registration models.EventRegistration
	err := s.DB.Select("*").From("event_registrations").
		Where(dbx.HashExp{"id": registrationID, "merchant_id": merchantID}).
		One(&registration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("registration not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load registration")
	}
	if registration.Status != models.RegistrationWaiting {
		return nil, status.InvalidState("payment cannot be processed because the registration is %s", registration.Status)
	}

	if s.Payments != nil {
		if err := s.Payments.Settle(ctx, registration.ID); err != nil {
			monitoring.TrackAllocation("registration", string(models.ActionConfirmPayment), "failure")
			return nil, err
		}
	}

	next, _ := models.NextRegistrationStatus(models.RegistrationWaiting, models.ActionConfirmPayment)
	res, err := s.DB.Update("event_registrations",
		dbx.Params{"status": string(next)},
		dbx.HashExp{"id": registrationID, "status": string(models.RegistrationWaiting)},
	).Execute()
	if err != nil {
		return nil, status.Internal(err, "update registration status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, status.InvalidState("registration is no longer awaiting payment")
	}
	registration.Status = next

	slog.Info("registration payment confirmed", "registration_id", registration.ID, "merchant_id", merchantID)
	monitoring.TrackAllocation("registration", string(models.ActionConfirmPayment), "success")
	s.Notifier.Notify(ctx, organizerChannel(registration.OrganizerID), map[string]any{
		"type":            "registration_paid",
		"registration_id": registration.ID,
		"event_id":        registration.EventID,
	})
	return &registration, nil
}

// ListReceivedForOrganizer returns the pending applications on one of the
// organizer's published events, joined with outlet names for review screens.
func (s *RegistrationService) ListReceivedForOrganizer(ctx context.Context, organizerID, eventID string) ([]models.RegistrationView, error) {
	event, err := findOwnedEvent(s.DB, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventPublished {
		return nil, status.InvalidState("event is not published")
	}

	views := []models.RegistrationView{}
	err = s.DB.Select(registrationViewColumns...).
		From("event_registrations r").
		InnerJoin("events e", dbx.NewExp("e.id = r.event_id")).
		InnerJoin("outlets o", dbx.NewExp("o.id = r.outlet_id")).
		Where(dbx.HashExp{"r.event_id": eventID, "r.status": string(models.RegistrationReceived)}).
		OrderBy("r.created ASC").
		All(&views)
	if err != nil {
		return nil, status.Internal(err, "list registrations")
	}
	return views, nil
}

// DetailForOrganizer returns one registration under an event the organizer owns.
func (s *RegistrationService) DetailForOrganizer(ctx context.Context, organizerID, eventID, registrationID string) (*models.RegistrationView, error) {
	if _, err := findOwnedEvent(s.DB, eventID, organizerID); err != nil {
		return nil, err
	}

	var view models.RegistrationView
	err := s.DB.Select(registrationViewColumns...).
		From("event_registrations r").
		InnerJoin("events e", dbx.NewExp("e.id = r.event_id")).
		InnerJoin("outlets o", dbx.NewExp("o.id = r.outlet_id")).
		Where(dbx.HashExp{"r.id": registrationID, "r.event_id": eventID}).
		One(&view)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("registration not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load registration")
	}
	return &view, nil
}

// ListForMerchant returns the merchant's own registrations, optionally
// narrowed by status and ordered by creation date.
func (s *RegistrationService) ListForMerchant(ctx context.Context, merchantID string, filter models.RegistrationListFilter) ([]models.RegistrationView, error) {
	q := s.DB.Select(registrationViewColumns...).
		From("event_registrations r").
		InnerJoin("events e", dbx.NewExp("e.id = r.event_id")).
		InnerJoin("outlets o", dbx.NewExp("o.id = r.outlet_id")).
		Where(dbx.HashExp{"r.merchant_id": merchantID})

	if filter.Status != "" {
		q.AndWhere(dbx.HashExp{"r.status": string(filter.Status)})
	}
	if filter.DateOrder == "desc" {
		q.OrderBy("r.created DESC")
	} else {
		q.OrderBy("r.created ASC")
	}

	views := []models.RegistrationView{}
	if err := q.All(&views); err != nil {
		return nil, status.Internal(err, "list registrations")
	}
	return views, nil
}

// DetailForMerchant returns one of the merchant's own registrations.
func (s *RegistrationService) DetailForMerchant(ctx context.Context, merchantID, registrationID string) (*models.RegistrationView, error) {
	var view models.RegistrationView
	err := s.DB.Select(registrationViewColumns...).
		From("event_registrations r").
		InnerJoin("events e", dbx.NewExp("e.id = r.event_id")).
		InnerJoin("outlets o", dbx.NewExp("o.id = r.outlet_id")).
		Where(dbx.HashExp{"r.id": registrationID, "r.merchant_id": merchantID}).
		One(&view)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("registration not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load registration")
	}
	return &view, nil
}

var registrationViewColumns = []string{
	"r.id", "r.event_id", "r.organizer_id", "r.merchant_id", "r.outlet_id",
	"r.status", "r.score", "r.created",
	"e.name AS event_name", "e.date AS event_date",
	"o.name AS outlet_name",
}

func organizerAction(decision models.Decision) (models.Action, error) {
	switch decision {
	case models.DecisionAccept:
		return models.ActionOrganizerAccept, nil
	case models.DecisionReject:
		return models.ActionOrganizerReject, nil
	default:
		return "", status.Validation("invalid decision", map[string]string{
			"decision": "must be accept or reject",
		})
	}
}

func organizerChannel(organizerID string) string { return "organizer-" + organizerID }
func merchantChannel(merchantID string) string   { return "merchant-" + merchantID }

// isUniqueViolation spots sqlite unique-index failures without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
