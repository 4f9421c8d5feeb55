package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/redis/go-redis/v9"

	"event-market/models"

	"event-market/internal/status"
	"event-market/monitoring"
)

// publishedEventsKey is the redis set mirroring published event ids, used by
// monitoring and kept in sync on publish/delete.
const publishedEventsKey = "events:published"

// EventService is the event registry: it owns the draft/published lifecycle
// and the organizer- and merchant-facing event views.
type EventService struct {
	DB    *dbx.DB
	Redis *redis.Client
}

func NewEventService(db *dbx.DB, redisClient *redis.Client) *EventService {
	return &EventService{DB: db, Redis: redisClient}
}

// CreateDraft validates every descriptive field at once and stores a new
// draft event for the organizer. The contact fields are denormalized from
// the organizer profile, matching what tenants see on event detail pages.
func (s *EventService) CreateDraft(ctx context.Context, organizerID string, in models.EventInput) (*models.Event, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	var organizer models.Organizer
	err := s.DB.Select("id", "name", "pic", "pic_phone").
		From("organizers").
		Where(dbx.HashExp{"id": organizerID}).
		One(&organizer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("organizer not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load organizer")
	}

	event := &models.Event{
		ID:            uuid.NewString(),
		OrganizerID:   organizerID,
		Name:          in.Name,
		Category:      in.Category,
		Venue:         in.Venue,
		Location:      in.Location,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		Date:          in.Date,
		Time:          in.Time,
		VisitorNumber: in.VisitorNumber,
		TenantNumber:  in.TenantNumber,
		TenantPrice:   in.TenantPrice,
		Description:   in.Description,
		Banner:        in.Banner,
		Pic:           organizer.Pic,
		PicNumber:     organizer.PicPhone,
		Status:        models.EventDraft,
		Created:       time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := s.DB.Insert("events", dbx.Params{
		"id":             event.ID,
		"organizer_id":   event.OrganizerID,
		"name":           event.Name,
		"category":       string(event.Category),
		"venue":          string(event.Venue),
		"location":       event.Location,
		"latitude":       event.Latitude,
		"longitude":      event.Longitude,
		"date":           event.Date,
		"time":           event.Time,
		"visitor_number": event.VisitorNumber,
		"tenant_number":  event.TenantNumber,
		"tenant_price":   event.TenantPrice,
		"description":    event.Description,
		"banner":         event.Banner,
		"pic":            event.Pic,
		"pic_number":     event.PicNumber,
		"status":         string(event.Status),
		"created":        event.Created,
	}).Execute(); err != nil {
		return nil, status.Internal(err, "insert event")
	}

	slog.Info("event draft created", "event_id", event.ID, "organizer_id", organizerID)
	monitoring.TrackEventOperation("create_draft", "success")
	return event, nil
}

// UpdateDraft replaces every mutable field of a draft event. A published
// event is immutable and the call fails with an invalid-state error.
func (s *EventService) UpdateDraft(ctx context.Context, eventID, organizerID string, in models.EventInput) (*models.Event, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	var updated *models.Event
	err := s.DB.Transactional(func(tx *dbx.Tx) error {
		event, err := findOwnedEvent(tx, eventID, organizerID)
		if err != nil {
			return err
		}
		if event.Status != models.EventDraft {
			return status.InvalidState("event is already published and cannot be updated")
		}

		params := dbx.Params{
			"name":           in.Name,
			"category":       string(in.Category),
			"venue":          string(in.Venue),
			"location":       in.Location,
			"latitude":       in.Latitude,
			"longitude":      in.Longitude,
			"date":           in.Date,
			"time":           in.Time,
			"visitor_number": in.VisitorNumber,
			"tenant_number":  in.TenantNumber,
			"tenant_price":   in.TenantPrice,
			"description":    in.Description,
		}
		if in.Banner != "" {
			params["banner"] = in.Banner
		}

		if _, err := tx.Update("events", params, dbx.HashExp{
			"id":           eventID,
			"organizer_id": organizerID,
			"status":       string(models.EventDraft),
		}).Execute(); err != nil {
			return status.Internal(err, "update event")
		}

		event, err = findOwnedEvent(tx, eventID, organizerID)
		if err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("event draft updated", "event_id", eventID, "organizer_id", organizerID)
	return updated, nil
}

// DeleteDraft removes a draft event together with any allocation rows that
// reference it. A draft should never have allocation rows, but the cleanup is
// explicit so a violated invariant cannot leave orphans behind.
func (s *EventService) DeleteDraft(ctx context.Context, eventID, organizerID string) error {
	err := s.DB.Transactional(func(tx *dbx.Tx) error {
		event, err := findOwnedEvent(tx, eventID, organizerID)
		if err != nil {
			return err
		}
		if event.Status != models.EventDraft {
			return status.InvalidState("event is already published and cannot be deleted")
		}

		if _, err := tx.Delete("event_registrations", dbx.HashExp{"event_id": eventID}).Execute(); err != nil {
			return status.Internal(err, "delete registrations")
		}
		if _, err := tx.Delete("event_invitations", dbx.HashExp{"event_id": eventID}).Execute(); err != nil {
			return status.Internal(err, "delete invitations")
		}
		if _, err := tx.Delete("events", dbx.HashExp{"id": eventID}).Execute(); err != nil {
			return status.Internal(err, "delete event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("event draft deleted", "event_id", eventID, "organizer_id", organizerID)
	monitoring.TrackEventOperation("delete_draft", "success")
	return nil
}

// Publish flips a draft to published exactly once. The conditional update
// serializes concurrent publishers: the second caller matches zero rows.
func (s *EventService) Publish(ctx context.Context, eventID, organizerID string) (*models.Event, error) {
	var published *models.Event
	err := s.DB.Transactional(func(tx *dbx.Tx) error {
		event, err := findOwnedEvent(tx, eventID, organizerID)
		if err != nil {
			return err
		}
		if event.Status != models.EventDraft {
			return status.InvalidState("event is already published")
		}

		res, err := tx.Update("events",
			dbx.Params{"status": string(models.EventPublished)},
			dbx.HashExp{"id": eventID, "status": string(models.EventDraft)},
		).Execute()
		if err != nil {
			return status.Internal(err, "publish event")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return status.InvalidState("event is already published")
		}

		event.Status = models.EventPublished
		published = event
		return nil
	})
	if err != nil {
		monitoring.TrackEventOperation("publish", "failure")
		return nil, err
	}

	if s.Redis != nil {
		if err := s.Redis.SAdd(ctx, publishedEventsKey, eventID).Err(); err != nil {
			slog.Warn("failed to sync published event to redis", "event_id", eventID, "error", err)
		}
	}

	slog.Info("event published", "event_id", eventID, "organizer_id", organizerID)
	monitoring.TrackEventOperation("publish", "success")
	return published, nil
}

// Detail returns one event scoped to its organizer.
func (s *EventService) Detail(ctx context.Context, eventID, organizerID string) (*models.Event, error) {
	return findOwnedEvent(s.DB, eventID, organizerID)
}

// ListByOrganizer returns the organizer's events ordered by date. Filters
// follow the dashboard tabs: drafts, published, in-progress (today or later),
// coming soon (strictly later).
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string, filter models.EventListFilter, dateOrder string) ([]models.Event, error) {
	q := s.DB.Select("*").From("events").Where(dbx.HashExp{"organizer_id": organizerID})

	today := time.Now().Format("2006-01-02")
	switch filter {
	case models.FilterDraft:
		q.AndWhere(dbx.HashExp{"status": string(models.EventDraft)})
	case models.FilterPublished:
		q.AndWhere(dbx.HashExp{"status": string(models.EventPublished)})
	case models.FilterProgress:
		q.AndWhere(dbx.HashExp{"status": string(models.EventPublished)})
		q.AndWhere(dbx.NewExp("date >= {:today}", dbx.Params{"today": today}))
	case models.FilterComingSoon:
		q.AndWhere(dbx.HashExp{"status": string(models.EventPublished)})
		q.AndWhere(dbx.NewExp("date > {:today}", dbx.Params{"today": today}))
	case models.FilterAll, "":
		// no extra condition
	default:
		return nil, status.Validation("invalid filter", map[string]string{
			"filter": "must be one of all, draft, published, progress, coming_soon",
		})
	}

	if dateOrder == "asc" {
		q.OrderBy("date ASC", "time ASC")
	} else {
		q.OrderBy("date DESC", "time DESC")
	}

	events := []models.Event{}
	if err := q.All(&events); err != nil {
		return nil, status.Internal(err, "list events")
	}
	return events, nil
}

// GroupEventsByDate buckets a sorted listing by calendar day. An empty input
// produces an empty, non-nil map so the grouped shape survives serialization.
func GroupEventsByDate(events []models.Event) map[string][]models.Event {
	grouped := make(map[string][]models.Event, len(events))
	for _, event := range events {
		grouped[event.Date] = append(grouped[event.Date], event)
	}
	return grouped
}

// PublicList is the merchant-facing discovery view over published events.
// All filter parts are optional and combine conjunctively.
func (s *EventService) PublicList(ctx context.Context, filter models.PublicEventFilter) ([]models.Event, error) {
	q := s.DB.Select("*").From("events").
		Where(dbx.HashExp{"status": string(models.EventPublished)})

	if len(filter.Categories) > 0 {
		cats := make([]any, len(filter.Categories))
		for i, c := range filter.Categories {
			cats[i] = string(c)
		}
		q.AndWhere(dbx.In("category", cats...))
	}
	if filter.MinDate != "" {
		q.AndWhere(dbx.NewExp("date >= {:min}", dbx.Params{"min": filter.MinDate}))
	}
	if filter.MaxDate != "" {
		q.AndWhere(dbx.NewExp("date <= {:max}", dbx.Params{"max": filter.MaxDate}))
	}
	if filter.MinPrice != nil {
		// Bind as float so sqlite compares numerically, not by storage class.
		q.AndWhere(dbx.NewExp("tenant_price >= {:min}", dbx.Params{"min": filter.MinPrice.InexactFloat64()}))
	}
	if filter.MaxPrice != nil {
		q.AndWhere(dbx.NewExp("tenant_price <= {:max}", dbx.Params{"max": filter.MaxPrice.InexactFloat64()}))
	}
	q.OrderBy("date ASC", "time ASC")

	events := []models.Event{}
	if err := q.All(&events); err != nil {
		return nil, status.Internal(err, "list published events")
	}
	return events, nil
}

// PublicDetail returns one published event. Drafts answer not-found so their
// existence never leaks to merchants.
func (s *EventService) PublicDetail(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := s.DB.Select("*").From("events").
		Where(dbx.HashExp{"id": eventID, "status": string(models.EventPublished)}).
		One(&event)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("event not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load event")
	}
	return &event, nil
}

// findOwnedEvent loads an event scoped by owner. Missing and foreign rows are
// indistinguishable to the caller.
func findOwnedEvent(db dbx.Builder, eventID, organizerID string) (*models.Event, error) {
	var event models.Event
	err := db.Select("*").From("events").
		Where(dbx.HashExp{"id": eventID, "organizer_id": organizerID}).
		One(&event)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.NotFound("event not found")
	}
	if err != nil {
		return nil, status.Internal(err, "load event")
	}
	return &event, nil
}
