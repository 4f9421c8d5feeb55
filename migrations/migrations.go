// Package migrations creates and evolves the marketplace schema. Each step
// runs once; applied step names are tracked in the _migrations table so
// startup is idempotent.
package migrations

import (
	"fmt"
	"log/slog"

	"github.com/pocketbase/dbx"
)

type migration struct {
	name string
	stmt string
}

var steps = []migration{
	{
		name: "create_organizers",
		stmt: `CREATE TABLE organizers (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			pic       TEXT NOT NULL DEFAULT '',
			pic_phone TEXT NOT NULL DEFAULT ''
		)`,
	},
	{
		name: "create_merchants",
		stmt: `CREATE TABLE merchants (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			score TEXT NOT NULL DEFAULT 'medium'
		)`,
	},
	{
		name: "create_users",
		stmt: `CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			entity_id     TEXT NOT NULL
		)`,
	},
	{
		name: "create_outlets",
		stmt: `CREATE TABLE outlets (
			id          TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL REFERENCES merchants(id),
			name        TEXT NOT NULL,
			event_open  INTEGER NOT NULL DEFAULT 0,
			score       TEXT NOT NULL DEFAULT 'medium'
		)`,
	},
	{
		name: "create_events",
		stmt: `CREATE TABLE events (
			id             TEXT PRIMARY KEY,
			organizer_id   TEXT NOT NULL REFERENCES organizers(id),
			name           TEXT NOT NULL,
			category       TEXT NOT NULL,
			venue          TEXT NOT NULL,
			location       TEXT NOT NULL,
			latitude       REAL NOT NULL DEFAULT 0,
			longitude      REAL NOT NULL DEFAULT 0,
			date           TEXT NOT NULL,
			time           TEXT NOT NULL,
			visitor_number INTEGER NOT NULL,
			tenant_number  INTEGER NOT NULL,
			tenant_price   NUMERIC NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			banner         TEXT NOT NULL DEFAULT '',
			pic            TEXT NOT NULL DEFAULT '',
			pic_number     TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'draft',
			created        TEXT NOT NULL
		)`,
	},
	{
		name: "create_event_registrations",
		stmt: `CREATE TABLE event_registrations (
			id           TEXT PRIMARY KEY,
			event_id     TEXT NOT NULL REFERENCES events(id),
			organizer_id TEXT NOT NULL REFERENCES organizers(id),
			merchant_id  TEXT NOT NULL REFERENCES merchants(id),
			outlet_id    TEXT NOT NULL REFERENCES outlets(id),
			status       TEXT NOT NULL DEFAULT 'received',
			score        TEXT NOT NULL DEFAULT 'medium',
			created      TEXT NOT NULL
		)`,
	},
	{
		// One registration per (event, outlet), ever. The index is the
		// last line of defence when two creators race past the
		// transactional existence check.
		name: "uq_registration_event_outlet",
		stmt: `CREATE UNIQUE INDEX uq_registration_event_outlet
			ON event_registrations (event_id, outlet_id)`,
	},
	{
		name: "create_event_invitations",
		stmt: `CREATE TABLE event_invitations (
			id           TEXT PRIMARY KEY,
			event_id     TEXT NOT NULL REFERENCES events(id),
			organizer_id TEXT NOT NULL REFERENCES organizers(id),
			merchant_id  TEXT NOT NULL REFERENCES merchants(id),
			outlet_id    TEXT NOT NULL REFERENCES outlets(id),
			status       TEXT NOT NULL DEFAULT 'pending',
			created      TEXT NOT NULL
		)`,
	},
	{
		name: "uq_invitation_event_outlet",
		stmt: `CREATE UNIQUE INDEX uq_invitation_event_outlet
			ON event_invitations (event_id, outlet_id)`,
	},
	{
		name: "idx_registrations_merchant",
		stmt: `CREATE INDEX idx_registrations_merchant ON event_registrations (merchant_id, created)`,
	},
	{
		name: "idx_invitations_merchant",
		stmt: `CREATE INDEX idx_invitations_merchant ON event_invitations (merchant_id, created)`,
	},
	{
		name: "idx_events_organizer",
		stmt: `CREATE INDEX idx_events_organizer ON events (organizer_id, date)`,
	},
}

// Apply runs all pending migrations in order.
func Apply(db *dbx.DB) error {
	if _, err := db.NewQuery(
		`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY, applied TEXT NOT NULL DEFAULT (datetime('now')))`,
	).Execute(); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, step := range steps {
		var count int
		if err := db.Select("COUNT(*)").
			From("_migrations").
			Where(dbx.HashExp{"name": step.name}).
			Row(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", step.name, err)
		}
		if count > 0 {
			continue
		}

		if _, err := db.NewQuery(step.stmt).Execute(); err != nil {
			return fmt.Errorf("apply migration %s: %w", step.name, err)
		}
		if _, err := db.Insert("_migrations", dbx.Params{"name": step.name}).Execute(); err != nil {
			return fmt.Errorf("record migration %s: %w", step.name, err)
		}
		slog.Info("applied migration", "name", step.name)
	}

	return nil
}
