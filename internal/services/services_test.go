package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"event-market/migrations"
	"event-market/models"
)

func newTestDB(t *testing.T) *dbx.DB {
	t.Helper()
	db, err := dbx.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Apply(db))
	return db
}

func seedOrganizer(t *testing.T, db *dbx.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Insert("organizers", dbx.Params{
		"id": id, "name": name, "pic": "Ana", "pic_phone": "+62-811-0000-000",
	}).Execute()
	require.NoError(t, err)
	return id
}

func seedMerchant(t *testing.T, db *dbx.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Insert("merchants", dbx.Params{
		"id": id, "name": name, "score": string(models.ScoreMedium),
	}).Execute()
	require.NoError(t, err)
	return id
}

func seedOutlet(t *testing.T, db *dbx.DB, merchantID, name string, open bool, score models.ScoreTier) string {
	t.Helper()
	id := uuid.NewString()
	flag := 0
	if open {
		flag = 1
	}
	_, err := db.Insert("outlets", dbx.Params{
		"id": id, "merchant_id": merchantID, "name": name,
		"event_open": flag, "score": string(score),
	}).Execute()
	require.NoError(t, err)
	return id
}

func testEventInput() models.EventInput {
	return models.EventInput{
		Name:          "Harbor Food Festival",
		Category:      models.CategoryFoodFestival,
		Venue:         models.VenueOutdoor,
		Location:      "Old Harbor",
		Latitude:      -6.1,
		Longitude:     106.8,
		Date:          time.Now().AddDate(0, 0, 14).Format("2006-01-02"),
		Time:          "10:00",
		VisitorNumber: 1000,
		TenantNumber:  60,
		TenantPrice:   decimal.NewFromInt(300),
		Description:   "Two-day food festival at the old harbor",
		Banner:        "banner-ref",
	}
}

func seedDraftEvent(t *testing.T, db *dbx.DB, organizerID string) *models.Event {
	t.Helper()
	svc := NewEventService(db, nil)
	event, err := svc.CreateDraft(context.Background(), organizerID, testEventInput())
	require.NoError(t, err)
	return event
}

func seedPublishedEvent(t *testing.T, db *dbx.DB, organizerID string) *models.Event {
	t.Helper()
	svc := NewEventService(db, nil)
	event, err := svc.CreateDraft(context.Background(), organizerID, testEventInput())
	require.NoError(t, err)
	event, err = svc.Publish(context.Background(), event.ID, organizerID)
	require.NoError(t, err)
	return event
}
