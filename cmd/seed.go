package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"event-market/config"
	"event-market/migrations"
	"event-market/models"
	"event-market/security"
)

// Seed loads a small demo dataset and prints an access token per account so
// the API can be driven from curl right away.
func Seed() error {
	cfg := config.LoadConfig()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return err
	}
	db, err := dbx.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Apply(db); err != nil {
		return err
	}

	organizers := []models.Organizer{
		{ID: uuid.NewString(), Name: "Archipelago Events", Pic: "Sinta Dewi", PicPhone: "+62-811-2000-001"},
		{ID: uuid.NewString(), Name: "Metro Expo Group", Pic: "Rudi Hartono", PicPhone: "+62-811-2000-002"},
	}
	for _, o := range organizers {
		if _, err := db.Insert("organizers", dbx.Params{
			"id": o.ID, "name": o.Name, "pic": o.Pic, "pic_phone": o.PicPhone,
		}).Execute(); err != nil {
			return err
		}
	}

	merchants := []models.Merchant{
		{ID: uuid.NewString(), Name: "Kopi Pagi"},
		{ID: uuid.NewString(), Name: "Sate Nusantara"},
	}
	for _, m := range merchants {
		if _, err := db.Insert("merchants", dbx.Params{
			"id": m.ID, "name": m.Name, "score": string(models.ScoreMedium),
		}).Execute(); err != nil {
			return err
		}
	}

	outlets := []models.Outlet{
		{ID: uuid.NewString(), MerchantID: merchants[0].ID, Name: "Kopi Pagi Sudirman", EventOpen: true, Score: models.ScoreHigh},
		{ID: uuid.NewString(), MerchantID: merchants[0].ID, Name: "Kopi Pagi Kemang", EventOpen: false, Score: models.ScoreMedium},
		{ID: uuid.NewString(), MerchantID: merchants[1].ID, Name: "Sate Nusantara Blok M", EventOpen: true, Score: models.ScoreLow},
	}
	for _, o := range outlets {
		open := 0
		if o.EventOpen {
			open = 1
		}
		if _, err := db.Insert("outlets", dbx.Params{
			"id": o.ID, "merchant_id": o.MerchantID, "name": o.Name,
			"event_open": open, "score": string(o.Score),
		}).Execute(); err != nil {
			return err
		}
	}

	accounts := []struct {
		email    string
		role     models.Role
		entityID string
	}{
		{"eo1@example.com", models.RoleOrganizer, organizers[0].ID},
		{"eo2@example.com", models.RoleOrganizer, organizers[1].ID},
		{"sme1@example.com", models.RoleMerchant, merchants[0].ID},
		{"sme2@example.com", models.RoleMerchant, merchants[1].ID},
	}
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := db.Insert("users", dbx.Params{
			"id":            uuid.NewString(),
			"email":         a.email,
			"password_hash": string(hash),
			"role":          string(a.role),
			"entity_id":     a.entityID,
		}).Execute(); err != nil {
			return err
		}

		token, err := security.GenerateToken(cfg.JWTSecret, a.role, a.entityID, cfg.TokenTTL)
		if err != nil {
			return err
		}
		fmt.Printf("%-18s %-10s %s\n", a.email, a.role, token)
	}

	fmt.Println("seed data loaded")
	return nil
}
