package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/redis/go-redis/v9"

	"event-market/models"

	"event-market/internal/status"
	"event-market/utils"
)

// PaymentService tracks fee sessions for accepted registrations in redis and
// settles them through the payment collaborator. The marketplace only cares
// about the settled outcome; gateway mechanics live outside.
type PaymentService struct {
	Redis      *redis.Client
	SessionTTL time.Duration

	breaker *utils.CircuitBreaker
}

func NewPaymentService(redisClient *redis.Client, sessionTTL time.Duration) *PaymentService {
	return &PaymentService{
		Redis:      redisClient,
		SessionTTL: sessionTTL,
		breaker:    utils.NewCircuitBreaker("payment"),
	}
}

func paymentKey(registrationID string) string {
	return fmt.Sprintf("payment:%s", registrationID)
}

// OpenSession records a pending fee session when the organizer accepts a
// registration into the waiting stage.
func (s *PaymentService) OpenSession(ctx context.Context, registration *models.EventRegistration) error {
	if s.Redis == nil {
		return nil
	}

	ref, err := utils.GenerateCode(4)
	if err != nil {
		return status.External(err, "generate payment reference")
	}

	key := paymentKey(registration.ID)
	if err := s.Redis.HSet(ctx, key, map[string]any{
		"registration_id": registration.ID,
		"event_id":        registration.EventID,
		"merchant_id":     registration.MerchantID,
		"reference":       ref,
		"status":          "pending",
		"created_at":      time.Now().Unix(),
	}).Err(); err != nil {
		return status.External(err, "open payment session")
	}
	s.Redis.Expire(ctx, key, s.SessionTTL)

	slog.Info("payment session opened", "registration_id", registration.ID, "reference", ref)
	return nil
}

// Settle marks the registration's fee as paid. The call runs behind a
// circuit breaker so a dead collaborator fails fast instead of piling up.
func (s *PaymentService) Settle(ctx context.Context, registrationID string) error {
	if s.Redis == nil {
		return nil
	}

	err := s.breaker.Execute(func() error {
		key := paymentKey(registrationID)
		if err := s.Redis.HSet(ctx, key, "status", "completed").Err(); err != nil {
			return err
		}
		// A settled session outlives the pending-session TTL.
		return s.Redis.Persist(ctx, key).Err()
	})
	if err != nil {
		return status.External(err, "payment settlement failed")
	}

	slog.Info("payment settled", "registration_id", registrationID)
	return nil
}

// SessionStatus reports the fee session fields for a registration, or
// not-found when no session exists.
func (s *PaymentService) SessionStatus(ctx context.Context, registrationID string) (map[string]string, error) {
	if s.Redis == nil {
		return nil, status.NotFound("payment session not found")
	}

	fields, err := s.Redis.HGetAll(ctx, paymentKey(registrationID)).Result()
	if err != nil {
		return nil, status.External(err, "load payment session")
	}
	if len(fields) == 0 {
		return nil, status.NotFound("payment session not found")
	}
	return fields, nil
}

// OutletService is the marketplace's adapter onto the outlet directory: it
// reads outlets and merchants and writes nothing except the merchant's own
// event_open eligibility flag.
type OutletService struct {
	DB *dbx.DB
}

func NewOutletService(db *dbx.DB) *OutletService {
	return &OutletService{DB: db}
}

// GetOutlet returns one outlet by id, regardless of owner. Callers that need
// ownership scoping apply it themselves.
func (s *OutletService) GetOutlet(ctx context.Context, outletID string) (*models.Outlet, error) {
	var outlet models.Outlet
	err := s.DB.Select("*").From("outlets").
		Where(dbx.HashExp{"id": outletID}).
		One(&outlet)
	if err != nil {
		return nil, status.NotFound("outlet not found")
	}
	return &outlet, nil
}

// ListOutlets returns all outlets of one merchant.
func (s *OutletService) ListOutlets(ctx context.Context, merchantID string) ([]models.Outlet, error) {
	outlets := []models.Outlet{}
	err := s.DB.Select("*").From("outlets").
		Where(dbx.HashExp{"merchant_id": merchantID}).
		OrderBy("name ASC").
		All(&outlets)
	if err != nil {
		return nil, status.Internal(err, "list outlets")
	}
	return outlets, nil
}

// SetEventOpen toggles the merchant-controlled eligibility gate on one of
// the merchant's own outlets.
func (s *OutletService) SetEventOpen(ctx context.Context, merchantID, outletID string, open bool) (*models.Outlet, error) {
	flag := 0
	if open {
		flag = 1
	}
	res, err := s.DB.Update("outlets",
		dbx.Params{"event_open": flag},
		dbx.HashExp{"id": outletID, "merchant_id": merchantID},
	).Execute()
	if err != nil {
		return nil, status.Internal(err, "update outlet")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, status.NotFound("outlet not found")
	}

	return s.GetOutlet(ctx, outletID)
}
