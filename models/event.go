package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"event-market/internal/status"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
)

type EventCategory string

const (
	CategoryBazaar       EventCategory = "Bazaar"
	CategoryFoodFestival EventCategory = "FoodFestival"
	CategoryConcert      EventCategory = "Concert"
	CategoryExhibition   EventCategory = "Exhibition"
)

type VenueKind string

const (
	VenueIndoor  VenueKind = "Indoor"
	VenueOutdoor VenueKind = "Outdoor"
)

// Event is an organizer-owned listing. Once published it becomes immutable;
// only allocation records underneath it keep moving.
type Event struct {
	ID            string          `db:"id" json:"id"`
	OrganizerID   string          `db:"organizer_id" json:"organizerId"`
	Name          string          `db:"name" json:"name"`
	Category      EventCategory   `db:"category" json:"category"`
	Venue         VenueKind       `db:"venue" json:"venue"`
	Location      string          `db:"location" json:"location"`
	Latitude      float64         `db:"latitude" json:"latitude"`
	Longitude     float64         `db:"longitude" json:"longitude"`
	Date          string          `db:"date" json:"date"` // YYYY-MM-DD
	Time          string          `db:"time" json:"time"` // HH:MM
	VisitorNumber int             `db:"visitor_number" json:"visitorNumber"`
	TenantNumber  int             `db:"tenant_number" json:"tenantNumber"`
	TenantPrice   decimal.Decimal `db:"tenant_price" json:"tenantPrice"`
	Description   string          `db:"description" json:"description"`
	Banner        string          `db:"banner" json:"banner"`
	Pic           string          `db:"pic" json:"pic"`
	PicNumber     string          `db:"pic_number" json:"picNumber"`
	Status        EventStatus     `db:"status" json:"status"`
	Created       string          `db:"created" json:"created"`
}

// EventInput carries the mutable fields of an event. The banner ref is
// resolved by the upload collaborator before the input reaches the registry.
type EventInput struct {
	Name          string          `json:"name" form:"name"`
	Category      EventCategory   `json:"category" form:"category"`
	Venue         VenueKind       `json:"venue" form:"venue"`
	Location      string          `json:"location" form:"location"`
	Latitude      float64         `json:"latitude" form:"latitude"`
	Longitude     float64         `json:"longitude" form:"longitude"`
	Date          string          `json:"date" form:"date"`
	Time          string          `json:"time" form:"time"`
	VisitorNumber int             `json:"visitorNumber" form:"visitorNumber"`
	TenantNumber  int             `json:"tenantNumber" form:"tenantNumber"`
	TenantPrice   decimal.Decimal `json:"tenantPrice" form:"tenantPrice"`
	Description   string          `json:"description" form:"description"`
	Banner        string          `json:"banner" form:"-"`
}

// Validate checks every descriptive field and reports all violations at once.
// bannerRequired is false on updates, where keeping the stored banner is legal.
func (in EventInput) Validate(bannerRequired bool) error {
	bannerRules := []validation.Rule{}
	if bannerRequired {
		bannerRules = append(bannerRules, validation.Required.Error("banner image is required"))
	}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Category, validation.Required, validation.In(
			CategoryBazaar, CategoryFoodFestival, CategoryConcert, CategoryExhibition,
		).Error("must be one of Bazaar, FoodFestival, Concert, Exhibition")),
		validation.Field(&in.Venue, validation.Required, validation.In(
			VenueIndoor, VenueOutdoor,
		).Error("must be Indoor or Outdoor")),
		validation.Field(&in.Location, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&in.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&in.Date, validation.Required, validation.Date("2006-01-02"),
			validation.By(notInPast)),
		validation.Field(&in.Time, validation.Required, validation.Date("15:04").Error("must be in HH:MM format")),
		validation.Field(&in.VisitorNumber, validation.Required, validation.Min(1)),
		validation.Field(&in.TenantNumber, validation.Required, validation.Min(1)),
		validation.Field(&in.TenantPrice, validation.By(positiveDecimal)),
		validation.Field(&in.Description, validation.Required, validation.Length(1, 10000)),
		validation.Field(&in.Banner, bannerRules...),
	)
	if err == nil {
		return nil
	}

	fields := map[string]string{}
	if verrs, ok := err.(validation.Errors); ok {
		for name, ferr := range verrs {
			fields[name] = ferr.Error()
		}
	} else {
		fields["input"] = err.Error()
	}
	return status.Validation("event validation failed", fields)
}

func notInPast(value any) error {
	s, _ := value.(string)
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		// Format errors are reported by the Date rule.
		return nil
	}
	today := time.Now().Format("2006-01-02")
	if day.Format("2006-01-02") < today {
		return validation.NewError("validation_date_past", "must not be in the past")
	}
	return nil
}

func positiveDecimal(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok || d.Sign() <= 0 {
		return validation.NewError("validation_price", "must be a positive amount")
	}
	return nil
}

// EventListFilter selects the organizer's view of their events.
type EventListFilter string

const (
	FilterAll        EventListFilter = "all"
	FilterDraft      EventListFilter = "draft"
	FilterPublished  EventListFilter = "published"
	FilterProgress   EventListFilter = "progress"    // published, date >= today
	FilterComingSoon EventListFilter = "coming_soon" // published, date > today
)

// PublicEventFilter narrows the merchant-facing discovery listing. All parts
// are optional and combine conjunctively.
type PublicEventFilter struct {
	Categories []EventCategory
	MinDate    string
	MaxDate    string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}
