package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-market/internal/status"
)

func validEventInput() EventInput {
	return EventInput{
		Name:          "Night Bazaar",
		Category:      CategoryBazaar,
		Venue:         VenueOutdoor,
		Location:      "Central Park",
		Latitude:      -6.2,
		Longitude:     106.8,
		Date:          time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
		Time:          "18:00",
		VisitorNumber: 500,
		TenantNumber:  40,
		TenantPrice:   decimal.NewFromInt(250),
		Description:   "Evening street-food bazaar",
		Banner:        "banner-ref",
	}
}

func TestEventInput_Validate_OK(t *testing.T) {
	assert.NoError(t, validEventInput().Validate(true))
}

func TestEventInput_Validate_ReportsAllViolationsAtOnce(t *testing.T) {
	in := validEventInput()
	in.Name = ""
	in.Category = "Circus"
	in.Date = "yesterday"
	in.TenantNumber = 0
	in.TenantPrice = decimal.Zero

	err := in.Validate(true)
	require.Error(t, err)
	assert.Equal(t, status.KindValidation, status.KindOf(err))

	var serr *status.Error
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Fields, "name")
	assert.Contains(t, serr.Fields, "category")
	assert.Contains(t, serr.Fields, "date")
	assert.Contains(t, serr.Fields, "tenantNumber")
	assert.Contains(t, serr.Fields, "tenantPrice")
}

func TestEventInput_Validate_RejectsPastDate(t *testing.T) {
	in := validEventInput()
	in.Date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	err := in.Validate(true)
	require.Error(t, err)

	var serr *status.Error
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Fields, "date")
}

func TestEventInput_Validate_BannerOptionalOnUpdate(t *testing.T) {
	in := validEventInput()
	in.Banner = ""

	require.Error(t, in.Validate(true))
	assert.NoError(t, in.Validate(false))
}
