package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"
	"github.com/shopspring/decimal"

	"event-market/models"
	"event-market/security"

	"event-market/internal/services"
	"event-market/internal/status"
	"event-market/internal/storage"
)

// OrganizerHandler serves the event-organizer surface: event lifecycle,
// registration review, and the invitation channel.
type OrganizerHandler struct {
	events        *services.EventService
	registrations *services.RegistrationService
	invitations   *services.InvitationService
	outlets       *services.OutletService
	banners       storage.BannerStore
}

func NewOrganizerHandler(
	events *services.EventService,
	registrations *services.RegistrationService,
	invitations *services.InvitationService,
	outlets *services.OutletService,
	banners storage.BannerStore,
) *OrganizerHandler {
	return &OrganizerHandler{
		events:        events,
		registrations: registrations,
		invitations:   invitations,
		outlets:       outlets,
		banners:       banners,
	}
}

// ListEvents answers the organizer dashboard. group=date returns a map keyed
// by day; group=no returns a flat list. Empty results keep the requested
// shape instead of collapsing to null.
func (h *OrganizerHandler) ListEvents(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	filter := models.EventListFilter(c.QueryParam("filter"))
	if filter == "" {
		filter = models.FilterAll
	}
	dateOrder := c.QueryParam("date")
	if dateOrder == "" {
		dateOrder = "desc"
	}
	group := c.QueryParam("group")
	if group == "" {
		group = "date"
	}

	events, err := h.events.ListByOrganizer(c.Request().Context(), principal.EntityID, filter, dateOrder)
	if err != nil {
		return fail(c, "error while retrieving events", err)
	}

	if group == "date" {
		return success(c, http.StatusOK, "events retrieved successfully", services.GroupEventsByDate(events))
	}
	return success(c, http.StatusOK, "events retrieved successfully", events)
}

func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	input, err := h.parseEventForm(c, true)
	if err != nil {
		return fail(c, "event validation failed", err)
	}

	event, err := h.events.CreateDraft(c.Request().Context(), principal.EntityID, input)
	if err != nil {
		return fail(c, "error while creating event", err)
	}
	return success(c, http.StatusCreated, "event created successfully", event)
}

func (h *OrganizerHandler) EventDetail(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	event, err := h.events.Detail(c.Request().Context(), c.PathParam("eventId"), principal.EntityID)
	if err != nil {
		return fail(c, "error while retrieving event", err)
	}
	return success(c, http.StatusOK, "event retrieved successfully", event)
}

func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	input, err := h.parseEventForm(c, false)
	if err != nil {
		return fail(c, "event validation failed", err)
	}

	event, err := h.events.UpdateDraft(c.Request().Context(), c.PathParam("eventId"), principal.EntityID, input)
	if err != nil {
		return fail(c, "error while updating event", err)
	}
	return success(c, http.StatusOK, "event updated successfully", event)
}

func (h *OrganizerHandler) DeleteEvent(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	if err := h.events.DeleteDraft(c.Request().Context(), c.PathParam("eventId"), principal.EntityID); err != nil {
		return fail(c, "error while deleting event", err)
	}
	return success(c, http.StatusOK, "event deleted successfully", nil)
}

func (h *OrganizerHandler) PublishEvent(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	event, err := h.events.Publish(c.Request().Context(), c.PathParam("eventId"), principal.EntityID)
	if err != nil {
		return fail(c, "error while publishing event", err)
	}
	return success(c, http.StatusOK, "event published successfully", event)
}

func (h *OrganizerHandler) ListRegistrations(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	views, err := h.registrations.ListReceivedForOrganizer(c.Request().Context(), principal.EntityID, c.PathParam("eventId"))
	if err != nil {
		return fail(c, "error while retrieving registrations", err)
	}
	return success(c, http.StatusOK, "registrations retrieved successfully", views)
}

func (h *OrganizerHandler) RegistrationDetail(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	view, err := h.registrations.DetailForOrganizer(
		c.Request().Context(), principal.EntityID, c.PathParam("eventId"), c.PathParam("regId"))
	if err != nil {
		return fail(c, "error while retrieving registration", err)
	}
	return success(c, http.StatusOK, "registration retrieved successfully", view)
}

type decideRequest struct {
	OutletIDs []string `json:"outletIds"`
}

func (h *OrganizerHandler) AcceptRegistrations(c echo.Context) error {
	return h.decideRegistrations(c, models.DecisionAccept)
}

func (h *OrganizerHandler) RejectRegistrations(c echo.Context) error {
	return h.decideRegistrations(c, models.DecisionReject)
}

func (h *OrganizerHandler) decideRegistrations(c echo.Context, decision models.Decision) error {
	principal := security.PrincipalFrom(c)

	var req decideRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, "invalid request body", status.Validation("invalid request body", map[string]string{
			"outletIds": "must be a list of outlet ids",
		}))
	}

	count, err := h.registrations.DecideBatch(
		c.Request().Context(), principal.EntityID, c.PathParam("eventId"), req.OutletIDs, decision)
	if err != nil {
		return fail(c, "error while updating registrations", err)
	}
	return success(c, http.StatusOK, "registrations updated successfully", map[string]any{
		"updated": count,
	})
}

func (h *OrganizerHandler) AvailableOutlets(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	outlets, err := h.invitations.AvailableOutlets(c.Request().Context(), principal.EntityID, c.PathParam("eventId"))
	if err != nil {
		return fail(c, "error while retrieving available outlets", err)
	}
	return success(c, http.StatusOK, "available outlets retrieved successfully", outlets)
}

func (h *OrganizerHandler) OutletDetail(c echo.Context) error {
	outlet, err := h.outlets.GetOutlet(c.Request().Context(), c.PathParam("outletId"))
	if err != nil {
		return fail(c, "error while retrieving outlet", err)
	}
	return success(c, http.StatusOK, "outlet retrieved successfully", outlet)
}

func (h *OrganizerHandler) Invite(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	invitation, err := h.invitations.Invite(
		c.Request().Context(), principal.EntityID, c.PathParam("eventId"), c.PathParam("outletId"))
	if err != nil {
		return fail(c, "error while inviting outlet", err)
	}
	return success(c, http.StatusCreated, "invitation created successfully", invitation)
}

// parseEventForm reads the multipart event form. Malformed numerics are
// collected per field so the caller sees every problem at once; domain rules
// are checked later by the registry.
func (h *OrganizerHandler) parseEventForm(c echo.Context, bannerRequired bool) (models.EventInput, error) {
	input := models.EventInput{
		Name:        c.FormValue("name"),
		Category:    models.EventCategory(c.FormValue("category")),
		Venue:       models.VenueKind(c.FormValue("venue")),
		Location:    c.FormValue("location"),
		Date:        c.FormValue("date"),
		Time:        c.FormValue("time"),
		Description: c.FormValue("description"),
	}

	fields := map[string]string{}
	parseFloat := func(name string) float64 {
		raw := c.FormValue(name)
		if raw == "" {
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields[name] = "must be a number"
		}
		return v
	}
	parseInt := func(name string) int {
		raw := c.FormValue(name)
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			fields[name] = "must be an integer"
		}
		return v
	}

	input.Latitude = parseFloat("latitude")
	input.Longitude = parseFloat("longitude")
	input.VisitorNumber = parseInt("visitorNumber")
	input.TenantNumber = parseInt("tenantNumber")

	if raw := c.FormValue("tenantPrice"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fields["tenantPrice"] = "must be a number"
		} else {
			input.TenantPrice = price
		}
	}

	if file, err := c.FormFile("banner"); err == nil && file != nil {
		ref, err := h.banners.Save(file)
		if err != nil {
			return input, err
		}
		input.Banner = ref
	} else if bannerRequired {
		fields["banner"] = "banner image is required"
	}

	if len(fields) > 0 {
		return input, status.Validation("event validation failed", fields)
	}
	return input, nil
}
