package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/shopspring/decimal"

	"event-market/models"
	"event-market/security"

	"event-market/internal/services"
	"event-market/internal/status"
	"event-market/internal/storage"
)

// MerchantHandler serves the merchant surface: event discovery, registration,
// invitation responses and outlet eligibility.
type MerchantHandler struct {
	events        *services.EventService
	registrations *services.RegistrationService
	invitations   *services.InvitationService
	outlets       *services.OutletService
	payments      *services.PaymentService
	banners       storage.BannerStore
}

func NewMerchantHandler(
	events *services.EventService,
	registrations *services.RegistrationService,
	invitations *services.InvitationService,
	outlets *services.OutletService,
	payments *services.PaymentService,
	banners storage.BannerStore,
) *MerchantHandler {
	return &MerchantHandler{
		events:        events,
		registrations: registrations,
		invitations:   invitations,
		outlets:       outlets,
		payments:      payments,
		banners:       banners,
	}
}

// ListEvents is the discovery listing. Only published events appear; all
// filters are optional and combine conjunctively.
func (h *MerchantHandler) ListEvents(c echo.Context) error {
	filter, err := parsePublicFilter(c)
	if err != nil {
		return fail(c, "invalid event filter", err)
	}

	events, err := h.events.PublicList(c.Request().Context(), filter)
	if err != nil {
		return fail(c, "error while retrieving events", err)
	}
	return success(c, http.StatusOK, "events retrieved successfully", events)
}

func (h *MerchantHandler) EventDetail(c echo.Context) error {
	event, err := h.events.PublicDetail(c.Request().Context(), c.PathParam("eventId"))
	if err != nil {
		return fail(c, "error while retrieving event", err)
	}
	return success(c, http.StatusOK, "event retrieved successfully", event)
}

type registerRequest struct {
	OutletID string `json:"outletId"`
}

func (h *MerchantHandler) Register(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	var req registerRequest
	if err := c.Bind(&req); err != nil || req.OutletID == "" {
		return fail(c, "invalid request body", status.Validation("invalid request body", map[string]string{
			"outletId": "outlet id is required",
		}))
	}

	registration, err := h.registrations.Register(
		c.Request().Context(), principal.EntityID, c.PathParam("eventId"), req.OutletID)
	if err != nil {
		return fail(c, "error while registering outlet", err)
	}
	return success(c, http.StatusCreated, "registration created successfully", registration)
}

func (h *MerchantHandler) ListRegistrations(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	filter := models.RegistrationListFilter{
		Status:    models.RegistrationStatus(c.QueryParam("status")),
		DateOrder: c.QueryParam("date"),
	}

	views, err := h.registrations.ListForMerchant(c.Request().Context(), principal.EntityID, filter)
	if err != nil {
		return fail(c, "error while retrieving registrations", err)
	}
	return success(c, http.StatusOK, "registrations retrieved successfully", views)
}

func (h *MerchantHandler) RegistrationDetail(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	view, err := h.registrations.DetailForMerchant(c.Request().Context(), principal.EntityID, c.PathParam("regId"))
	if err != nil {
		return fail(c, "error while retrieving registration", err)
	}
	return success(c, http.StatusOK, "registration retrieved successfully", view)
}

func (h *MerchantHandler) Pay(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	registration, err := h.registrations.ConfirmPayment(c.Request().Context(), principal.EntityID, c.PathParam("regId"))
	if err != nil {
		return fail(c, "error while confirming payment", err)
	}
	return success(c, http.StatusOK, "payment confirmed successfully", registration)
}

func (h *MerchantHandler) ListInvitations(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	views, err := h.invitations.ListForMerchant(c.Request().Context(), principal.EntityID)
	if err != nil {
		return fail(c, "error while retrieving invitations", err)
	}
	return success(c, http.StatusOK, "invitations retrieved successfully", views)
}

func (h *MerchantHandler) InvitationDetail(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	view, err := h.invitations.DetailForMerchant(c.Request().Context(), principal.EntityID, c.PathParam("invId"))
	if err != nil {
		return fail(c, "error while retrieving invitation", err)
	}
	return success(c, http.StatusOK, "invitation retrieved successfully", view)
}

func (h *MerchantHandler) AcceptInvitation(c echo.Context) error {
	return h.respondInvitation(c, models.DecisionAccept)
}

func (h *MerchantHandler) RejectInvitation(c echo.Context) error {
	return h.respondInvitation(c, models.DecisionReject)
}

func (h *MerchantHandler) respondInvitation(c echo.Context, decision models.Decision) error {
	principal := security.PrincipalFrom(c)

	invitation, err := h.invitations.Respond(
		c.Request().Context(), principal.EntityID, c.PathParam("invId"), decision)
	if err != nil {
		return fail(c, "error while responding to invitation", err)
	}
	return success(c, http.StatusOK, "invitation updated successfully", invitation)
}

func (h *MerchantHandler) ListOutlets(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	outlets, err := h.outlets.ListOutlets(c.Request().Context(), principal.EntityID)
	if err != nil {
		return fail(c, "error while retrieving outlets", err)
	}
	return success(c, http.StatusOK, "outlets retrieved successfully", outlets)
}

type eventOpenRequest struct {
	EventOpen bool `json:"eventOpen"`
}

func (h *MerchantHandler) SetOutletEventOpen(c echo.Context) error {
	principal := security.PrincipalFrom(c)

	var req eventOpenRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, "invalid request body", status.Validation("invalid request body", map[string]string{
			"eventOpen": "must be a boolean",
		}))
	}

	outlet, err := h.outlets.SetEventOpen(c.Request().Context(), principal.EntityID, c.PathParam("outletId"), req.EventOpen)
	if err != nil {
		return fail(c, "error while updating outlet", err)
	}
	return success(c, http.StatusOK, "outlet updated successfully", outlet)
}

// ServeBanner streams a stored banner image. Refs are opaque and already
// sanitized by the store.
func (h *MerchantHandler) ServeBanner(c echo.Context) error {
	rc, err := h.banners.Open(c.PathParam("ref"))
	if err != nil {
		return fail(c, "banner not found", err)
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, "application/octet-stream", rc)
}

type simulatePaymentRequest struct {
	RegistrationID string `json:"registrationId"`
}

// SimulatePayment settles a payment session out of band. Registered only in
// non-production environments.
func (h *MerchantHandler) SimulatePayment(c echo.Context) error {
	var req simulatePaymentRequest
	if err := c.Bind(&req); err != nil || req.RegistrationID == "" {
		return fail(c, "invalid request body", status.Validation("invalid request body", map[string]string{
			"registrationId": "registration id is required",
		}))
	}

	if err := h.payments.Settle(c.Request().Context(), req.RegistrationID); err != nil {
		return fail(c, "error while settling payment", err)
	}
	session, err := h.payments.SessionStatus(c.Request().Context(), req.RegistrationID)
	if err != nil {
		return fail(c, "error while reading payment session", err)
	}
	return success(c, http.StatusOK, "payment settled successfully", session)
}

func parsePublicFilter(c echo.Context) (models.PublicEventFilter, error) {
	filter := models.PublicEventFilter{
		MinDate: c.QueryParam("minDate"),
		MaxDate: c.QueryParam("maxDate"),
	}

	if raw := c.QueryParam("category"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				filter.Categories = append(filter.Categories, models.EventCategory(part))
			}
		}
	}

	fields := map[string]string{}
	if raw := c.QueryParam("minPrice"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fields["minPrice"] = "must be a number"
		} else {
			filter.MinPrice = &price
		}
	}
	if raw := c.QueryParam("maxPrice"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			fields["maxPrice"] = "must be a number"
		} else {
			filter.MaxPrice = &price
		}
	}
	if len(fields) > 0 {
		return filter, status.Validation("invalid event filter", fields)
	}
	return filter, nil
}
