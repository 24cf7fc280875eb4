// Package handler defines the HTTP handlers wrapping the registration
// protocol. Handlers translate service errors into the response taxonomy:
// validation problems are 400, duplicate claims 409 naming the code and
// holder, infrastructure failures a generic 500 the user can retry, and a
// missing counter a distinct internal error recommending reconciliation.
package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-guest-registration/internal/queue"
	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/service"
)

// RegistrationHandler exposes the registration transaction, the
// remaining-slot query, listing/deletion and door check-in.
type RegistrationHandler struct {
	Reg    *service.RegistrationService
	Groups *repository.GuestGroupRepo
	Dists  *repository.DistributorRepo
}

// NewRegistrationHandler constructs the handler. All dependencies must be
// non-nil.
func NewRegistrationHandler(reg *service.RegistrationService, groups *repository.GuestGroupRepo, dists *repository.DistributorRepo) *RegistrationHandler {
	if reg == nil || groups == nil || dists == nil {
		panic("nil dependency passed to NewRegistrationHandler")
	}
	return &RegistrationHandler{Reg: reg, Groups: groups, Dists: dists}
}

// Register handles POST /v1/registrations. On success it returns 201 with
// the materialized guest group and publishes a registration.confirmed
// event; publish failures are ignored so a dead broker never fails a
// committed registration.
func (h *RegistrationHandler) Register(c echo.Context) error {
	var in service.RegistrationInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	group, err := h.Reg.Register(c.Request().Context(), in)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Reason})
		}
		var dupErr *repository.DuplicateTicketError
		if errors.As(err, &dupErr) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":       dupErr.Error(),
				"ticket_code": dupErr.TicketCode,
				"claimed_by":  dupErr.ClaimedBy,
			})
		}
		if errors.Is(err, service.ErrCapacityFull) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no registration slots remaining"})
		}
		if errors.Is(err, repository.ErrCounterMissing) {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "registration counter missing; run counter rebuild",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "connection error, please retry"})
	}

	codes := make([]string, 0, len(group.Companions))
	for _, comp := range group.Companions {
		codes = append(codes, comp.TicketCode)
	}
	_ = queue.PublishRegistrationConfirmed(c.Request().Context(), queue.RegistrationConfirmedEvent{
		GroupID:          group.ID,
		PrimaryGuestName: group.PrimaryGuestName,
		DistributorLabel: group.DistributorLabel,
		TicketCodes:      codes,
		CompanionCount:   len(group.Companions),
		RegisteredAt:     group.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"item": group})
}

// RemainingSlots handles GET /v1/slots. The response is cached by the
// Redis middleware for one polling interval.
func (h *RegistrationHandler) RemainingSlots(c echo.Context) error {
	remaining, err := h.Reg.RemainingSlots(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slot count"})
	}
	return c.JSON(http.StatusOK, echo.Map{"remaining": remaining})
}

// ListDistributors handles GET /v1/distributors so the form can offer the
// configured distributor labels and their ranges.
func (h *RegistrationHandler) ListDistributors(c echo.Context) error {
	dists, err := h.Dists.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load distributors"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": dists})
}

// List handles GET /v1/registrations, returning all guest groups with
// their companions, newest first.
func (h *RegistrationHandler) List(c echo.Context) error {
	groups, err := h.Groups.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load registrations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": groups})
}

// Get handles GET /v1/registrations/:id.
func (h *RegistrationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	group, err := h.Groups.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch registration"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": group})
}

// DeleteGroup handles DELETE /v1/registrations/:id. The group, its
// companions and their ticket claims go together and the counter is
// decremented; freed codes are claimable again immediately.
func (h *RegistrationHandler) DeleteGroup(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}
	if err := h.Reg.DeleteGroup(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteCompanion handles DELETE /v1/companions/:id, removing one
// companion and releasing its ticket claim.
func (h *RegistrationHandler) DeleteCompanion(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid companion id"})
	}
	if err := h.Reg.DeleteCompanion(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "companion not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckIn handles POST /v1/checkin. The body carries the scanned ticket
// code; the transition to CHECKED_IN happens exactly once and a second
// scan returns 409 with the companion so door staff see who was already
// admitted.
func (h *RegistrationHandler) CheckIn(c echo.Context) error {
	var body struct {
		TicketCode string `json:"ticket_code"`
	}
	if err := c.Bind(&body); err != nil || body.TicketCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_code is required"})
	}
	comp, err := h.Reg.CheckIn(c.Request().Context(), body.TicketCode)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Reason})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no companion holds this ticket"})
		}
		if errors.Is(err, repository.ErrAlreadyCheckedIn) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already checked in", "item": comp})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": comp})
}

// Stats handles GET /v1/stats, the aggregate the dashboards poll every
// 15 seconds. Served through the cache middleware.
func (h *RegistrationHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	groups, err := h.Groups.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load statistics"})
	}
	total, checkedIn, err := h.Groups.CompanionStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load statistics"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"groups":     groups,
		"companions": total,
		"checked_in": checkedIn,
		"pending":    total - checkedIn,
	})
}
