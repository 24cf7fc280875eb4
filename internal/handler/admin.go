package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-guest-registration/internal/model"
	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/service"
	"github.com/iliyamo/event-guest-registration/internal/ticket"
)

// AdminHandler groups the configuration and maintenance endpoints that
// only admins may call.
type AdminHandler struct {
	Maint *service.MaintenanceService
	Dists *repository.DistributorRepo
	Rules ticket.Rules
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(maint *service.MaintenanceService, dists *repository.DistributorRepo, rules ticket.Rules) *AdminHandler {
	if maint == nil || dists == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Maint: maint, Dists: dists, Rules: rules}
}

// CreateDistributor handles POST /v1/admin/distributors. The assigned
// range must sit inside the global ticket window.
func (h *AdminHandler) CreateDistributor(c echo.Context) error {
	var body struct {
		Name       string `json:"name"`
		StartRange int    `json:"start_range"`
		EndRange   int    `json:"end_range"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.StartRange < h.Rules.Min || body.EndRange > h.Rules.Max || body.EndRange < body.StartRange {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "range must lie within the ticket window"})
	}
	d := &model.Distributor{Name: body.Name, StartRange: body.StartRange, EndRange: body.EndRange}
	if err := h.Dists.Create(c.Request().Context(), d); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a distributor with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create distributor"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": d})
}

// DeleteDistributor handles DELETE /v1/admin/distributors/:id.
func (h *AdminHandler) DeleteDistributor(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid distributor id"})
	}
	if err := h.Dists.DeleteByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "distributor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// RebuildCounter handles POST /v1/admin/counter/rebuild and returns the
// recomputed count.
func (h *AdminHandler) RebuildCounter(c echo.Context) error {
	count, err := h.Maint.RebuildCounter(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "counter rebuild failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// CleanupClaims handles POST /v1/admin/claims/cleanup and reports how
// many orphaned claims were removed.
func (h *AdminHandler) CleanupClaims(c echo.Context) error {
	removed, err := h.Maint.CleanupOrphanClaims(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "claim cleanup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}

// Export handles GET /v1/admin/export, returning the full-dataset
// snapshot as one JSON document.
func (h *AdminHandler) Export(c echo.Context) error {
	snap, err := h.Maint.Export(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="registrations-export.json"`)
	return c.JSON(http.StatusOK, snap)
}

// Import handles POST /v1/admin/import. The body carries the snapshot
// plus the confirmation phrase; a wrong phrase aborts before any write.
func (h *AdminHandler) Import(c echo.Context) error {
	var body struct {
		Confirm  string           `json:"confirm"`
		Snapshot service.Snapshot `json:"snapshot"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Maint.Import(c.Request().Context(), body.Confirm, &body.Snapshot); err != nil {
		if errors.Is(err, service.ErrConfirmationRequired) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "type the confirmation phrase exactly to proceed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed, no data was changed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"restored_groups":       len(body.Snapshot.Groups),
		"restored_distributors": len(body.Snapshot.Distributors),
	})
}

// Reset handles POST /v1/admin/reset, deleting all registrations and
// claims and zeroing the counter. Distributors and accounts survive.
func (h *AdminHandler) Reset(c echo.Context) error {
	var body struct {
		Confirm string `json:"confirm"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Maint.Reset(c.Request().Context(), body.Confirm); err != nil {
		if errors.Is(err, service.ErrConfirmationRequired) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "type the confirmation phrase exactly to proceed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed, no data was changed"})
	}
	return c.NoContent(http.StatusNoContent)
}
