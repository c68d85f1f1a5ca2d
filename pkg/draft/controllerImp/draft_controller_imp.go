package controllerImp

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/draft/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
)

type DraftCtrl struct{ s service.DraftService }

func New(s service.DraftService) *DraftCtrl { return &DraftCtrl{s: s} }

func (h *DraftCtrl) Autosave(c echo.Context) error {
	var snap service.Snapshot
	if err := c.Bind(&snap); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	res, err := h.s.Autosave(c.Request().Context(), c.Param("key"), snap)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *DraftCtrl) Get(c echo.Context) error {
	snap, key, err := h.s.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"key": key, "draft": snap})
}

func (h *DraftCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Request().Context(), c.Param("key")); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DraftCtrl) NewPending(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]string{"key": h.s.NewPendingKey()})
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidKey):
		return apierr.BadRequest("invalid_key", err)
	case errors.Is(err, service.ErrNotFound):
		return apierr.NotFound("draft_not_found", err)
	case errors.Is(err, outline.ErrUnknownShape):
		return apierr.Unprocessable("outline.shape", err)
	}
	return err
}
