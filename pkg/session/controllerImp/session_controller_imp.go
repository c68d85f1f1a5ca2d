package controllerImp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	draftservice "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/export"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/session/service"
)

type SessionCtrl struct{ s service.SessionService }

func New(s service.SessionService) *SessionCtrl { return &SessionCtrl{s: s} }

type createReq struct {
	DraftKey string `json:"draftKey"`
}

func (h *SessionCtrl) Create(c echo.Context) error {
	var req createReq
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	if req.DraftKey == "" {
		return apierr.Unprocessable("draftKey", errors.New("draftKey is required"))
	}
	res, err := h.s.CreateFromDraft(c.Request().Context(), req.DraftKey)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *SessionCtrl) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sess, err := h.s.Get(c.Request().Context(), id)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionCtrl) Publish(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	res, err := h.s.Publish(c.Request().Context(), id)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *SessionCtrl) Export(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sess, err := h.s.Get(c.Request().Context(), id)
	if err != nil {
		return mapErr(err)
	}
	if sess.Outline == nil {
		return apierr.Unprocessable("outline", fmt.Errorf("session %d has no outline", id))
	}
	data, err := export.Bytes(sess.Outline, sess.Title)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(sess.Title)+`"`)
	return c.Blob(http.StatusOK, export.ContentType, data)
}

func parseID(c echo.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || n == 0 {
		return 0, apierr.BadRequest("invalid_id", fmt.Errorf("invalid session id %q", c.Param("id")))
	}
	return uint(n), nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return apierr.NotFound("session_not_found", err)
	case errors.Is(err, draftservice.ErrNotFound):
		return apierr.NotFound("draft_not_found", err)
	case errors.Is(err, draftservice.ErrInvalidKey):
		return apierr.BadRequest("invalid_key", err)
	case errors.Is(err, service.ErrNotPending):
		return apierr.New(http.StatusConflict, "draft_not_pending", err)
	}
	return err
}
