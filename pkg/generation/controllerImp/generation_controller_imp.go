package controllerImp

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/export"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/generation/service"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
)

type GenerationCtrl struct{ s service.GenerationService }

func New(s service.GenerationService) *GenerationCtrl { return &GenerationCtrl{s: s} }

type generateReq struct {
	Brief brief.Brief `json:"brief"`
	service.GenerateOptions
}

func (h *GenerationCtrl) Generate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	res, err := h.s.GenerateOutline(c.Request().Context(), req.Brief, req.GenerateOptions)
	if err != nil {
		return briefErr(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *GenerationCtrl) Variants(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	res, err := h.s.GenerateVariants(c.Request().Context(), req.Brief, req.GenerateOptions)
	if err != nil {
		return briefErr(err)
	}
	return c.JSON(http.StatusOK, res)
}

// Validate reports outline invariant violations. An invalid outline is a
// normal 200 result; only an unreadable envelope is an error.
func (h *GenerationCtrl) Validate(c echo.Context) error {
	o, err := bindEnvelope(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outline.Check(o))
}

func (h *GenerationCtrl) Normalize(c echo.Context) error {
	o, err := bindEnvelope(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"outline": o})
}

// exportReq is an envelope plus an optional sheet title.
type exportReq struct {
	outline.Envelope
	Title string `json:"title,omitempty"`
}

func (h *GenerationCtrl) Export(c echo.Context) error {
	var req exportReq
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	o, err := normalize(req.Envelope)
	if err != nil {
		return err
	}
	if errs := outline.Validate(o); len(errs) > 0 {
		return apierr.Unprocessable("outline."+errs[0].Field, errs[0])
	}
	title := req.Title
	if title == "" {
		title = o.SuggestedTitle
	}
	data, err := export.Bytes(o, title)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(title)+`"`)
	return c.Blob(http.StatusOK, export.ContentType, data)
}

func bindEnvelope(c echo.Context) (*outline.Outline, error) {
	var env outline.Envelope
	if err := c.Bind(&env); err != nil {
		return nil, apierr.BadRequest("invalid_json", err)
	}
	return normalize(env)
}

func normalize(env outline.Envelope) (*outline.Outline, error) {
	o, err := outline.Normalize(env)
	if err != nil {
		return nil, apierr.Unprocessable("outline.shape", err)
	}
	return o, nil
}

func briefErr(err error) error {
	var ve *brief.ValidationError
	if errors.As(err, &ve) {
		return apierr.Unprocessable("brief."+ve.Field, err)
	}
	return err
}
