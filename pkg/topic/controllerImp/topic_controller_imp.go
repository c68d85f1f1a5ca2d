package controllerImp

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/brief"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/importer"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/service"
)

type TopicCtrl struct{ s service.TopicService }

func New(s service.TopicService) *TopicCtrl { return &TopicCtrl{s: s} }

func (h *TopicCtrl) List(c echo.Context) error {
	topics, err := h.s.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"topics": topics})
}

func (h *TopicCtrl) Suggest(c echo.Context) error {
	var b brief.Brief
	if err := c.Bind(&b); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	matches, err := h.s.SuggestTopics(c.Request().Context(), b)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"matches": matches})
}

type ensureReq struct {
	Outline  outline.Envelope `json:"outline"`
	Category string           `json:"category"`
}

func (h *TopicCtrl) Ensure(c echo.Context) error {
	var req ensureReq
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	o, err := outline.Normalize(req.Outline)
	if err != nil {
		if errors.Is(err, outline.ErrUnknownShape) {
			return apierr.Unprocessable("outline.shape", err)
		}
		return apierr.Unprocessable("outline", err)
	}
	report, err := h.s.EnsureTopicsFromOutline(c.Request().Context(), o, req.Category)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// Import accepts a multipart "file" holding a CSV or XLSX topic catalog.
func (h *TopicCtrl) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apierr.BadRequest("missing_file", err)
	}
	f, err := fh.Open()
	if err != nil {
		return apierr.BadRequest("unreadable_file", err)
	}
	defer f.Close()
	rows, err := importer.Parse(f, filepath.Ext(fh.Filename))
	if err != nil {
		return apierr.Unprocessable("file", err)
	}
	report, err := h.s.ImportCatalog(c.Request().Context(), rows)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
