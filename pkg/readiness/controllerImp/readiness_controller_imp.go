package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/readiness"
)

type ReadinessCtrl struct{ threshold int }

func New(threshold int) *ReadinessCtrl { return &ReadinessCtrl{threshold: threshold} }

type computeReq struct {
	Metadata         readiness.Metadata          `json:"metadata"`
	Outline          *outline.Envelope           `json:"outline,omitempty"`
	TopicAssignments []readiness.TopicAssignment `json:"topicAssignments,omitempty"`
}

func (h *ReadinessCtrl) Compute(c echo.Context) error {
	var req computeReq
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	var o *outline.Outline
	if req.Outline != nil {
		var err error
		if o, err = outline.Normalize(*req.Outline); err != nil {
			return apierr.Unprocessable("outline.shape", err)
		}
	}
	return c.JSON(http.StatusOK, readiness.Compute(req.Metadata, o, req.TopicAssignments, h.threshold))
}
