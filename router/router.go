package router

import (
	"github.com/labstack/echo/v4"
)

func New(
	e *echo.Echo,
	genCtrl interface {
		Generate(echo.Context) error
		Variants(echo.Context) error
		Validate(echo.Context) error
		Normalize(echo.Context) error
		Export(echo.Context) error
	},
	topicCtrl interface {
		List(echo.Context) error
		Suggest(echo.Context) error
		Ensure(echo.Context) error
		Import(echo.Context) error
	},
	readinessCtrl interface{ Compute(echo.Context) error },
	draftCtrl interface {
		Autosave(echo.Context) error
		Get(echo.Context) error
		Delete(echo.Context) error
		NewPending(echo.Context) error
	},
	sessionCtrl interface {
		Create(echo.Context) error
		Get(echo.Context) error
		Publish(echo.Context) error
		Export(echo.Context) error
	},
	kbCtrl interface {
		IngestText(echo.Context) error
		IngestURL(echo.Context) error
		Search(echo.Context) error
		ListDocs(echo.Context) error
	},
	healthCtrl interface{ Health(echo.Context) error },
) *echo.Echo {
	e.GET("/health", healthCtrl.Health)

	o := e.Group("/outlines")
	o.POST("/generate", genCtrl.Generate)
	o.POST("/variants", genCtrl.Variants)
	o.POST("/validate", genCtrl.Validate)
	o.POST("/normalize", genCtrl.Normalize)
	o.POST("/export", genCtrl.Export)

	e.GET("/topics", topicCtrl.List)
	e.POST("/topics/suggest", topicCtrl.Suggest)
	e.POST("/topics/ensure", topicCtrl.Ensure)
	e.POST("/topics/import", topicCtrl.Import)

	e.POST("/readiness", readinessCtrl.Compute)

	e.POST("/drafts/pending", draftCtrl.NewPending)
	e.PUT("/drafts/:key", draftCtrl.Autosave)
	e.GET("/drafts/:key", draftCtrl.Get)
	e.DELETE("/drafts/:key", draftCtrl.Delete)

	e.POST("/sessions", sessionCtrl.Create)
	e.GET("/sessions/:id", sessionCtrl.Get)
	e.POST("/sessions/:id/publish", sessionCtrl.Publish)
	e.GET("/sessions/:id/export.xlsx", sessionCtrl.Export)

	// KB endpoints
	e.POST("/kb/ingest", kbCtrl.IngestText)
	e.POST("/kb/ingest/url", kbCtrl.IngestURL)
	e.GET("/kb/search", kbCtrl.Search)
	e.GET("/kb/docs", kbCtrl.ListDocs)
	return e
}
