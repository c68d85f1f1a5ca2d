package router

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

type stub struct{}

func (stub) h(c echo.Context) error { return c.NoContent(http.StatusTeapot) }

func (s stub) Generate(c echo.Context) error   { return s.h(c) }
func (s stub) Variants(c echo.Context) error   { return s.h(c) }
func (s stub) Validate(c echo.Context) error   { return s.h(c) }
func (s stub) Normalize(c echo.Context) error  { return s.h(c) }
func (s stub) Export(c echo.Context) error     { return s.h(c) }
func (s stub) List(c echo.Context) error       { return s.h(c) }
func (s stub) Suggest(c echo.Context) error    { return s.h(c) }
func (s stub) Ensure(c echo.Context) error     { return s.h(c) }
func (s stub) Import(c echo.Context) error     { return s.h(c) }
func (s stub) Compute(c echo.Context) error    { return s.h(c) }
func (s stub) Autosave(c echo.Context) error   { return s.h(c) }
func (s stub) Get(c echo.Context) error        { return s.h(c) }
func (s stub) Delete(c echo.Context) error     { return s.h(c) }
func (s stub) NewPending(c echo.Context) error { return s.h(c) }
func (s stub) Create(c echo.Context) error     { return s.h(c) }
func (s stub) Publish(c echo.Context) error    { return s.h(c) }
func (s stub) IngestText(c echo.Context) error { return s.h(c) }
func (s stub) IngestURL(c echo.Context) error  { return s.h(c) }
func (s stub) Search(c echo.Context) error     { return s.h(c) }
func (s stub) ListDocs(c echo.Context) error   { return s.h(c) }
func (s stub) Health(c echo.Context) error     { return s.h(c) }

func TestRoutesRegistered(t *testing.T) {
	s := stub{}
	e := New(echo.New(), s, s, s, s, s, s, s)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /outlines/generate", "POST /outlines/variants", "POST /outlines/validate",
		"POST /outlines/normalize", "POST /outlines/export",
		"GET /topics", "POST /topics/suggest", "POST /topics/ensure", "POST /topics/import",
		"POST /readiness",
		"POST /drafts/pending", "PUT /drafts/:key", "GET /drafts/:key", "DELETE /drafts/:key",
		"POST /sessions", "GET /sessions/:id", "POST /sessions/:id/publish", "GET /sessions/:id/export.xlsx",
		"POST /kb/ingest", "POST /kb/ingest/url", "GET /kb/search", "GET /kb/docs",
		"GET /health",
	} {
		if !have[want] {
			t.Fatalf("route missing: %s", want)
		}
	}
}
