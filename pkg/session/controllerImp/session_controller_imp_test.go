package controllerImp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/advisorpages/trainingBuilder-sub002/database"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	draftrepo "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/repositoryImp"
	draftservice "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/service"
	draftsvc "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/serviceImp"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/export"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/outline"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/readiness"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/session/repositoryImp"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/session/serviceImp"
)

func newServer(t *testing.T) (*echo.Echo, draftservice.DraftService) {
	t.Helper()
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	repo := repositoryImp.New(db)
	drafts := draftsvc.New(draftrepo.NewGorm(db), repo, 90, nil)
	h := New(serviceImp.New(repo, drafts, nil, 90, nil))
	e := echo.New()
	e.HTTPErrorHandler = apierr.Handler(e)
	e.POST("/sessions", h.Create)
	e.GET("/sessions/:id", h.Get)
	e.POST("/sessions/:id/publish", h.Publish)
	e.GET("/sessions/:id/export.xlsx", h.Export)
	return e, drafts
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreatePublishExport(t *testing.T) {
	e, drafts := newServer(t)
	o := &outline.Outline{Sections: []outline.Section{
		{ID: "o", Type: outline.KindOpener, Title: "Welcome", Duration: 15, Description: "Scene", Payload: outline.OpenerPayload{}},
		{ID: "c", Type: outline.KindClosing, Title: "Wrap", Duration: 30, Description: "Commit", Payload: outline.ClosingPayload{}},
	}}
	o.Finalize()
	env := outline.Flexible(o)
	key := drafts.NewPendingKey()
	if _, err := drafts.Autosave(context.Background(), key, draftservice.Snapshot{
		Metadata: readiness.Metadata{Title: "Quick Sync", DesiredOutcome: "Aligned team"},
		Outline:  &env,
	}); err != nil {
		t.Fatalf("autosave: %v", err)
	}

	rec := do(e, http.MethodPost, "/sessions", `{"draftKey":"`+key+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Session struct{ ID uint }
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	id := strconv.FormatUint(uint64(created.Session.ID), 10)

	rec = do(e, http.MethodPost, "/sessions/"+id+"/publish", "")
	var pub struct {
		Published bool
		Readiness readiness.Score
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &pub)
	if rec.Code != http.StatusOK || pub.Published || len(pub.Readiness.Recommendations) == 0 {
		t.Fatalf("no schedule means no publish: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/sessions/"+id+"/export.xlsx", "")
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != export.ContentType {
		t.Fatalf("export: %d %s", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(export.SheetName, "A1"); v != "Quick Sync" {
		t.Fatalf("sheet title: %q", v)
	}
}

func TestSessionErrors(t *testing.T) {
	e, _ := newServer(t)
	if rec := do(e, http.MethodGet, "/sessions/99", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: want=404 got=%d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/sessions/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: want=400 got=%d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/sessions", `{"draftKey":"pending:nope"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing draft: want=404 got=%d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/sessions", `{}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("no key: want=422 got=%d", rec.Code)
	}
}
