package controllerImp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/advisorpages/trainingBuilder-sub002/database"
)

func get(t *testing.T, h *HealthCtrl) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	e.GET("/health", h.Health)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestHealthDatabaseOnly(t *testing.T) {
	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	rec, body := get(t, NewHealthCtrl(db, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d %s", rec.Code, rec.Body.String())
	}
	checks := body["checks"].(map[string]any)
	if _, ok := checks["redis"]; ok {
		t.Fatalf("redis check must be absent without a client")
	}
}

func TestHealthUnreachableRedis(t *testing.T) {
	db, _ := database.OpenInMemory()
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer rdb.Close()
	rec, _ := get(t, NewHealthCtrl(db, rdb))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
}

func TestHealthNilDB(t *testing.T) {
	rec, _ := get(t, NewHealthCtrl(nil, nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
}
