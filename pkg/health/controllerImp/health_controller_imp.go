package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var appStart = time.Now()

type HealthCtrl struct {
	db  *gorm.DB
	rdb *goredis.Client
}

// NewHealthCtrl checks the database and, when rdb is non-nil, redis.
func NewHealthCtrl(db *gorm.DB, rdb *goredis.Client) *HealthCtrl { return &HealthCtrl{db: db, rdb: rdb} }

type sub struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	checks := map[string]sub{"database": h.pingDB(ctx)}
	if h.rdb != nil {
		checks["redis"] = h.pingRedis(ctx)
	}

	allOK := true
	for _, s := range checks {
		allOK = allOK && s.OK
	}
	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": allOK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks":     checks,
		"time":       time.Now().Format(time.RFC3339),
	}
	return c.JSON(status, resp)
}

func (h *HealthCtrl) pingDB(ctx context.Context) sub {
	if h.db == nil {
		return sub{Err: "gorm db is nil"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return sub{Err: "db.DB(): " + err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return sub{Err: "ping: " + err.Error()}
	}
	return sub{OK: true}
}

func (h *HealthCtrl) pingRedis(ctx context.Context) sub {
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		return sub{Err: "redis ping: " + err.Error()}
	}
	return sub{OK: true}
}
