// Package health answers load-balancer probes at /health.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type Handler struct {
	Client Pinger
	Log    *zap.Logger
}

func NewHandler(client Pinger, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type check struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type report struct {
	Status string           `json:"status"`
	Checks map[string]check `json:"checks"`
}

// Serve pings the primary. 200 {"status":"ok"} when it answers, otherwise
// 503 {"status":"unavailable"}. Failure detail goes to the log only.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	start := time.Now()
	err := h.Client.Ping(ctx, readpref.Primary())
	db := check{Status: "up", LatencyMS: time.Since(start).Milliseconds()}

	rep := report{Status: "ok", Checks: map[string]check{"database": db}}
	code := http.StatusOK
	if err != nil {
		h.Log.Error("health: mongo ping failed", zap.Error(err))
		db.Status = "down"
		rep.Checks["database"] = db
		rep.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(rep)
}
