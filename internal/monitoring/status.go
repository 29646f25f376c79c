package monitoring

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ducminhle1904/polymarket-risk/internal/risk"
)

// Risk statuses reported by StatusHandler.
const (
	StatusTrading = "trading"
	StatusPaused  = "paused"
	StatusHalted  = "halted"
)

// SnapshotSource supplies the risk state to report. *risk.Manager satisfies
// it.
type SnapshotSource interface {
	Snapshot() risk.Snapshot
}

// StatusHandler serves the read-only risk snapshot as JSON.
type StatusHandler struct {
	source    SnapshotSource
	startTime time.Time
	now       func() time.Time
}

type StatusResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Risk      risk.Snapshot `json:"risk"`
}

func NewStatusHandler(source SnapshotSource, now func() time.Time) *StatusHandler {
	if now == nil {
		now = time.Now
	}
	return &StatusHandler{
		source:    source,
		startTime: now(),
		now:       now,
	}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Snapshot()

	status := StatusTrading
	switch {
	case snap.Halted:
		status = StatusHalted
	case snap.Paused:
		status = StatusPaused
	}

	now := h.now()
	resp := StatusResponse{
		Status:    status,
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.startTime).String(),
		Risk:      snap,
	}

	w.Header().Set("Content-Type", "application/json")
	if status == StatusHalted {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
