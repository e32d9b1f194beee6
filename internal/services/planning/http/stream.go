package http

import (
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"time"

	"transitplan/internal/modkit/httpkit"
	"transitplan/internal/platform/logger"
	phttp "transitplan/internal/platform/net/http"
	"transitplan/internal/platform/net/http/bind"
	"transitplan/internal/services/planning/domain"
	svc "transitplan/internal/services/planning/service"
)

// streamer serves the monthly pipeline as server sent events
//
// A client that goes away stops the writes here only; the run keeps going.
type streamer struct {
	svc       svc.Service
	heartbeat time.Duration
}

// @Summary Expand and commit a monthly pattern with progress events
// @Tags Planning
// @Produce text/event-stream
// @Param month query int true "Month"
// @Param year query int true "Year"
// @Param lineId query string true "Line"
// @Param dutyName query string true "Duty"
// @Param shiftNumber query int true "Shift"
// @Param driverId query int true "Driver"
// @Param includedWeekdays query string true "Comma separated weekday codes, 0 is Sunday"
// @Param excludedWeekdays query string false "Comma separated weekday codes"
// @Param conflictResolution query string false "skip or overwrite"
// @Param saturdayDutyName query string false "Saturday duty"
// @Param sundayDutyName query string false "Sunday duty"
// @Param sessionId query string false "Driver selection session"
// @Router /planning/monthly-schedule-stream [get]
func (s *streamer) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	in, err := bind.ParseQuery[domain.MonthlyInput](r)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	flusher, ok := w.(stdhttp.Flusher)
	if !ok {
		phttp.RespondError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	stream, err := s.svc.StartMonthly(r.Context(), in, httpkit.Actor(r))
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)
	flusher.Flush()

	log := logger.C(r.Context())
	var tick <-chan time.Time
	if s.heartbeat > 0 {
		t := time.NewTicker(s.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("progress stream closed by client")
			return
		case <-tick:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				log.Warn().Err(err).Msg("progress stream heartbeat failed")
				return
			}
			flusher.Flush()
		case ev, open := <-stream.Events():
			if !open {
				return
			}
			name, body := domain.Frame(ev)
			if err := sendEvent(w, flusher, name, body); err != nil {
				log.Warn().Err(err).Str("run", ev.RunID).Msg("progress stream write failed")
				return
			}
			if ev.Terminal() {
				return
			}
		}
	}
}

func sendEvent(w stdhttp.ResponseWriter, flusher stdhttp.Flusher, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
