package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/bootstrap/logging"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/errs"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/httpapi/views"
	"github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/ports"
	trafficuc "github.com/tracecapel/North-Carolina-Bike-and-Pedestrian-Visualization/internal/usecase/traffic"
)

type handlers struct {
	svc *trafficuc.Service
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "NC COAST API is running",
	})
}

func (h *handlers) listCounters(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Counters(r.Context())
	if err != nil {
		logging.Error(r.Context(), "list counters failed", slog.Any("err", errs.Loggable(err)))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) listDatastreams(w http.ResponseWriter, r *http.Request) {
	counterID, ok := pathID(w, r, "counterID")
	if !ok {
		return
	}

	items, err := h.svc.DatastreamsForCounter(r.Context(), counterID)
	if err != nil {
		if errors.Is(err, ports.ErrCounterNotFound) {
			writeError(w, http.StatusNotFound, "Counter not found.")
			return
		}
		logging.Error(r.Context(), "list datastreams failed",
			slog.Int64("counter_id", counterID),
			slog.Any("err", errs.Loggable(err)),
		)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) listCounts(w http.ResponseWriter, r *http.Request) {
	datastreamID, ok := pathID(w, r, "datastreamID")
	if !ok {
		return
	}

	items, err := h.svc.CountsForDatastream(r.Context(), datastreamID)
	if err != nil {
		if errors.Is(err, ports.ErrDatastreamNotFound) {
			writeError(w, http.StatusNotFound, "Datastream not found.")
			return
		}
		logging.Error(r.Context(), "list counts failed",
			slog.Int64("datastream_id", datastreamID),
			slog.Any("err", errs.Loggable(err)),
		)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderHome(w); err != nil {
		logging.Error(r.Context(), "home render failed", slog.Any("err", errs.Loggable(err)))
		writeError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderDashboard(w); err != nil {
		logging.Error(r.Context(), "dashboard render failed", slog.Any("err", errs.Loggable(err)))
		writeError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q: expected integer", param, raw))
		return 0, false
	}
	return id, true
}
