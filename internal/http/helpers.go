package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"registro/attendance/internal/model"
)

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_http_requests_total",
	Help: "Handled HTTP requests by route, method and status.",
}, []string{"route", "method", "status"})

func init() {
	prometheus.MustRegister(requestsTotal)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// parseYearMonth reads the optional year/month query pair. present reports
// whether the caller supplied either param; a supplied but malformed pair
// comes back with ok false so the handler can reject it instead of silently
// falling back to the current month.
func parseYearMonth(r *http.Request) (year int, month time.Month, present, ok bool) {
	yearRaw := r.URL.Query().Get("year")
	monthRaw := r.URL.Query().Get("month")
	if yearRaw == "" && monthRaw == "" {
		return 0, 0, false, false
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return 0, 0, true, false
	}
	monthNum, err := strconv.Atoi(monthRaw)
	if err != nil || monthNum < 1 || monthNum > 12 {
		return 0, 0, true, false
	}
	return year, time.Month(monthNum), true, true
}

func parseReportQuery(w http.ResponseWriter, r *http.Request) (model.ReportQuery, bool) {
	rangeKind, ok := model.ParseRange(r.URL.Query().Get("range"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_range")
		return model.ReportQuery{}, false
	}
	startRaw := r.URL.Query().Get("start")
	if startRaw == "" {
		writeError(w, http.StatusBadRequest, "missing_start")
		return model.ReportQuery{}, false
	}
	start, err := time.Parse(model.DayFormat, startRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return model.ReportQuery{}, false
	}
	query := model.ReportQuery{Range: rangeKind, Start: start}
	if endRaw := r.URL.Query().Get("end"); endRaw != "" {
		end, err := time.Parse(model.DayFormat, endRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return model.ReportQuery{}, false
		}
		query.End = end
	}
	if rangeKind == model.RangeCustom && query.End.IsZero() {
		writeError(w, http.StatusBadRequest, "missing_end")
		return model.ReportQuery{}, false
	}
	return query, true
}

func sortedPersonIDs[S model.Status](entries map[string]model.Observation[S]) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func formatDates(dates []time.Time) []string {
	formatted := make([]string, 0, len(dates))
	for _, date := range dates {
		formatted = append(formatted, date.Format(model.DayFormat))
	}
	return formatted
}
