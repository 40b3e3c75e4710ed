package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jc9677/budget-app-2/internal/core"
	"github.com/jc9677/budget-app-2/internal/exchange"
	applog "github.com/jc9677/budget-app-2/internal/log"
)

func (s *Server) todayDate() core.Date {
	return core.DateOf(s.today())
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode, err := ParseMode(query)
	if err != nil {
		writeServiceError(w, r, applog.OpForecast, err)
		return
	}
	win, err := ParseWindow(query, s.todayDate(), s.horizonDays)
	if err != nil {
		writeServiceError(w, r, applog.OpForecast, err)
		return
	}

	f, err := s.deps.Forecast.ComputeForecast(r.Context(), win.From, win.To, mode)
	if err != nil {
		writeServiceError(w, r, applog.OpForecast, err)
		return
	}
	writeJSON(w, http.StatusOK, NewForecastResponse(f))
}

func (s *Server) handleListOccurrences(w http.ResponseWriter, r *http.Request) {
	win, err := ParseWindow(r.URL.Query(), s.todayDate(), s.horizonDays)
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	occs, err := s.deps.Budget.ListOccurrences(r.Context(), win.From, win.To)
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	out := make([]occurrenceDTO, 0, len(occs))
	for _, o := range occs {
		out = append(out, toOccurrenceDTO(o.Occurrence, o.AccountName))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleEditOccurrence edits the occurrence of a rule on ?date. Only
// scope=future is persisted, and it rewrites the whole rule.
func (s *Server) handleEditOccurrence(w http.ResponseWriter, r *http.Request) {
	date, scope, err := ParseOccurrenceTarget(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	var body occurrencePatchBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}

	rule, err := s.deps.Budget.EditOccurrence(r.Context(), chi.URLParam(r, "baseId"), date, body.toPatch(), scope)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, exchange.TransactionToRecord(rule))
}
