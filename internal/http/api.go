package http

import (
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// transactionDTO is the JSON shape of a stored transaction.
type transactionDTO struct {
	ID          string     `json:"id"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

func toDTO(t core.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		Amount:      t.Amount,
		Date:        t.Date,
		Category:    string(t.Category),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if !t.UpdatedAt.IsZero() {
		u := t.UpdatedAt
		dto.UpdatedAt = &u
	}
	return dto
}

type categoryDTO struct {
	Name   core.Category `json:"name"`
	Color  string        `json:"color"`
	Budget *core.Money   `json:"budget,omitempty"`
}

// statusFor maps service errors onto the one failure shape clients see.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		msg = "internal error"
	case http.StatusNotFound:
		msg = core.ErrNotFound.Error()
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, field, dir := listOptionsFrom(r)
	txs, err := s.tx.List(r.Context(), services.ListOptions{Query: q, Field: field, Direction: dir})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.tx.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTransactionJSON(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.tx.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.created.Add(1)
	w.Header().Set("Location", "/api/transactions/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, err := decodeTransactionJSON(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tx.Update(r.Context(), id, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.updated.Add(1)
	t, err := s.tx.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.tx.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.deleted.Add(1)
	w.WriteHeader(http.StatusNoContent)
}

// dashboardJSON serves one projection of the cached dashboard.
func (s *Server) dashboardJSON(pick func(core.Dashboard) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.dash.Dashboard(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pick(d))
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.dashboardJSON(func(d core.Dashboard) any { return d })(w, r)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.dashboardJSON(func(d core.Dashboard) any { return d.Summary })(w, r)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	s.dashboardJSON(func(d core.Dashboard) any { return d.Categories })(w, r)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	s.dashboardJSON(func(d core.Dashboard) any { return d.Daily })(w, r)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	s.dashboardJSON(func(d core.Dashboard) any { return d.Budgets })(w, r)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	budgets := s.dash.Budgets()
	out := make([]categoryDTO, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		dto := categoryDTO{Name: c, Color: core.CategoryColor(c)}
		if limit, ok := budgets.Limit(c); ok {
			dto.Budget = &limit
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}
