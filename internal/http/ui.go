package http

import (
	"bytes"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type (
	categoryView struct {
		core.CategoryAmount
		Width int
	}

	dayView struct {
		core.DayTotal
		Height int
	}

	budgetView struct {
		core.BudgetStatus
		// State is one of ok, warning, over.
		State string
	}

	dashboardView struct {
		Summary    core.Summary
		Categories []categoryView
		Daily      []dayView
		Budgets    []budgetView
		Empty      bool
	}

	listView struct {
		Transactions []core.Transaction
		Query        string
		Sort         string
		Dir          string
	}

	formView struct {
		Action      string
		Editing     bool
		Amount      string
		Date        string
		Category    string
		Description string
		Categories  []core.Category
		Error       string
	}

	pageView struct {
		Dashboard dashboardView
		List      listView
		Form      formView
	}
)

// barWidth scales value against max as a percentage, keeping non-zero
// values visible.
func barWidth(value, max int64) int {
	if max <= 0 || value <= 0 {
		return 0
	}
	w := int((value*100 + max/2) / max)
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}

func newDashboardView(d core.Dashboard) dashboardView {
	v := dashboardView{Summary: d.Summary, Empty: d.Summary.TransactionCount == 0}

	var maxCat, maxDay int64
	for _, c := range d.Categories {
		maxCat = max(maxCat, c.Value.Cents)
	}
	for _, day := range d.Daily {
		maxDay = max(maxDay, day.Total.Cents)
	}
	for _, c := range d.Categories {
		v.Categories = append(v.Categories, categoryView{CategoryAmount: c, Width: barWidth(c.Value.Cents, maxCat)})
	}
	for _, day := range d.Daily {
		v.Daily = append(v.Daily, dayView{DayTotal: day, Height: barWidth(day.Total.Cents, maxDay)})
	}
	for _, b := range d.Budgets {
		state := "ok"
		switch {
		case b.OverBudget():
			state = "over"
		case b.NearLimit():
			state = "warning"
		}
		v.Budgets = append(v.Budgets, budgetView{BudgetStatus: b, State: state})
	}
	return v
}

func newFormView() formView {
	return formView{
		Action:     "/ui/transactions",
		Date:       core.Today().String(),
		Categories: core.Categories(),
	}
}

func editFormView(t core.Transaction) formView {
	f := newFormView()
	f.Action = "/ui/transactions/" + t.ID
	f.Editing = true
	f.Amount = t.Amount.String()
	f.Date = t.Date.String()
	f.Category = string(t.Category)
	f.Description = t.Description
	return f
}

// formFromRequest echoes the submitted values back after a failed submit.
func formFromRequest(r *http.Request, action string, editing bool, err error) formView {
	f := newFormView()
	f.Action = action
	f.Editing = editing
	f.Amount = r.PostForm.Get("amount")
	f.Date = r.PostForm.Get("date")
	f.Category = r.PostForm.Get("category")
	f.Description = r.PostForm.Get("description")
	f.Error = err.Error()
	return f
}

func (s *Server) renderBytes(r *http.Request, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			"template", name, applog.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	body, err := s.renderBytes(r, name, data)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) listView(r *http.Request) (listView, error) {
	q, field, dir := listOptionsFrom(r)
	txs, err := s.tx.List(r.Context(), services.ListOptions{Query: q, Field: field, Direction: dir})
	if err != nil {
		return listView{}, err
	}
	return listView{Transactions: txs, Query: q, Sort: string(field), Dir: string(dir)}, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	d, err := s.dash.Dashboard(r.Context())
	if err != nil {
		s.uiError(w, r, err)
		return
	}
	list, err := s.listView(r)
	if err != nil {
		s.uiError(w, r, err)
		return
	}
	s.render(w, r, "index.html", pageView{
		Dashboard: newDashboardView(d),
		List:      list,
		Form:      newFormView(),
	})
}

func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	d, err := s.dash.Dashboard(r.Context())
	if err != nil {
		s.uiError(w, r, err)
		return
	}
	s.render(w, r, "dashboard", newDashboardView(d))
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	list, err := s.listView(r)
	if err != nil {
		s.uiError(w, r, err)
		return
	}
	s.render(w, r, "transactions", list)
}

func (s *Server) handleUINewForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "transaction_form", newFormView())
}

func (s *Server) handleUIEditForm(w http.ResponseWriter, r *http.Request) {
	t, err := s.tx.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.uiError(w, r, err)
		return
	}
	s.render(w, r, "transaction_form", editFormView(t))
}

func (s *Server) handleUICreate(w http.ResponseWriter, r *http.Request) {
	in, err := parseTransactionForm(w, r)
	if err == nil {
		var id string
		if id, err = s.tx.Create(r.Context(), in); err == nil {
			s.metrics.created.Add(1)
			s.formSuccess(w, r, EventTransactionCreated, id, "Transaction added")
			return
		}
	}
	s.formFailure(w, r, "/ui/transactions", false, err)
}

func (s *Server) handleUIUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, err := parseTransactionForm(w, r)
	if err == nil {
		if err = s.tx.Update(r.Context(), id, in); err == nil {
			s.metrics.updated.Add(1)
			s.formSuccess(w, r, EventTransactionUpdated, id, "Transaction updated")
			return
		}
	}
	s.formFailure(w, r, "/ui/transactions/"+id, true, err)
}

func (s *Server) handleUIDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.tx.Delete(r.Context(), id); err != nil {
		s.uiError(w, r, err)
		return
	}
	s.metrics.deleted.Add(1)
	NewHTMXResponse().
		TriggerTransactionChanged(EventTransactionDeleted, id).
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}

// formSuccess swaps a blank create form in and refreshes the dashboard.
func (s *Server) formSuccess(w http.ResponseWriter, r *http.Request, event, id, message string) {
	body, err := s.renderBytes(r, "transaction_form", newFormView())
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().
		TriggerTransactionChanged(event, id).
		TriggerFormReset().
		TriggerSuccessNotification(message).
		BodyHTML(string(body)).
		Write(w)
}

// formFailure re-renders the submitted form with the error for 4xx, or
// falls back to the generic error fragment.
func (s *Server) formFailure(w http.ResponseWriter, r *http.Request, action string, editing bool, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError || status == http.StatusNotFound {
		s.uiError(w, r, err)
		return
	}
	body, rerr := s.renderBytes(r, "transaction_form", formFromRequest(r, action, editing, err))
	if rerr != nil {
		ErrorResponse(status, err.Error()).Write(w)
		return
	}
	NewHTMXResponse().
		Status(status).
		TriggerErrorNotification(err.Error()).
		BodyHTML(string(body)).
		Write(w)
}

func (s *Server) uiError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		msg = "Something went wrong, please retry"
	case http.StatusNotFound:
		msg = "Transaction not found"
	}
	ErrorResponse(status, msg).Write(w)
}
