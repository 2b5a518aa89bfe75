package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// errMalformedBody marks requests whose body could not be decoded at all.
var errMalformedBody = errors.New("malformed request body")

// transactionRequest is the JSON payload for create and update. Amount may be
// a number or a decimal string.
type transactionRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

func decodeTransactionJSON(w http.ResponseWriter, r *http.Request) (core.TransactionInput, error) {
	var req transactionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return core.TransactionInput{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return buildInput(strings.Trim(string(req.Amount), `"`), req.Date, req.Category, req.Description)
}

func parseTransactionForm(w http.ResponseWriter, r *http.Request) (core.TransactionInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return core.TransactionInput{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return buildInput(r.PostForm.Get("amount"), r.PostForm.Get("date"), r.PostForm.Get("category"), r.PostForm.Get("description"))
}

// buildInput converts raw fields. Field-level failures wrap core.ErrValidation.
func buildInput(amount, date, category, description string) (core.TransactionInput, error) {
	m, err := core.ParseAmount(amount)
	if err != nil {
		return core.TransactionInput{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		Amount:      m,
		Date:        d,
		Category:    core.ParseCategory(sanitizeInput(category)),
		Description: sanitizeInput(description),
	}, nil
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func listOptionsFrom(r *http.Request) (query string, field core.SortField, dir core.SortDirection) {
	q := r.URL.Query()
	query = sanitizeInput(q.Get("q"))
	if s := q.Get("sort"); s != "" {
		field = core.ParseSortField(s)
		dir = core.ParseSortDirection(q.Get("dir"))
	}
	return query, field, dir
}
