// Package seed generates demo transactions.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/bxcodec/faker/v3"

	"fintrack/internal/core"
	"fintrack/internal/gateway"
)

// amountRange is the cents range drawn per category.
var amountRange = map[core.Category][2]int64{
	core.Food:           {300, 8000},
	core.Transportation: {150, 6000},
	core.Utilities:      {2000, 15000},
	core.Entertainment:  {500, 7000},
	core.Shopping:       {1000, 20000},
	core.Health:         {800, 12000},
	core.Education:      {1500, 25000},
	core.Other:          {100, 5000},
}

type Generator struct {
	rng   *rand.Rand
	today core.Date
	days  int
}

// NewGenerator draws dates from the days before today (inclusive).
func NewGenerator(seed int64, today core.Date, days int) *Generator {
	if days < 1 {
		days = 1
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), today: today, days: days}
}

// Input returns one transaction that passes strict validation.
func (g *Generator) Input() core.TransactionInput {
	cats := core.Categories()
	cat := cats[g.rng.Intn(len(cats))]
	r := amountRange[cat]
	return core.TransactionInput{
		Amount:      core.Money{Cents: r[0] + g.rng.Int63n(r[1]-r[0]+1)},
		Date:        core.DateOf(g.today.AddDate(0, 0, -g.rng.Intn(g.days))),
		Category:    cat,
		Description: description(),
	}
}

func (g *Generator) Inputs(n int) []core.TransactionInput {
	out := make([]core.TransactionInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Input())
	}
	return out
}

func description() string {
	s := strings.TrimSpace(strings.TrimSuffix(faker.Sentence(), "."))
	if s == "" {
		s = faker.Word()
	}
	if s == "" {
		s = "Demo purchase"
	}
	if len(s) > core.MaxDescriptionLength {
		s = strings.TrimSpace(strings.ToValidUTF8(s[:core.MaxDescriptionLength], ""))
	}
	return s
}

// Seed writes n generated transactions and returns their ids. It stops at
// the first store error.
func Seed(ctx context.Context, w gateway.TransactionWriter, g *Generator, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i, in := range g.Inputs(n) {
		id, err := w.CreateTransaction(ctx, in)
		if err != nil {
			return ids, fmt.Errorf("seed transaction %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
