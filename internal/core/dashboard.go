package core

// Dashboard bundles every view model the dashboard page renders.
type Dashboard struct {
	Summary    Summary           `json:"summary"`
	Categories []CategoryAmount  `json:"categories"`
	Daily      []DayTotal        `json:"daily"`
	Budgets    []BudgetStatus    `json:"budgets"`
	Colors     map[string]string `json:"colors"`
}

// BuildDashboard runs every aggregation over the same snapshot.
func BuildDashboard(txs []Transaction, budgets Budgets, today Date) Dashboard {
	d := Dashboard{
		Summary:    ComputeSummary(txs, today),
		Categories: GroupByCategory(txs),
		Daily:      GroupByDay(txs),
		Budgets:    ComputeBudgetComparison(txs, budgets),
		Colors:     make(map[string]string, len(categories)+1),
	}
	for _, c := range categories {
		d.Colors[string(c)] = CategoryColor(c)
	}
	d.Colors[string(Unknown)] = CategoryColor(Unknown)
	return d
}
