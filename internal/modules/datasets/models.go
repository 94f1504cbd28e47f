// Package datasets manages the imported historical financials: monthly P&L
// rows and the cohort revenue matrix, plus the derived series consumed by the
// prediction and retention modules.
package datasets

// PnLRow is one month of the stored profit and loss statement.
// Money fields are parsed floats; SMRecorded tracks whether the raw S&M cell
// held a usable value, since only recorded spend enters the historical series.
type PnLRow struct {
	Month       string  `json:"month"`
	Revenue     float64 `json:"revenue"`
	COGS        float64 `json:"cogs"`
	GrossProfit float64 `json:"grossProfit"`
	Opex        float64 `json:"opex"`
	SM          float64 `json:"sm"`
	SMRecorded  bool    `json:"smRecorded"`
	RD          float64 `json:"rd"`
	GA          float64 `json:"ga"`
	EBITDA      float64 `json:"ebitda"`
	Taxes       float64 `json:"taxes"`
	Interest    float64 `json:"interest"`
	DA          float64 `json:"da"`
	NetIncome   float64 `json:"netIncome"`
}

// PnLRowInput is one incoming P&L row with raw string-valued money cells,
// exactly as exported from the source spreadsheet.
type PnLRowInput struct {
	Month       string `json:"month"`
	Revenue     string `json:"revenue"`
	COGS        string `json:"cogs"`
	GrossProfit string `json:"grossProfit"`
	Opex        string `json:"opex"`
	SM          string `json:"sm"`
	RD          string `json:"rd"`
	GA          string `json:"ga"`
	EBITDA      string `json:"ebitda"`
	Taxes       string `json:"taxes"`
	Interest    string `json:"interest"`
	DA          string `json:"da"`
	NetIncome   string `json:"netIncome"`
}

// CohortRow is one cohort's monthly revenue series. The name is the cohort's
// first-active month label ("January 2024"), except for the aggregate
// "Older Cohorts" row. Revenue[0] is the cohort's first-month revenue.
type CohortRow struct {
	Name    string    `json:"name"`
	Revenue []float64 `json:"revenue"`
}

// CohortRowInput is one incoming cohort row with raw revenue cells.
type CohortRowInput struct {
	Name    string   `json:"name"`
	Revenue []string `json:"revenue"`
}

// SMEntry is one extracted month of S&M spend
type SMEntry struct {
	Month string  `json:"month"`
	SM    float64 `json:"sm"`
}

// ImportWarning records a cell that could not be parsed during import.
// Warnings are data, not errors: the import proceeds with the value coerced
// to zero.
type ImportWarning struct {
	Dataset string `json:"dataset"`
	Row     string `json:"row"`
	Field   string `json:"field"`
	Raw     string `json:"raw"`
}

// ImportResult summarizes one completed import
type ImportResult struct {
	Dataset  string          `json:"dataset"`
	Imported int             `json:"imported"`
	Warnings []ImportWarning `json:"warnings"`
}

// ImportMeta records when a dataset was last imported and how many rows it holds
type ImportMeta struct {
	Dataset    string `json:"dataset"`
	ImportedAt string `json:"importedAt"`
	RowCount   int    `json:"rowCount"`
}

// HistoricalSeries is the spend and revenue history consumed by the ratio
// model, keyed by normalized month label. Spend comes from P&L months with a
// recorded S&M value; revenue comes from each cohort's first-month revenue,
// excluding the aggregate "Older Cohorts" row. Both maps are sparse.
type HistoricalSeries struct {
	Spend   map[string]float64
	Revenue map[string]float64
}

// Months returns the union of spend and revenue months in chronological order
func (s *HistoricalSeries) Months() []string {
	seen := make(map[string]bool, len(s.Spend)+len(s.Revenue))
	for month := range s.Spend {
		seen[month] = true
	}
	for month := range s.Revenue {
		seen[month] = true
	}

	months := make([]string, 0, len(seen))
	for month := range seen {
		months = append(months, month)
	}
	SortMonthLabels(months)
	return months
}

// olderCohortsName is the reserved name of the aggregate pre-history cohort
// row. It contributes to retention but never to the month-revenue series.
const olderCohortsName = "Older Cohorts"
