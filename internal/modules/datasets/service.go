package datasets

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/internal/events"
	"github.com/fathomcap/underwriter/internal/utils"
)

// Service performs dataset imports and derives the series consumed by the
// prediction and retention modules.
type Service struct {
	repo   *Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewService creates a new datasets service
func NewService(repo *Repository, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: eventManager,
		log:    log.With().Str("service", "datasets").Logger(),
	}
}

// ImportPnL parses and stores a full P&L dataset, replacing the previous one.
// Money cells that fail to parse coerce to 0 and record a warning; the import
// itself never aborts on bad cell values.
func (s *Service) ImportPnL(inputs []PnLRowInput) (*ImportResult, error) {
	defer utils.OperationTimer("pnl_import", s.log)()

	rows := make([]PnLRow, 0, len(inputs))
	var warnings []ImportWarning
	seen := make(map[string]bool, len(inputs))

	for _, in := range inputs {
		month := NormalizeMonthLabel(in.Month)
		if seen[month] {
			warnings = append(warnings, ImportWarning{Dataset: "pnl", Row: month, Field: "month", Raw: in.Month})
			continue
		}
		seen[month] = true

		row := PnLRow{Month: month}
		parse := func(field, raw string) float64 {
			value, ok := ParseMoney(raw)
			if !ok {
				warnings = append(warnings, ImportWarning{Dataset: "pnl", Row: month, Field: field, Raw: raw})
			}
			return value
		}

		row.Revenue = parse("revenue", in.Revenue)
		row.COGS = parse("cogs", in.COGS)
		row.GrossProfit = parse("grossProfit", in.GrossProfit)
		row.Opex = parse("opex", in.Opex)
		row.RD = parse("rd", in.RD)
		row.GA = parse("ga", in.GA)
		row.EBITDA = parse("ebitda", in.EBITDA)
		row.Taxes = parse("taxes", in.Taxes)
		row.Interest = parse("interest", in.Interest)
		row.DA = parse("da", in.DA)
		row.NetIncome = parse("netIncome", in.NetIncome)

		// Only months with a usable S&M cell enter the spend history.
		smValue, smOK := ParseMoney(in.SM)
		if !smOK {
			warnings = append(warnings, ImportWarning{Dataset: "pnl", Row: month, Field: "sm", Raw: in.SM})
		}
		row.SM = smValue
		row.SMRecorded = smOK && strings.TrimSpace(in.SM) != ""

		rows = append(rows, row)
	}

	if err := s.repo.ReplacePnLRows(rows, warnings); err != nil {
		return nil, fmt.Errorf("failed to store pnl dataset: %w", err)
	}

	s.emitImported("pnl", len(rows), len(warnings))

	return &ImportResult{Dataset: "pnl", Imported: len(rows), Warnings: warnings}, nil
}

// ImportCohorts parses and stores a full cohort dataset, replacing the
// previous one. Revenue cells that fail to parse coerce to 0 with a warning.
func (s *Service) ImportCohorts(inputs []CohortRowInput) (*ImportResult, error) {
	defer utils.OperationTimer("cohort_import", s.log)()

	rows := make([]CohortRow, 0, len(inputs))
	var warnings []ImportWarning
	seen := make(map[string]bool, len(inputs))

	for _, in := range inputs {
		name := NormalizeMonthLabel(in.Name)
		if seen[name] {
			warnings = append(warnings, ImportWarning{Dataset: "cohorts", Row: name, Field: "name", Raw: in.Name})
			continue
		}
		seen[name] = true

		revenue := make([]float64, len(in.Revenue))
		for i, raw := range in.Revenue {
			value, ok := ParseMoney(raw)
			if !ok {
				warnings = append(warnings, ImportWarning{
					Dataset: "cohorts",
					Row:     name,
					Field:   fmt.Sprintf("revenue[%d]", i),
					Raw:     raw,
				})
			}
			revenue[i] = value
		}

		rows = append(rows, CohortRow{Name: name, Revenue: revenue})
	}

	if err := s.repo.ReplaceCohortRows(rows, warnings); err != nil {
		return nil, fmt.Errorf("failed to store cohort dataset: %w", err)
	}

	s.emitImported("cohorts", len(rows), len(warnings))

	return &ImportResult{Dataset: "cohorts", Imported: len(rows), Warnings: warnings}, nil
}

// ExtractSM pulls the usable S&M spend entries out of raw P&L rows without
// storing anything. Rows with empty or unparseable S&M cells are skipped.
func (s *Service) ExtractSM(inputs []PnLRowInput) []SMEntry {
	entries := make([]SMEntry, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.SM) == "" {
			continue
		}
		value, ok := ParseMoney(in.SM)
		if !ok {
			continue
		}
		entries = append(entries, SMEntry{Month: NormalizeMonthLabel(in.Month), SM: value})
	}
	return entries
}

// PnLRows returns the stored P&L rows in import order
func (s *Service) PnLRows() ([]PnLRow, error) {
	return s.repo.PnLRows()
}

// CohortRows returns the stored cohort rows in import order
func (s *Service) CohortRows() ([]CohortRow, error) {
	return s.repo.CohortRows()
}

// Status returns last-import bookkeeping for all datasets
func (s *Service) Status() ([]ImportMeta, error) {
	return s.repo.ImportMeta()
}

// GrossMargin computes the gross margin breakdown from the stored P&L rows
func (s *Service) GrossMargin() (GrossMarginBreakdown, error) {
	rows, err := s.repo.PnLRows()
	if err != nil {
		return GrossMarginBreakdown{}, fmt.Errorf("failed to load pnl rows: %w", err)
	}
	return CalculateGrossMargin(rows, s.log), nil
}

// HistoricalSeries assembles the spend and revenue history for the ratio
// model. Spend comes from P&L months with recorded S&M; revenue comes from
// each cohort's first-month revenue, excluding the "Older Cohorts" row.
func (s *Service) HistoricalSeries() (*HistoricalSeries, error) {
	pnlRows, err := s.repo.PnLRows()
	if err != nil {
		return nil, fmt.Errorf("failed to load pnl rows: %w", err)
	}
	cohortRows, err := s.repo.CohortRows()
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort rows: %w", err)
	}

	series := &HistoricalSeries{
		Spend:   make(map[string]float64, len(pnlRows)),
		Revenue: make(map[string]float64, len(cohortRows)),
	}

	for _, row := range pnlRows {
		if row.SMRecorded {
			series.Spend[NormalizeMonthLabel(row.Month)] = row.SM
		}
	}

	for _, cohort := range cohortRows {
		if cohort.Name == olderCohortsName || len(cohort.Revenue) == 0 {
			continue
		}
		series.Revenue[NormalizeMonthLabel(cohort.Name)] = cohort.Revenue[0]
	}

	return series, nil
}

func (s *Service) emitImported(dataset string, rows, warnings int) {
	if s.events == nil {
		return
	}
	if rows == 0 {
		s.events.EmitTyped(events.DatasetCleared, "datasets", &events.DatasetClearedData{Source: dataset})
		return
	}
	s.events.EmitTyped(events.DatasetImported, "datasets", &events.DatasetImportedData{
		Source:   dataset,
		Rows:     rows,
		Warnings: warnings,
	})
}
