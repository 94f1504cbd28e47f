package datasets

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fathomcap/underwriter/internal/database"
)

// Repository handles dataset storage in datasets.db.
// Imports replace the prior dataset wholesale inside a single transaction, so
// readers never observe a half-imported state.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new datasets repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "datasets").Logger(),
	}
}

// ReplacePnLRows atomically replaces the stored P&L dataset with the given
// rows and their import warnings.
func (r *Repository) ReplacePnLRows(rows []PnLRow, warnings []ImportWarning) error {
	now := time.Now().UTC().Format(time.RFC3339)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM pnl_rows"); err != nil {
			return fmt.Errorf("failed to clear pnl_rows: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM import_warnings WHERE dataset = 'pnl'"); err != nil {
			return fmt.Errorf("failed to clear pnl warnings: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO pnl_rows (
				month, month_key, revenue, cogs, gross_profit, opex,
				sm, sm_recorded, rd, ga, ebitda, taxes, interest, da, net_income,
				created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare pnl insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			monthKey := MonthSortKey(row.Month).Format("2006-01-02")
			_, err := stmt.Exec(
				row.Month, monthKey, row.Revenue, row.COGS, row.GrossProfit, row.Opex,
				row.SM, row.SMRecorded, row.RD, row.GA, row.EBITDA, row.Taxes,
				row.Interest, row.DA, row.NetIncome, now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert pnl row %s: %w", row.Month, err)
			}
		}

		if err := insertWarnings(tx, warnings, now); err != nil {
			return err
		}
		return setImportMeta(tx, "pnl", now, len(rows))
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("rows", len(rows)).Int("warnings", len(warnings)).Msg("Replaced P&L dataset")
	return nil
}

// PnLRows returns the stored P&L rows in import order
func (r *Repository) PnLRows() ([]PnLRow, error) {
	rows, err := r.db.Query(`
		SELECT month, revenue, cogs, gross_profit, opex,
		       sm, sm_recorded, rd, ga, ebitda, taxes, interest, da, net_income
		FROM pnl_rows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pnl_rows: %w", err)
	}
	defer rows.Close()

	var result []PnLRow
	for rows.Next() {
		var row PnLRow
		err := rows.Scan(
			&row.Month, &row.Revenue, &row.COGS, &row.GrossProfit, &row.Opex,
			&row.SM, &row.SMRecorded, &row.RD, &row.GA, &row.EBITDA, &row.Taxes,
			&row.Interest, &row.DA, &row.NetIncome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pnl row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ReplaceCohortRows atomically replaces the stored cohort dataset with the
// given rows and their import warnings.
func (r *Repository) ReplaceCohortRows(rows []CohortRow, warnings []ImportWarning) error {
	now := time.Now().UTC().Format(time.RFC3339)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM cohort_rows"); err != nil {
			return fmt.Errorf("failed to clear cohort_rows: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM import_warnings WHERE dataset = 'cohorts'"); err != nil {
			return fmt.Errorf("failed to clear cohort warnings: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO cohort_rows (name, name_key, revenue_json, created_at)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare cohort insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			revenueJSON, err := json.Marshal(row.Revenue)
			if err != nil {
				return fmt.Errorf("failed to encode revenue for cohort %s: %w", row.Name, err)
			}
			nameKey := MonthSortKey(row.Name).Format("2006-01-02")
			if _, err := stmt.Exec(row.Name, nameKey, string(revenueJSON), now); err != nil {
				return fmt.Errorf("failed to insert cohort row %s: %w", row.Name, err)
			}
		}

		if err := insertWarnings(tx, warnings, now); err != nil {
			return err
		}
		return setImportMeta(tx, "cohorts", now, len(rows))
	})
	if err != nil {
		return err
	}

	r.log.Info().Int("rows", len(rows)).Int("warnings", len(warnings)).Msg("Replaced cohort dataset")
	return nil
}

// CohortRows returns the stored cohort rows in import order
func (r *Repository) CohortRows() ([]CohortRow, error) {
	rows, err := r.db.Query("SELECT name, revenue_json FROM cohort_rows ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query cohort_rows: %w", err)
	}
	defer rows.Close()

	var result []CohortRow
	for rows.Next() {
		var row CohortRow
		var revenueJSON string
		if err := rows.Scan(&row.Name, &revenueJSON); err != nil {
			return nil, fmt.Errorf("failed to scan cohort row: %w", err)
		}
		if err := json.Unmarshal([]byte(revenueJSON), &row.Revenue); err != nil {
			return nil, fmt.Errorf("failed to decode revenue for cohort %s: %w", row.Name, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Warnings returns the recorded import warnings for a dataset
func (r *Repository) Warnings(dataset string) ([]ImportWarning, error) {
	rows, err := r.db.Query(`
		SELECT dataset, COALESCE(row_label, ''), COALESCE(field, ''), COALESCE(raw_value, '')
		FROM import_warnings WHERE dataset = ? ORDER BY id`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query import warnings: %w", err)
	}
	defer rows.Close()

	var result []ImportWarning
	for rows.Next() {
		var w ImportWarning
		if err := rows.Scan(&w.Dataset, &w.Row, &w.Field, &w.Raw); err != nil {
			return nil, fmt.Errorf("failed to scan import warning: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// ImportMeta returns the last-import bookkeeping for all datasets
func (r *Repository) ImportMeta() ([]ImportMeta, error) {
	rows, err := r.db.Query("SELECT dataset, imported_at, row_count FROM import_meta ORDER BY dataset")
	if err != nil {
		return nil, fmt.Errorf("failed to query import meta: %w", err)
	}
	defer rows.Close()

	var result []ImportMeta
	for rows.Next() {
		var m ImportMeta
		if err := rows.Scan(&m.Dataset, &m.ImportedAt, &m.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan import meta: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func insertWarnings(tx *sql.Tx, warnings []ImportWarning, now string) error {
	for _, w := range warnings {
		_, err := tx.Exec(`
			INSERT INTO import_warnings (dataset, row_label, field, raw_value, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			w.Dataset, w.Row, w.Field, w.Raw, now)
		if err != nil {
			return fmt.Errorf("failed to insert import warning: %w", err)
		}
	}
	return nil
}

func setImportMeta(tx *sql.Tx, dataset, importedAt string, rowCount int) error {
	_, err := tx.Exec(`
		INSERT INTO import_meta (dataset, imported_at, row_count) VALUES (?, ?, ?)
		ON CONFLICT(dataset) DO UPDATE SET imported_at = excluded.imported_at, row_count = excluded.row_count`,
		dataset, importedAt, rowCount)
	if err != nil {
		return fmt.Errorf("failed to update import meta for %s: %w", dataset, err)
	}
	return nil
}
