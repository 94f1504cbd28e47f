package simulation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fathomcap/underwriter/internal/database"
	"github.com/fathomcap/underwriter/internal/modules/prediction"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// trajectoryPayload is the msgpack-encoded vector portion of a stored
// record. Scalar outcomes live in their own columns so distributions can be
// queried without decoding payloads.
type trajectoryPayload struct {
	Spend            []float64 `msgpack:"spend"`
	PredictedRatio   []float64 `msgpack:"ratio"`
	PredictedRevenue []float64 `msgpack:"revenue"`
	GrossProfit      []float64 `msgpack:"gp"`
	LenderCashflow   []float64 `msgpack:"lender,omitempty"`
}

// Repository handles run and trajectory storage in results.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new simulation results repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "simulation").Logger(),
	}
}

// CreateRun persists a freshly queued run.
func (r *Repository) CreateRun(run *Run) error {
	_, err := r.db.Exec(`
		INSERT INTO simulation_runs (
			id, status, mode, draws, seed, workers, include_loan,
			loan_percentage, yearly_interest_rate, target_irr, max_years,
			gross_margin, failed_draws, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		run.ID, run.Status, string(run.Mode), run.Draws, run.Seed, run.Workers,
		run.IncludeLoan, run.Terms.LoanPercentage, run.Terms.YearlyInterestRate,
		run.Terms.TargetIRR, run.Terms.MaxYears, run.GrossMargin,
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// MarkRunning transitions a queued run to running.
func (r *Repository) MarkRunning(runID string, startedAt time.Time) error {
	_, err := r.db.Exec(
		"UPDATE simulation_runs SET status = ?, started_at = ? WHERE id = ?",
		StatusRunning, startedAt.UTC().Format(time.RFC3339), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run %s running: %w", runID, err)
	}
	return nil
}

// CompleteRun stores the final statistics of a finished run.
func (r *Repository) CompleteRun(run *Run) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode run stats: %w", err)
	}

	completedAt := ""
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}

	_, err = r.db.Exec(`
		UPDATE simulation_runs
		SET status = ?, failed_draws = ?, stats_json = ?, completed_at = ?, duration_seconds = ?
		WHERE id = ?`,
		StatusCompleted, run.FailedDraws, string(statsJSON), completedAt, run.Duration, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", run.ID, err)
	}

	r.log.Info().
		Str("run_id", run.ID).
		Int("draws", run.Draws).
		Int("failed_draws", run.FailedDraws).
		Float64("duration_seconds", run.Duration).
		Msg("Run completed")
	return nil
}

// FailRun records a run failure.
func (r *Repository) FailRun(runID, message string, completedAt time.Time) error {
	_, err := r.db.Exec(
		"UPDATE simulation_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?",
		StatusFailed, message, completedAt.UTC().Format(time.RFC3339), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", runID, err)
	}
	return nil
}

// Run loads one run by ID.
func (r *Repository) Run(runID string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, status, mode, draws, seed, workers, include_loan,
		       loan_percentage, yearly_interest_rate, target_irr, max_years,
		       gross_margin, failed_draws, stats_json, error,
		       created_at, started_at, completed_at, duration_seconds
		FROM simulation_runs WHERE id = ?`, runID)

	var run Run
	var mode, createdAt string
	var statsJSON, errMsg, startedAt, completedAt sql.NullString
	var duration sql.NullFloat64

	err := row.Scan(
		&run.ID, &run.Status, &mode, &run.Draws, &run.Seed, &run.Workers,
		&run.IncludeLoan, &run.Terms.LoanPercentage, &run.Terms.YearlyInterestRate,
		&run.Terms.TargetIRR, &run.Terms.MaxYears, &run.GrossMargin,
		&run.FailedDraws, &statsJSON, &errMsg, &createdAt, &startedAt,
		&completedAt, &duration,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	run.Mode = prediction.Mode(mode)
	run.Error = errMsg.String
	run.Duration = duration.Float64
	run.CreatedAt = parseTime(createdAt)
	run.StartedAt = parseTimePtr(startedAt)
	run.CompletedAt = parseTimePtr(completedAt)

	if statsJSON.Valid && statsJSON.String != "" {
		var stats BatchStats
		if err := json.Unmarshal([]byte(statsJSON.String), &stats); err != nil {
			return nil, fmt.Errorf("failed to decode stats for run %s: %w", runID, err)
		}
		run.Stats = &stats
	}
	return &run, nil
}

// SaveRecords persists a run's trajectory records in one transaction.
func (r *Repository) SaveRecords(runID string, records []*TrajectoryRecord) error {
	now := time.Now().UTC().Format(time.RFC3339)

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO trajectory_results (
				run_id, draw_index, seed, ltv_to_cac, business_irr,
				loan_amount, total_received, net_return, return_pct,
				target_return, final_irr, annualized_irr, months_to_target,
				hit_horizon, capped, payload, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer stmt.Close()

		for _, record := range records {
			payload := trajectoryPayload{
				Spend:            record.Spend,
				PredictedRatio:   record.PredictedRatio,
				PredictedRevenue: record.PredictedRevenue,
				GrossProfit:      record.GrossProfit,
			}
			if record.Loan != nil {
				payload.LenderCashflow = record.Loan.LenderCashflow
			}

			blob, err := msgpack.Marshal(payload)
			if err != nil {
				return fmt.Errorf("failed to encode draw %d: %w", record.DrawIndex, err)
			}

			args := []interface{}{
				runID, record.DrawIndex, record.Seed,
				nullFloat(record.LTVToCAC), nullFloat(record.IRR),
			}
			if loan := record.Loan; loan != nil {
				args = append(args,
					loan.LoanAmount, loan.TotalReceived, loan.NetReturn,
					loan.ReturnPct, loan.TargetReturn,
					nullFloat(loan.FinalIRR), nullFloat(loan.ActualIRR),
					nullInt(loan.MonthsToTarget), loan.HitHorizon, loan.Capped,
				)
			} else {
				args = append(args, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
			}
			args = append(args, blob, now)

			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("failed to insert draw %d: %w", record.DrawIndex, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Str("run_id", runID).Int("records", len(records)).Msg("Saved trajectory records")
	return nil
}

// Records returns a page of a run's records ordered by draw index. A
// non-positive limit returns everything from offset on.
func (r *Repository) Records(runID string, offset, limit int) ([]*TrajectoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(`
		SELECT draw_index, seed, ltv_to_cac, business_irr,
		       loan_amount, total_received, net_return, return_pct,
		       target_return, final_irr, annualized_irr, months_to_target,
		       hit_horizon, capped, payload
		FROM trajectory_results
		WHERE run_id = ?
		ORDER BY draw_index
		LIMIT ? OFFSET ?`, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query records for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []*TrajectoryRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// RecordCount returns how many records a run persisted.
func (r *Repository) RecordCount(runID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM trajectory_results WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records for run %s: %w", runID, err)
	}
	return count, nil
}

func scanRecord(rows *sql.Rows) (*TrajectoryRecord, error) {
	var record TrajectoryRecord
	var ltvToCac, businessIRR sql.NullFloat64
	var loanAmount, totalReceived, netReturn, returnPct, targetReturn sql.NullFloat64
	var finalIRR, annualizedIRR sql.NullFloat64
	var monthsToTarget sql.NullInt64
	var hitHorizon, capped sql.NullBool
	var blob []byte

	err := rows.Scan(
		&record.DrawIndex, &record.Seed, &ltvToCac, &businessIRR,
		&loanAmount, &totalReceived, &netReturn, &returnPct, &targetReturn,
		&finalIRR, &annualizedIRR, &monthsToTarget, &hitHorizon, &capped, &blob,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	var payload trajectoryPayload
	if err := msgpack.Unmarshal(blob, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode record payload: %w", err)
	}

	record.Spend = payload.Spend
	record.PredictedRatio = payload.PredictedRatio
	record.PredictedRevenue = payload.PredictedRevenue
	record.GrossProfit = payload.GrossProfit
	record.LTVToCAC = floatPtr(ltvToCac)
	record.IRR = floatPtr(businessIRR)

	if loanAmount.Valid {
		record.Loan = &LoanAnalysis{
			LenderCashflow: payload.LenderCashflow,
			LoanAmount:     loanAmount.Float64,
			TotalReceived:  totalReceived.Float64,
			NetReturn:      netReturn.Float64,
			ReturnPct:      returnPct.Float64,
			TargetReturn:   targetReturn.Float64,
			FinalIRR:       floatPtr(finalIRR),
			ActualIRR:      floatPtr(annualizedIRR),
			MonthsToTarget: intPtr(monthsToTarget),
			HitHorizon:     hitHorizon.Bool,
			Capped:         capped.Bool,
		}
	}
	return &record, nil
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	t := parseTime(value.String)
	return &t
}
