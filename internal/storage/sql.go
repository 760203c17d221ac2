package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/loan-compare/internal/finance"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"go.uber.org/zap"
)

// timeLayout is fixed width so that stored timestamps sort lexically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore is a Store backed by a database/sql connection. The same queries serve SQLite and
// PostgreSQL; only the placeholder syntax differs.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SQLStore{db: db, dialect: d, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS finance_options (
			id                              TEXT PRIMARY KEY,
			user_id                         TEXT NOT NULL,
			source_name                     TEXT NOT NULL,
			loan_amount                     DOUBLE PRECISION NOT NULL,
			annual_interest_rate            DOUBLE PRECISION NOT NULL,
			insurance_rate_percentage       DOUBLE PRECISION,
			insurance_amount                DOUBLE PRECISION,
			security_deposit                DOUBLE PRECISION NOT NULL DEFAULT 0,
			security_deposit_repayable      BOOLEAN NOT NULL DEFAULT FALSE,
			monthly_repayment_amount        DOUBLE PRECISION,
			monthly_repayment_is_percentage BOOLEAN NOT NULL DEFAULT FALSE,
			loan_term_months                INTEGER NOT NULL,
			loan_amount_paid_at_term_end    BOOLEAN NOT NULL DEFAULT FALSE,
			can_renew                       BOOLEAN NOT NULL DEFAULT FALSE,
			loan_renewal_percentage         DOUBLE PRECISION,
			loan_renewal_fixed_cost         DOUBLE PRECISION,
			extra_loan_costs                TEXT NOT NULL DEFAULT '[]',
			loan_terms                      TEXT NOT NULL,
			created_at                      TEXT NOT NULL,
			updated_at                      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_finance_options_user ON finance_options(user_id, created_at)`,
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

const optionColumns = `id, user_id, source_name, loan_amount, annual_interest_rate,
	insurance_rate_percentage, insurance_amount, security_deposit, security_deposit_repayable,
	monthly_repayment_amount, monthly_repayment_is_percentage, loan_term_months,
	loan_amount_paid_at_term_end, can_renew, loan_renewal_percentage, loan_renewal_fixed_cost,
	extra_loan_costs, loan_terms, created_at, updated_at`

// Save upserts option. An id that belongs to another user is reported as ErrNotFound.
func (s *SQLStore) Save(ctx context.Context, option finance.Option) error {
	extras, err := json.Marshal(extraCostsOrEmpty(option.Input.ExtraLoanCosts))
	if err != nil {
		return fmt.Errorf("storage: encode extra loan costs: %w", err)
	}
	result, err := json.Marshal(option.Result)
	if err != nil {
		return fmt.Errorf("storage: encode loan terms: %w", err)
	}

	in := option.Input
	query := s.rebind(`INSERT INTO finance_options (` + optionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			source_name = excluded.source_name,
			loan_amount = excluded.loan_amount,
			annual_interest_rate = excluded.annual_interest_rate,
			insurance_rate_percentage = excluded.insurance_rate_percentage,
			insurance_amount = excluded.insurance_amount,
			security_deposit = excluded.security_deposit,
			security_deposit_repayable = excluded.security_deposit_repayable,
			monthly_repayment_amount = excluded.monthly_repayment_amount,
			monthly_repayment_is_percentage = excluded.monthly_repayment_is_percentage,
			loan_term_months = excluded.loan_term_months,
			loan_amount_paid_at_term_end = excluded.loan_amount_paid_at_term_end,
			can_renew = excluded.can_renew,
			loan_renewal_percentage = excluded.loan_renewal_percentage,
			loan_renewal_fixed_cost = excluded.loan_renewal_fixed_cost,
			extra_loan_costs = excluded.extra_loan_costs,
			loan_terms = excluded.loan_terms,
			updated_at = excluded.updated_at
		WHERE finance_options.user_id = excluded.user_id`)

	res, err := s.db.ExecContext(ctx, query,
		option.ID, option.UserID, option.SourceName, in.LoanAmount, in.AnnualInterestRatePct,
		nullable(in.InsuranceRatePct), nullable(in.InsuranceAmount), in.SecurityDeposit, in.SecurityDepositRepayable,
		nullable(in.MonthlyRepaymentAmount), in.MonthlyRepaymentIsPercentage, in.LoanTermMonths,
		in.LoanAmountPaidAtTermEnd, in.CanRenew, nullable(in.LoanRenewalPercentagePct), nullable(in.LoanRenewalFixedCost),
		string(extras), string(result), formatTime(option.CreatedAt), formatTime(option.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: save option %s: %w", option.ID, err)
	}

	// The conditional upsert touches no row when the id is owned by someone else.
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("saved finance option",
		zap.String("op", "storage.Save"),
		zap.String("id", option.ID),
	)
	return nil
}

func (s *SQLStore) Get(ctx context.Context, userID, id string) (finance.Option, error) {
	query := s.rebind(`SELECT ` + optionColumns + ` FROM finance_options WHERE user_id = ? AND id = ?`)
	option, err := scanOption(s.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Option{}, ErrNotFound
	}
	if err != nil {
		return finance.Option{}, fmt.Errorf("storage: get option %s: %w", id, err)
	}
	return option, nil
}

func (s *SQLStore) List(ctx context.Context, userID string) ([]finance.Option, error) {
	query := s.rebind(`SELECT ` + optionColumns + ` FROM finance_options WHERE user_id = ? ORDER BY created_at, id`)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list options: %w", err)
	}
	defer rows.Close()

	options := make([]finance.Option, 0)
	for rows.Next() {
		option, err := scanOption(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan option: %w", err)
		}
		options = append(options, option)
	}
	return options, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, userID, id string) error {
	query := s.rebind(`DELETE FROM finance_options WHERE user_id = ? AND id = ?`)
	res, err := s.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("storage: delete option %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete option %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOption(row rowScanner) (finance.Option, error) {
	var (
		option finance.Option
		in     loans.LoanInput

		insuranceRate, insuranceAmount, repayment, renewalPct, renewalFixed sql.NullFloat64
		extras, result, createdAt, updatedAt                               string
	)
	err := row.Scan(
		&option.ID, &option.UserID, &option.SourceName, &in.LoanAmount, &in.AnnualInterestRatePct,
		&insuranceRate, &insuranceAmount, &in.SecurityDeposit, &in.SecurityDepositRepayable,
		&repayment, &in.MonthlyRepaymentIsPercentage, &in.LoanTermMonths,
		&in.LoanAmountPaidAtTermEnd, &in.CanRenew, &renewalPct, &renewalFixed,
		&extras, &result, &createdAt, &updatedAt,
	)
	if err != nil {
		return finance.Option{}, err
	}

	in.InsuranceRatePct = fromNullable(insuranceRate)
	in.InsuranceAmount = fromNullable(insuranceAmount)
	in.MonthlyRepaymentAmount = fromNullable(repayment)
	in.LoanRenewalPercentagePct = fromNullable(renewalPct)
	in.LoanRenewalFixedCost = fromNullable(renewalFixed)

	if err := json.Unmarshal([]byte(extras), &in.ExtraLoanCosts); err != nil {
		return finance.Option{}, fmt.Errorf("decode extra loan costs: %w", err)
	}
	if len(in.ExtraLoanCosts) == 0 {
		in.ExtraLoanCosts = nil
	}
	if err := json.Unmarshal([]byte(result), &option.Result); err != nil {
		return finance.Option{}, fmt.Errorf("decode loan terms: %w", err)
	}
	if option.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return finance.Option{}, fmt.Errorf("decode created_at: %w", err)
	}
	if option.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return finance.Option{}, fmt.Errorf("decode updated_at: %w", err)
	}

	option.Input = in
	return option, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func extraCostsOrEmpty(costs []loans.ExtraCost) []loans.ExtraCost {
	if costs == nil {
		return []loans.ExtraCost{}
	}
	return costs
}
