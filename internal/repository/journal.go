package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fundvault/fundvault/internal/models"
)

// JournalRepo is the audit log of accepted deposits and completed
// withdrawals. It observes the ledger; it is never part of the atomic
// deposit/withdraw path.
type JournalRepo struct {
	pool *pgxpool.Pool
}

func NewJournalRepo(pool *pgxpool.Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

func (r *JournalRepo) RecordDeposit(ctx context.Context, d *models.Deposit) (*models.Deposit, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO deposits (address, amount_wei, usd_value, timestamp)
		 VALUES ($1, $2, $3, $4) RETURNING *`,
		d.Address, d.AmountWei, d.USDValue, d.Timestamp,
	)
	return scanDeposit(row)
}

func (r *JournalRepo) RecordWithdrawal(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO withdrawals (owner, swept_wei, funders_cleared, timestamp)
		 VALUES ($1, $2, $3, $4) RETURNING *`,
		w.Owner, w.SweptWei, w.FundersCleared, w.Timestamp,
	)
	var out models.Withdrawal
	err := row.Scan(&out.ID, &out.Owner, &out.SweptWei, &out.FundersCleared, &out.Timestamp, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *JournalRepo) ListDeposits(ctx context.Context, limit int) ([]models.Deposit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM deposits ORDER BY timestamp DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeposits(rows)
}

func (r *JournalRepo) ListDepositsByAddress(ctx context.Context, address string, limit int) ([]models.Deposit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM deposits WHERE address = $1 ORDER BY timestamp DESC LIMIT $2`,
		address, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeposits(rows)
}

func (r *JournalRepo) GetStats(ctx context.Context) (*models.JournalStats, error) {
	var s models.JournalStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT address), MIN(timestamp), MAX(timestamp) FROM deposits`,
	).Scan(&s.TotalDeposits, &s.UniqueFunders, &s.FirstDeposit, &s.LastDeposit)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawals`).Scan(&s.TotalWithdrawals)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanDeposit(row scannable) (*models.Deposit, error) {
	var d models.Deposit
	err := row.Scan(&d.ID, &d.Address, &d.AmountWei, &d.USDValue, &d.Timestamp, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectDeposits(rows rowsIter) ([]models.Deposit, error) {
	var out []models.Deposit
	for rows.Next() {
		var d models.Deposit
		if err := rows.Scan(&d.ID, &d.Address, &d.AmountWei, &d.USDValue, &d.Timestamp, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
