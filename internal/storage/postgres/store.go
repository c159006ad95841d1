package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityDecrease/internal/model"
)

// Store provides Postgres persistence for the plan audit trail.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutPlan inserts one computed plan record.
func (s *Store) PutPlan(ctx context.Context, record model.PlanRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO decrease_plans (
			chain_id, position_id, version, liquidity_to_remove,
			min_amount0, min_amount1, burn, degraded, payload_hex, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	`,
		int64(record.ChainID),
		record.PositionID,
		int64(record.Version),
		record.LiquidityToRemove,
		record.MinAmount0,
		record.MinAmount1,
		record.Burn,
		record.Degraded,
		record.PayloadHex,
	)
	return err
}

// RecentPlans returns the latest plan records for a position.
func (s *Store) RecentPlans(ctx context.Context, chainID uint64, positionID string, limit int) ([]model.PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT chain_id, position_id, version, liquidity_to_remove,
		       min_amount0, min_amount1, burn, degraded, payload_hex,
		       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM decrease_plans
		WHERE chain_id = $1 AND position_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, int64(chainID), positionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PlanRecord
	for rows.Next() {
		var r model.PlanRecord
		var chain, version int64
		if err := rows.Scan(&chain, &r.PositionID, &version, &r.LiquidityToRemove,
			&r.MinAmount0, &r.MinAmount1, &r.Burn, &r.Degraded, &r.PayloadHex, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.ChainID = uint64(chain)
		r.Version = uint64(version)
		records = append(records, r)
	}
	return records, rows.Err()
}
