package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS trade_records (
	trade_id      TEXT PRIMARY KEY,
	wallet_id     BIGINT NOT NULL,
	token_address TEXT NOT NULL,
	side          TEXT NOT NULL,
	amount_sol    DOUBLE PRECISION NOT NULL,
	signature     TEXT NOT NULL,
	strategy_tag  TEXT NOT NULL,
	executed_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_records_wallet ON trade_records (wallet_id, executed_at);
CREATE INDEX IF NOT EXISTS idx_trade_records_token ON trade_records (token_address, executed_at);
`

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// Append adds a trade. Returns ErrDuplicateKey if trade_id exists.
func (s *PostgresStore) Append(ctx context.Context, t *TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return ErrInvalidInput
	}

	query := `
		INSERT INTO trade_records (
			trade_id, wallet_id, token_address, side,
			amount_sol, signature, strategy_tag, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.WalletID, t.TokenAddress, t.Side,
		t.AmountSOL, t.Signature, t.StrategyTag, t.ExecutedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("append trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *PostgresStore) GetByID(ctx context.Context, tradeID string) (*TradeRecord, error) {
	query := `
		SELECT trade_id, wallet_id, token_address, side,
		       amount_sol, signature, strategy_tag, executed_at
		FROM trade_records
		WHERE trade_id = $1
	`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetByWallet retrieves all trades for a wallet, ordered by executed_at ASC.
func (s *PostgresStore) GetByWallet(ctx context.Context, walletID int64) ([]*TradeRecord, error) {
	query := `
		SELECT trade_id, wallet_id, token_address, side,
		       amount_sol, signature, strategy_tag, executed_at
		FROM trade_records
		WHERE wallet_id = $1
		ORDER BY executed_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by wallet: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetByToken retrieves all trades for a token, ordered by executed_at ASC.
func (s *PostgresStore) GetByToken(ctx context.Context, tokenAddress string) ([]*TradeRecord, error) {
	query := `
		SELECT trade_id, wallet_id, token_address, side,
		       amount_sol, signature, strategy_tag, executed_at
		FROM trade_records
		WHERE token_address = $1
		ORDER BY executed_at ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("get trade records by token: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

func scanTradeRecord(row pgx.Row) (*TradeRecord, error) {
	var t TradeRecord
	err := row.Scan(
		&t.TradeID, &t.WalletID, &t.TokenAddress, &t.Side,
		&t.AmountSOL, &t.Signature, &t.StrategyTag, &t.ExecutedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTradeRecords(rows pgx.Rows) ([]*TradeRecord, error) {
	var trades []*TradeRecord

	for rows.Next() {
		var t TradeRecord
		err := rows.Scan(
			&t.TradeID, &t.WalletID, &t.TokenAddress, &t.Side,
			&t.AmountSOL, &t.Signature, &t.StrategyTag, &t.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
