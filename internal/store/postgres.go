package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"launchpad/internal/types"
)

// PostgresStore persists profiles and submitted transaction history.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertProfile inserts or updates a profile.
func (s *PostgresStore) UpsertProfile(ctx context.Context, profile types.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (address, display_name, avatar_url, tier, staked_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (address)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			tier = EXCLUDED.tier,
			staked_amount = EXCLUDED.staked_amount,
			updated_at = now()
	`,
		normalizeAddress(profile.Address),
		profile.DisplayName,
		profile.AvatarURL,
		int16(profile.Tier),
		profile.StakedAmount,
	)
	return err
}

// GetProfile returns the profile for an address.
func (s *PostgresStore) GetProfile(ctx context.Context, address string) (types.Profile, error) {
	var profile types.Profile
	var tier int16
	row := s.pool.QueryRow(ctx, `
		SELECT address, display_name, avatar_url, tier, staked_amount, created_at, updated_at
		FROM profiles WHERE address = $1
	`, normalizeAddress(address))
	err := row.Scan(&profile.Address, &profile.DisplayName, &profile.AvatarURL, &tier, &profile.StakedAmount, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, address)
		}
		return types.Profile{}, err
	}
	profile.Tier = uint8(tier)
	return profile, nil
}

// TransactionRow is one archived submission.
type TransactionRow struct {
	OpID      string
	Hash      string
	Method    string
	To        string
	Value     string
	Status    string
	Submitted string
}

// ArchiveTransactions upserts a batch of journal records for long-term
// history. The journal file stays the source of truth for pending work.
func (s *PostgresStore) ArchiveTransactions(ctx context.Context, rows []TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO transactions (op_id, tx_hash, method, to_address, value_wei, status, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tx_hash)
			DO UPDATE SET status = EXCLUDED.status
		`,
			row.OpID, row.Hash, row.Method, row.To, row.Value, row.Status, row.Submitted,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
