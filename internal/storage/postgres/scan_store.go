package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/storage"
)

// ScanStore implements storage.ScanStore using PostgreSQL.
type ScanStore struct {
	pool *Pool
}

// NewScanStore creates a new ScanStore.
func NewScanStore(pool *Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScanStore = (*ScanStore)(nil)

// Insert appends one scan record and fills in its assigned ID.
func (s *ScanStore) Insert(ctx context.Context, rec *domain.ScanRecord) error {
	if rec.Owner == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO scan_records (
			owner, scanned_at, risk_score, total_tokens, total_nfts,
			suspicious_count, malicious_count, delegate_approvals,
			total_value_usd, result_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		rec.Owner,
		rec.ScannedAt,
		rec.RiskScore,
		rec.TotalTokens,
		rec.TotalNFTs,
		rec.SuspiciousCount,
		rec.MaliciousCount,
		rec.DelegateApprovals,
		rec.TotalValueUSD,
		rec.ResultJSON,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert scan record: %w", err)
	}
	return nil
}

// GetByOwner returns the most recent records for an owner, newest first.
func (s *ScanStore) GetByOwner(ctx context.Context, owner string, limit int) ([]*domain.ScanRecord, error) {
	if owner == "" {
		return nil, storage.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, owner, scanned_at, risk_score, total_tokens, total_nfts,
			suspicious_count, malicious_count, delegate_approvals,
			total_value_usd, result_json
		FROM scan_records
		WHERE owner = $1
		ORDER BY scanned_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("get scan records by owner: %w", err)
	}
	defer rows.Close()

	var records []*domain.ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan records: %w", err)
	}
	return records, nil
}

// Latest returns the newest record for an owner. Returns ErrNotFound if none.
func (s *ScanStore) Latest(ctx context.Context, owner string) (*domain.ScanRecord, error) {
	if owner == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT id, owner, scanned_at, risk_score, total_tokens, total_nfts,
			suspicious_count, malicious_count, delegate_approvals,
			total_value_usd, result_json
		FROM scan_records
		WHERE owner = $1
		ORDER BY scanned_at DESC, id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, owner)
	rec, err := scanRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest scan record: %w", err)
	}
	return rec, nil
}

// scanRecord scans a single row into a ScanRecord.
func scanRecord(row pgx.Row) (*domain.ScanRecord, error) {
	var rec domain.ScanRecord

	err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&rec.ScannedAt,
		&rec.RiskScore,
		&rec.TotalTokens,
		&rec.TotalNFTs,
		&rec.SuspiciousCount,
		&rec.MaliciousCount,
		&rec.DelegateApprovals,
		&rec.TotalValueUSD,
		&rec.ResultJSON,
	)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
