// Package store keeps a local sqlite history of the transactions this
// server has submitted.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no record matches.
var ErrNotFound = errors.New("transaction not in history")

// Status values stored for a record.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Record is one submitted transaction.
type Record struct {
	ChainID     string
	TxHash      string
	Tool        string
	From        string
	To          string
	ValueWei    string
	Status      string
	BlockNumber uint64
	GasUsed     uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// History is an append-mostly table keyed by chain id and tx hash.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history database at path.
func Open(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	return OpenDSN(path)
}

// OpenDSN opens a history database from a sqlite DSN. Tests pass ":memory:".
func OpenDSN(dsn string) (*History, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &History{db: db, now: time.Now}, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS transactions (
	chain_id TEXT NOT NULL,
	tx_hash TEXT NOT NULL,
	tool TEXT NOT NULL,
	from_addr TEXT NOT NULL,
	to_addr TEXT NOT NULL,
	value_wei TEXT NOT NULL,
	status TEXT NOT NULL,
	block_number INTEGER NOT NULL DEFAULT 0,
	gas_used INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (chain_id, tx_hash)
)`,
		`CREATE INDEX IF NOT EXISTS transactions_created ON transactions (chain_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create transactions table: %w", err)
		}
	}
	return nil
}

// Close closes the underlying DB.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// RecordSubmitted stores a freshly broadcast transaction as pending.
// Re-recording the same hash keeps its original creation time.
func (h *History) RecordSubmitted(ctx context.Context, rec Record) error {
	if rec.ChainID == "" || rec.TxHash == "" {
		return errors.New("chain id and tx hash are required")
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	now := h.now().Unix()

	_, err := h.db.ExecContext(ctx, `
INSERT INTO transactions (chain_id, tx_hash, tool, from_addr, to_addr, value_wei, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(chain_id, tx_hash) DO UPDATE SET
	status=excluded.status,
	updated_at=excluded.updated_at
`, rec.ChainID, strings.ToLower(rec.TxHash), rec.Tool, rec.From, rec.To, rec.ValueWei, rec.Status, now, now)
	if err != nil {
		return fmt.Errorf("persist transaction: %w", err)
	}
	return nil
}

// RecordReceipt updates a stored transaction with its mined outcome.
func (h *History) RecordReceipt(ctx context.Context, chainID, txHash string, success bool, blockNumber, gasUsed uint64) error {
	status := StatusFailed
	if success {
		status = StatusSuccess
	}

	res, err := h.db.ExecContext(ctx, `
UPDATE transactions SET status = ?, block_number = ?, gas_used = ?, updated_at = ?
WHERE chain_id = ? AND tx_hash = ?
`, status, blockNumber, gasUsed, h.now().Unix(), chainID, strings.ToLower(txHash))
	if err != nil {
		return fmt.Errorf("persist receipt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", txHash, ErrNotFound)
	}
	return nil
}

const selectColumns = `chain_id, tx_hash, tool, from_addr, to_addr, value_wei, status, block_number, gas_used, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec              Record
		created, updated int64
	)
	err := row.Scan(&rec.ChainID, &rec.TxHash, &rec.Tool, &rec.From, &rec.To, &rec.ValueWei,
		&rec.Status, &rec.BlockNumber, &rec.GasUsed, &created, &updated)
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = time.Unix(created, 0).UTC()
	rec.UpdatedAt = time.Unix(updated, 0).UTC()
	return rec, nil
}

// Get returns one transaction by hash.
func (h *History) Get(ctx context.Context, chainID, txHash string) (*Record, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE chain_id = ? AND tx_hash = ?`,
		chainID, strings.ToLower(txHash),
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", txHash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read transaction: %w", err)
	}
	return &rec, nil
}

// Recent returns up to limit transactions on chainID, newest first.
func (h *History) Recent(ctx context.Context, chainID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM transactions WHERE chain_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		chainID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("read transaction: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
