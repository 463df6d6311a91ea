/*
Package sqlite provides SQLite-backed persistence for contract records.

PURPOSE:
  Stores extracted contract records and their analysis narratives. Schedules
  are NOT stored: the engine is deterministic, so a schedule is always
  recomputed from the contract record on demand. That keeps the stored data
  the single source of truth and makes engine fixes retroactive for free.

KEY TABLE:
  contracts: One row per analyzed or manually entered contract. Core terms
  live in typed columns; the obligations list and the five-step analysis
  ride along as JSON blobs.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/contracts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/contract.go: ContractData, the stored record's core
  - api/handlers.go: The only caller
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/revenue-engine/engine"
)

// Store persists contract records in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL DEFAULT '',
		vendor_name TEXT NOT NULL DEFAULT '',
		contract_start_date TEXT NOT NULL DEFAULT '',
		contract_end_date TEXT NOT NULL DEFAULT '',
		total_contract_value TEXT NOT NULL DEFAULT '',
		payment_terms TEXT NOT NULL DEFAULT '',
		obligations_json TEXT,
		contract_type TEXT NOT NULL DEFAULT '',
		analysis_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_customer
		ON contracts(customer_name);
	CREATE INDEX IF NOT EXISTS idx_contracts_created_at
		ON contracts(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

// ContractRecord is a stored contract with its analysis artifacts.
type ContractRecord struct {
	ID           string
	Data         engine.ContractData
	ContractType string
	AnalysisJSON string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SaveContract inserts or fully replaces a contract record.
func (s *Store) SaveContract(ctx context.Context, rec ContractRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obligationsJSON, err := json.Marshal(rec.Data.Obligations)
	if err != nil {
		return fmt.Errorf("failed to encode obligations: %w", err)
	}

	query := `
		INSERT INTO contracts
		(id, customer_name, vendor_name, contract_start_date, contract_end_date,
		 total_contract_value, payment_terms, obligations_json, contract_type,
		 analysis_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_name = excluded.customer_name,
			vendor_name = excluded.vendor_name,
			contract_start_date = excluded.contract_start_date,
			contract_end_date = excluded.contract_end_date,
			total_contract_value = excluded.total_contract_value,
			payment_terms = excluded.payment_terms,
			obligations_json = excluded.obligations_json,
			contract_type = excluded.contract_type,
			analysis_json = excluded.analysis_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Data.CustomerName,
		rec.Data.VendorName,
		rec.Data.StartDate,
		rec.Data.EndDate,
		rec.Data.TotalValue.String(),
		rec.Data.PaymentTerms,
		string(obligationsJSON),
		rec.ContractType,
		nullString(rec.AnalysisJSON),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

// GetContract retrieves a contract by ID. Returns (nil, nil) when absent.
func (s *Store) GetContract(ctx context.Context, id string) (*ContractRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, vendor_name, contract_start_date, contract_end_date,
		       total_contract_value, payment_terms, obligations_json, contract_type,
		       analysis_json, created_at, updated_at
		FROM contracts WHERE id = ?
	`, id)

	rec, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListContracts returns all contracts, most recent first.
func (s *Store) ListContracts(ctx context.Context) ([]ContractRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, vendor_name, contract_start_date, contract_end_date,
		       total_contract_value, payment_terms, obligations_json, contract_type,
		       analysis_json, created_at, updated_at
		FROM contracts
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var records []ContractRecord
	for rows.Next() {
		rec, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteContract removes a contract. Deleting an absent ID is not an error.
func (s *Store) DeleteContract(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM contracts WHERE id = ?", id)
	return err
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM contracts")
	return err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (*ContractRecord, error) {
	var (
		rec                  ContractRecord
		totalValue           string
		obligationsJSON      sql.NullString
		analysisJSON         sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&rec.ID,
		&rec.Data.CustomerName,
		&rec.Data.VendorName,
		&rec.Data.StartDate,
		&rec.Data.EndDate,
		&totalValue,
		&rec.Data.PaymentTerms,
		&obligationsJSON,
		&rec.ContractType,
		&analysisJSON,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}

	rec.Data.TotalValue = engine.ValueText(totalValue)
	if obligationsJSON.Valid && strings.TrimSpace(obligationsJSON.String) != "" {
		if err := json.Unmarshal([]byte(obligationsJSON.String), &rec.Data.Obligations); err != nil {
			return nil, fmt.Errorf("failed to decode obligations: %w", err)
		}
	}
	rec.AnalysisJSON = analysisJSON.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
