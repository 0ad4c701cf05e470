package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/bidsim/internal/contract"
	"github.com/huangsam/bidsim/schema"
)

// lotTable is the name of the table holding lot documents.
const lotTable = "lot_configs"

// storedLot is one row of the lot table, also used by the in-memory backend.
type storedLot struct {
	value     []byte
	updatedAt int64
}

// LotStoreImpl stores lot documents as JSON keyed by lot id.
// The none backend keeps them in memory for the life of the process.
type LotStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string

	mu     sync.RWMutex
	memory map[string]storedLot
}

var _ contract.LotStore = &LotStoreImpl{} // Compile-time check

// NewLotStore initializes and returns a new LotStore based on the backend type.
func NewLotStore(tableName string, backend schema.DatabaseBackend, connStr string) (*LotStoreImpl, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	if backend == schema.NoneBackend {
		return &LotStoreImpl{
			tableName: tableName,
			backend:   backend,
			memory:    make(map[string]storedLot),
		}, nil
	}

	db, err := openDB(backend, connStr, contract.GetLotDBFilePath())
	if err != nil {
		return nil, err
	}

	query := getCreateLotTableQuery(tableName, backend)
	if _, err := db.Exec(query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &LotStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}, nil
}

// getCreateLotTableQuery returns the CREATE TABLE query for the given backend.
func getCreateLotTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				lot_id VARCHAR(255) PRIMARY KEY,
				lot_value LONGBLOB NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				lot_id TEXT PRIMARY KEY,
				lot_value BYTEA NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				lot_id TEXT PRIMARY KEY,
				lot_value BLOB NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// Get retrieves a lot by id.
func (ls *LotStoreImpl) Get(lotID string) (schema.LotConfig, time.Time, error) {
	row, err := ls.getRow(lotID)
	if err != nil {
		return schema.LotConfig{}, time.Time{}, err
	}
	var lot schema.LotConfig
	if err := json.Unmarshal(row.value, &lot); err != nil {
		return schema.LotConfig{}, time.Time{}, fmt.Errorf("failed to decode lot %q: %w", lotID, err)
	}
	return lot, time.Unix(row.updatedAt, 0), nil
}

func (ls *LotStoreImpl) getRow(lotID string) (storedLot, error) {
	if ls.db == nil {
		ls.mu.RLock()
		defer ls.mu.RUnlock()
		row, ok := ls.memory[lotID]
		if !ok {
			return storedLot{}, fmt.Errorf("%w: %q", ErrLotNotFound, lotID)
		}
		return row, nil
	}

	var row storedLot
	query := rebind(ls.backend, fmt.Sprintf(`SELECT lot_value, updated_at FROM %s WHERE lot_id = ?`, quoteTableName(ls.tableName, ls.backend)))
	if err := ls.db.QueryRow(query, lotID).Scan(&row.value, &row.updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storedLot{}, fmt.Errorf("%w: %q", ErrLotNotFound, lotID)
		}
		return storedLot{}, fmt.Errorf("failed to read lot %q: %w", lotID, err)
	}
	return row, nil
}

// Put inserts or replaces a lot.
func (ls *LotStoreImpl) Put(lotID string, lot schema.LotConfig, updatedAt time.Time) error {
	if lotID == "" {
		return errors.New("lot id cannot be empty")
	}
	value, err := json.Marshal(lot)
	if err != nil {
		return fmt.Errorf("failed to encode lot %q: %w", lotID, err)
	}

	if ls.db == nil {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		ls.memory[lotID] = storedLot{value: value, updatedAt: updatedAt.Unix()}
		return nil
	}

	// Use backend-specific UPSERT
	if _, err := ls.db.Exec(ls.getUpsertQuery(), lotID, value, updatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to store lot %q: %w", lotID, err)
	}
	return nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ls *LotStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(ls.tableName, ls.backend)
	switch ls.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (lot_id, lot_value, updated_at) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE lot_value = new.lot_value, updated_at = new.updated_at`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (lot_id, lot_value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (lot_id) DO UPDATE SET lot_value = EXCLUDED.lot_value, updated_at = EXCLUDED.updated_at`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (lot_id, lot_value, updated_at) VALUES (?, ?, ?)`, quotedTableName)
	}
}

// Delete removes a lot by id.
func (ls *LotStoreImpl) Delete(lotID string) error {
	if ls.db == nil {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if _, ok := ls.memory[lotID]; !ok {
			return fmt.Errorf("%w: %q", ErrLotNotFound, lotID)
		}
		delete(ls.memory, lotID)
		return nil
	}

	query := rebind(ls.backend, fmt.Sprintf(`DELETE FROM %s WHERE lot_id = ?`, quoteTableName(ls.tableName, ls.backend)))
	res, err := ls.db.Exec(query, lotID)
	if err != nil {
		return fmt.Errorf("failed to delete lot %q: %w", lotID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrLotNotFound, lotID)
	}
	return nil
}

// List returns a summary of every stored lot, ordered by id.
func (ls *LotStoreImpl) List() ([]schema.LotSummary, error) {
	rows, err := ls.allRows()
	if err != nil {
		return nil, err
	}

	ids := slices.Sorted(maps.Keys(rows))
	out := make([]schema.LotSummary, 0, len(ids))
	for _, id := range ids {
		var lot schema.LotConfig
		if err := json.Unmarshal(rows[id].value, &lot); err != nil {
			return nil, fmt.Errorf("failed to decode lot %q: %w", id, err)
		}
		out = append(out, schema.LotSummary{
			LotID:        id,
			Name:         lot.Name,
			BaseAmount:   lot.BaseAmount,
			Requirements: len(lot.Reqs),
			UpdatedAt:    time.Unix(rows[id].updatedAt, 0),
		})
	}
	return out, nil
}

func (ls *LotStoreImpl) allRows() (map[string]storedLot, error) {
	if ls.db == nil {
		ls.mu.RLock()
		defer ls.mu.RUnlock()
		return maps.Clone(ls.memory), nil
	}

	query := fmt.Sprintf(`SELECT lot_id, lot_value, updated_at FROM %s`, quoteTableName(ls.tableName, ls.backend))
	rows, err := ls.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]storedLot)
	for rows.Next() {
		var id string
		var row storedLot
		if err := rows.Scan(&id, &row.value, &row.updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		out[id] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}
	return out, nil
}

// Close closes the underlying DB connection.
func (ls *LotStoreImpl) Close() error {
	if ls.db != nil {
		return ls.db.Close()
	}
	return nil
}

// GetStatus returns status information about the lot store.
func (ls *LotStoreImpl) GetStatus() (schema.LotStoreStatus, error) {
	status := schema.LotStoreStatus{
		Backend:   string(ls.backend),
		Connected: ls.db != nil || ls.backend == schema.NoneBackend,
	}

	if ls.db == nil {
		ls.mu.RLock()
		defer ls.mu.RUnlock()
		status.TotalLots = len(ls.memory)
		for _, row := range ls.memory {
			t := time.Unix(row.updatedAt, 0)
			if t.After(status.LastUpdateTime) {
				status.LastUpdateTime = t
			}
			if status.OldestEntryTime.IsZero() || t.Before(status.OldestEntryTime) {
				status.OldestEntryTime = t
			}
		}
		return status, nil
	}

	quotedTableName := quoteTableName(ls.tableName, ls.backend)

	// Get total entries
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)
	if err := ls.db.QueryRow(countQuery).Scan(&status.TotalLots); err != nil {
		return status, fmt.Errorf("failed to get total lots: %w", err)
	}

	if status.TotalLots == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	rangeQuery := fmt.Sprintf("SELECT MAX(updated_at), MIN(updated_at) FROM %s", quotedTableName)
	if err := ls.db.QueryRow(rangeQuery).Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get update times: %w", err)
	}
	status.LastUpdateTime = time.Unix(lastTs, 0)
	status.OldestEntryTime = time.Unix(oldestTs, 0)

	status.TableSizeBytes = ls.tableSize(status.TotalLots)
	return status, nil
}

// tableSize estimates the on-disk size of the lot table.
func (ls *LotStoreImpl) tableSize(rows int) int64 {
	// Rough estimate used whenever the backend-specific query fails
	fallback := int64(rows) * 4000

	var size int64
	switch ls.backend {
	case schema.SQLiteBackend:
		if err := ls.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&size); err != nil {
			return 0
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(ls.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback
		}
		query := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		if err := ls.db.QueryRow(query, cfg.DBName, ls.tableName).Scan(&size); err != nil {
			return fallback
		}
	case schema.PostgreSQLBackend:
		if err := ls.db.QueryRow("SELECT pg_total_relation_size($1)", ls.tableName).Scan(&size); err != nil {
			return fallback
		}
	default:
		return fallback
	}
	return size
}
