package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/bidsim/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLot(name string) schema.LotConfig {
	partial := 1.5
	return schema.LotConfig{
		Name:         name,
		BaseAmount:   1_000_000,
		MaxTechScore: 60,
		MaxEconScore: 40,
		Alpha:        0.3,
		CompanyCerts: []schema.CompanyCert{{Label: "ISO 9001", Points: 3, PointsPartial: &partial, GaraWeight: 2}},
		Reqs: []schema.Requirement{
			{ID: "R1", Type: schema.ResourceReq, Label: "Team", MaxPoints: 10, GaraWeight: 8, Resource: &schema.ResourceSpec{ProfR: 2, ProfC: 3}},
		},
	}
}

// TestNewLotStore_InvalidTableName tests that unsafe identifiers are rejected.
func TestNewLotStore_InvalidTableName(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{"empty", ""},
		{"injection", "lots; DROP TABLE x"},
		{"leading digit", "1lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLotStore(tt.table, schema.NoneBackend, "")
			assert.Error(t, err)
		})
	}
}

// TestLotStore_Backends tests the CRUD contract on the in-memory and SQLite backends.
func TestLotStore_Backends(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
	}{
		{"none", schema.NoneBackend, ""},
		{"sqlite memory", schema.SQLiteBackend, ":memory:"},
		{"sqlite file", schema.SQLiteBackend, filepath.Join(t.TempDir(), "lots.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewLotStore(lotTable, tt.backend, tt.connStr)
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			_, _, err = store.Get("missing")
			assert.ErrorIs(t, err, ErrLotNotFound)

			first := time.Unix(1_700_000_000, 0)
			require.NoError(t, store.Put("lotto-2", sampleLot("Lotto 2"), first))
			require.NoError(t, store.Put("lotto-1", sampleLot("Lotto 1"), first.Add(time.Hour)))

			got, updated, err := store.Get("lotto-1")
			require.NoError(t, err)
			assert.Equal(t, sampleLot("Lotto 1"), got)
			assert.Equal(t, first.Add(time.Hour).Unix(), updated.Unix())

			// overwrite keeps a single row
			replaced := sampleLot("Lotto 1 bis")
			require.NoError(t, store.Put("lotto-1", replaced, first.Add(2*time.Hour)))
			got, _, err = store.Get("lotto-1")
			require.NoError(t, err)
			assert.Equal(t, "Lotto 1 bis", got.Name)

			list, err := store.List()
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "lotto-1", list[0].LotID)
			assert.Equal(t, "lotto-2", list[1].LotID)
			assert.Equal(t, 1, list[0].Requirements)
			assert.Equal(t, 1_000_000.0, list[0].BaseAmount)

			status, err := store.GetStatus()
			require.NoError(t, err)
			assert.True(t, status.Connected)
			assert.Equal(t, string(tt.backend), status.Backend)
			assert.Equal(t, 2, status.TotalLots)
			assert.Equal(t, first.Unix(), status.OldestEntryTime.Unix())
			assert.Equal(t, first.Add(2*time.Hour).Unix(), status.LastUpdateTime.Unix())

			require.NoError(t, store.Delete("lotto-2"))
			assert.ErrorIs(t, store.Delete("lotto-2"), ErrLotNotFound)

			list, err = store.List()
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

// TestLotStore_PutEmptyID tests that a lot needs an id.
func TestLotStore_PutEmptyID(t *testing.T) {
	store, err := NewLotStore(lotTable, schema.NoneBackend, "")
	require.NoError(t, err)
	assert.Error(t, store.Put("", sampleLot("x"), time.Now()))
}

// TestLotStore_Persistence tests that a file-backed store survives reopening.
func TestLotStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	store, err := NewLotStore(lotTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Put("lotto-1", sampleLot("Lotto 1"), time.Now()))
	require.NoError(t, store.Close())

	reopened, err := NewLotStore(lotTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, _, err := reopened.Get("lotto-1")
	require.NoError(t, err)
	assert.Equal(t, "Lotto 1", got.Name)

	status, err := reopened.GetStatus()
	require.NoError(t, err)
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

// TestClearLots tests clearing per backend.
func TestClearLots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "clear.db")
	store, err := NewLotStore(lotTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Put("lotto-1", sampleLot("Lotto 1"), time.Now()))
	require.NoError(t, store.Close())

	require.NoError(t, ClearLots(schema.SQLiteBackend, dbPath, ""))
	assert.NoFileExists(t, dbPath)

	// missing file is not an error
	assert.NoError(t, ClearLots(schema.SQLiteBackend, dbPath, ""))
	assert.Error(t, ClearLots(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearLots(schema.NoneBackend, "", ""))
	assert.Error(t, ClearLots("redis", "", ""))
}
