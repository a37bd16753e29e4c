package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"hosts", "events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestRegisterHost_AssignsCreationOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterHost(ctx, "b-host", "game-activity"))
	require.NoError(t, s.RegisterHost(ctx, "a-host", "native-activity"))

	hosts, err := s.ListHosts(ctx)
	require.NoError(t, err)
	want := []HostInfo{
		{ID: "b-host", Backend: "game-activity", CreatedSeq: 1},
		{ID: "a-host", Backend: "native-activity", CreatedSeq: 2},
	}
	if diff := cmp.Diff(want, hosts); diff != "" {
		t.Errorf("ListHosts() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterHost_ReplacesTrace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterHost(ctx, "h", "native-activity"))
	rec := s.NewRecorder(ctx)
	rec.EventSettled("h", 1, "acked")
	require.NoError(t, rec.Err())

	trace, err := s.ReadTrace(ctx, "h")
	require.NoError(t, err)
	require.Len(t, trace, 1)

	require.NoError(t, s.RegisterHost(ctx, "h", "game-activity"))

	trace, err = s.ReadTrace(ctx, "h")
	require.NoError(t, err)
	assert.Empty(t, trace)

	hosts, err := s.ListHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "game-activity", hosts[0].Backend)
	assert.Equal(t, int64(1), hosts[0].CreatedSeq, "re-registering keeps the creation position")
}

func TestReadTrace_UnknownHost(t *testing.T) {
	s := createTestStore(t)

	trace, err := s.ReadTrace(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, trace)
	assert.Empty(t, trace)
}

func TestListHosts_Empty(t *testing.T) {
	s := createTestStore(t)

	hosts, err := s.ListHosts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, hosts)
	assert.Empty(t, hosts)
}
