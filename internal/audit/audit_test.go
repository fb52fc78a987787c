package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpenRunsMigrations(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Health())
}

func TestRecordAndRecent(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Entry{
		Actor: "admin", Action: "object.delete", Subject: "host:printer", Result: "SUCCESS",
	}))
	require.NoError(t, l.Record(ctx, Entry{
		Actor: "admin", Action: "listener.stop", Subject: "udp:0.0.0.0:67", Result: "SUCCESS",
	}))

	entries, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "listener.stop", entries[0].Action)
	assert.Equal(t, "object.delete", entries[1].Action)
}

func TestForSubjectFiltersByExactMatch(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Entry{Actor: "admin", Action: "object.create", Subject: "host:a", Result: "SUCCESS"}))
	require.NoError(t, l.Record(ctx, Entry{Actor: "admin", Action: "object.update", Subject: "host:b", Result: "SUCCESS"}))
	require.NoError(t, l.Record(ctx, Entry{Actor: "admin", Action: "object.delete", Subject: "host:a", Result: "SUCCESS"}))

	entries, err := l.ForSubject(ctx, "host:a", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "host:a", e.Subject)
	}
}

func TestRecentDefaultsLimitWhenNonPositive(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Record(ctx, Entry{Actor: "admin", Action: "config.reload", Result: "SUCCESS"}))

	entries, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
