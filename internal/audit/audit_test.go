package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndFilter(t *testing.T) {
	l := OpenMemory()
	require.NoError(t, l.Append("alice", ActionPlacement, "I1", "placed"))
	require.NoError(t, l.Append("bob", ActionRetrieval, "I1", "retrieved"))
	require.NoError(t, l.Append("alice", ActionRetrieval, "I2", "retrieved"))

	all := l.Filter(Query{})
	require.Len(t, all, 3)
	assert.Equal(t, "I2", all[0].ItemID, "newest first")

	byUser := l.Filter(Query{UserID: "alice"})
	assert.Len(t, byUser, 2)

	byAction := l.Filter(Query{ActionType: ActionRetrieval})
	assert.Len(t, byAction, 2)

	byItem := l.Filter(Query{ItemID: "I1", ActionType: ActionPlacement})
	require.Len(t, byItem, 1)
	assert.Equal(t, "alice", byItem[0].UserID)
}

func TestFilter_DateRange(t *testing.T) {
	l := OpenMemory()
	require.NoError(t, l.Append("u", ActionImport, "", "x"))

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	assert.Len(t, l.Filter(Query{From: past, To: future}), 1)
	assert.Empty(t, l.Filter(Query{To: past}))
	assert.Empty(t, l.Filter(Query{From: future}))
}

func TestEntriesHaveIDsAndTimestamps(t *testing.T) {
	l := OpenMemory()
	require.NoError(t, l.Append("u", ActionUndocking, "", "done"))

	e := l.Filter(Query{})[0]
	assert.NotEmpty(t, e.LogID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, time.UTC, e.Timestamp.Location())
}

func TestLogPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.json")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Append("u", ActionPlacement, "I1", "placed"))

	reopened, err := Open(path)
	require.NoError(t, err)
	entries := reopened.Filter(Query{})
	require.Len(t, entries, 1)
	assert.Equal(t, "I1", entries[0].ItemID)
}
