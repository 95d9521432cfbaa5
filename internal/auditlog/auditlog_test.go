package auditlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	require.NoError(t, Append(dir, []Entry{
		{Timestamp: ts, Action: ActionCommitted, InvoiceID: "id1", Number: "FAC-2025-001", Vendor: "Viveros García"},
	}))
	require.NoError(t, Append(dir, []Entry{
		{Timestamp: ts.Add(time.Hour), Action: ActionForced, InvoiceID: "id2", Number: "FAC-2025-002", Vendor: "Viveros García", ConflictingIDs: []string{"id1", "idx"}},
		{Timestamp: ts.Add(2 * time.Hour), Action: ActionDiscarded, Vendor: "Maquinaria Pérez"},
	}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, ActionCommitted, entries[0].Action)
	assert.Equal(t, "FAC-2025-001", entries[0].Number)
	assert.Equal(t, ts, entries[0].Timestamp)

	assert.Equal(t, []string{"id1", "idx"}, entries[1].ConflictingIDs)
	assert.Empty(t, entries[2].ConflictingIDs)
	assert.Empty(t, entries[2].InvoiceID, "discards have no record")
}

func TestRead_MissingLogIsEmpty(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppend_NoEntriesNoFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, nil))
	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
