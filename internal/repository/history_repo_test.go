package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/salesdash_go_server/internal/testutil"
)

func TestHistoryRepository_ListByJobID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewHistoryRepository(db)
	job := testutil.TestJob(t, db)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	testutil.TestHistory(t, db, job.ID, "Estimating", "Estimating", base.Add(time.Hour))
	testutil.TestHistory(t, db, job.ID, "Lead", "Lead", base)
	// Same timestamp as the first entry: insertion order breaks the tie
	testutil.TestHistory(t, db, job.ID, "Estimate Sent", "Estimating", base.Add(time.Hour))

	entries, err := repo.ListByJobID(job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Lead", entries[0].StatusName)
	assert.Equal(t, "Estimating", entries[1].StatusName)
	assert.Equal(t, "Estimate Sent", entries[2].StatusName)
}

func TestHistoryRepository_ListByRecordType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewHistoryRepository(db)
	roof := testutil.TestJob(t, db)
	repair := testutil.TestJob(t, db, testutil.WithRecordType("Repairs"))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	testutil.TestHistory(t, db, roof.ID, "Lead", "Lead", base)
	testutil.TestHistory(t, db, repair.ID, "Lead", "Lead", base)

	entries, err := repo.ListByRecordType("Roof Replacement")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, roof.ID, entries[0].JobID)
}

func TestHistoryRepository_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewHistoryRepository(db)
	job := testutil.TestJob(t, db)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	testutil.TestHistory(t, db, job.ID, "Lead", "Lead", at)

	exists, err := repo.Exists(job.ID, "Lead", at)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(job.ID, "Estimating", at)
	require.NoError(t, err)
	assert.False(t, exists)
}
