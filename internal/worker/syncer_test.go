package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/crm"
	"github.com/qs3c/salesdash_go_server/internal/model"
	"github.com/qs3c/salesdash_go_server/internal/repository"
	"github.com/qs3c/salesdash_go_server/internal/testutil"
)

func setupSyncer(t *testing.T, crmURL string) (*Syncer, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	client := crm.NewClient(&config.CRMConfig{BaseURL: crmURL, Token: "token"})
	syncer := NewSyncer(client,
		repository.NewJobRepository(db),
		repository.NewHistoryRepository(db),
		&config.SyncConfig{ActivityLimit: 100})
	return syncer, db
}

func fakeSyncCRM(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/jobs":
			fmt.Fprint(w, `{"results":[
				{"jnid":"j1","type":"job","record_type_name":"Roof Replacement","status_name":"Signed Contract","date_created":1700000000,"date_status_change":1700200000},
				{"jnid":"j2","type":"job","record_type_name":"Repairs","status_name":"Lead","date_created":1700000000}
			]}`)
		case r.URL.Path == "/account/settings":
			fmt.Fprint(w, `{"workflows":[{"id":1,"name":"Sales","status":[
				{"id":10,"name":"Lead"},{"id":11,"name":"Estimating"},{"id":12,"name":"Signed Contract"}
			]}]}`)
		case r.URL.Path == "/activities" && strings.Contains(r.URL.Query().Get("filter"), "j1"):
			fmt.Fprint(w, `{"activity":[
				{"jnid":"a1","is_status_change":true,"date_created":1700000000,"primary":{"id":"j1","type":"job","new_status":10}},
				{"jnid":"a2","is_status_change":true,"date_created":1700100000,"primary":{"id":"j1","type":"job","new_status":11}},
				{"jnid":"a3","is_status_change":true,"date_created":1700200000,"primary":{"id":"j1","type":"job","new_status":12}},
				{"jnid":"a4","is_status_change":false,"date_created":1700300000,"primary":{"id":"j1","type":"job"}}
			]}`)
		case r.URL.Path == "/activities":
			fmt.Fprint(w, `{"activity":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSyncer_Run(t *testing.T) {
	srv := fakeSyncCRM(t)
	defer srv.Close()

	syncer, db := setupSyncer(t, srv.URL)

	stats, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.JobsSynced)
	assert.Equal(t, 0, stats.Errors)
	// j1: three replayed status changes; j2: seeded current status
	assert.Equal(t, 4, stats.HistoryAppended)

	var job model.Job
	require.NoError(t, db.First(&job, "id = ?", "j1").Error)
	assert.Equal(t, "Signed Contract", job.StatusName)
	assert.Equal(t, "Sold", job.Stage)
	assert.True(t, job.IsWon)

	historyRepo := repository.NewHistoryRepository(db)
	entries, err := historyRepo.ListByJobID("j1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Lead", entries[0].StatusName)
	assert.Equal(t, "Estimating", entries[1].StatusName)
	assert.Equal(t, "Signed Contract", entries[2].StatusName)

	// j2 has no activities: current status is seeded once
	entries, err = historyRepo.ListByJobID("j2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Lead", entries[0].StatusName)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), entries[0].ChangedAt.UTC())
}

func TestSyncer_Run_Idempotent(t *testing.T) {
	srv := fakeSyncCRM(t)
	defer srv.Close()

	syncer, db := setupSyncer(t, srv.URL)
	ctx := context.Background()

	_, err := syncer.Run(ctx)
	require.NoError(t, err)

	stats, err := syncer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.JobsSynced)
	assert.Equal(t, 0, stats.HistoryAppended, "replayed rows deduplicated on rerun")

	var historyCount int64
	db.Model(&model.JobStatusHistory{}).Count(&historyCount)
	assert.Equal(t, int64(4), historyCount)
}

func TestSyncer_Run_JobLimit(t *testing.T) {
	srv := fakeSyncCRM(t)
	defer srv.Close()

	syncer, _ := setupSyncer(t, srv.URL)
	syncer.jobLimit = 1

	stats, err := syncer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.JobsSynced)
}

func TestSyncer_Run_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	syncer, _ := setupSyncer(t, srv.URL)

	_, err := syncer.Run(context.Background())
	assert.Error(t, err)
}
