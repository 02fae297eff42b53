package integration

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(t *testing.T, kind SyncKind) *SyncJob {
	t.Helper()
	job, err := NewSyncJob(uuid.New(), uuid.New(), MarketplaceMercadoLivre, kind, SyncJobOptions{})
	require.NoError(t, err)
	return job
}

func TestNewSyncJob(t *testing.T) {
	t.Run("creates pending job", func(t *testing.T) {
		tenantID := uuid.New()
		accountID := uuid.New()

		job, err := NewSyncJob(tenantID, accountID, MarketplaceShopee, SyncKindExport, SyncJobOptions{
			SKUs: []string{"SKU-1", "SKU-2"},
		})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, job.ID)
		assert.Equal(t, tenantID, job.TenantID)
		assert.Equal(t, accountID, job.AccountID)
		assert.Equal(t, MarketplaceShopee, job.Marketplace)
		assert.Equal(t, SyncKindExport, job.Kind)
		assert.Equal(t, SyncJobStatusPending, job.Status)
		assert.Equal(t, 0, job.Progress)
		assert.Nil(t, job.StartedAt)
		assert.Nil(t, job.FinishedAt)
		assert.Equal(t, []string{"SKU-1", "SKU-2"}, job.Options.SKUs)
	})

	t.Run("rejects nil tenant ID", func(t *testing.T) {
		_, err := NewSyncJob(uuid.Nil, uuid.New(), MarketplaceShopee, SyncKindExport, SyncJobOptions{})
		assert.ErrorIs(t, err, ErrMappingInvalidAccountID)
	})

	t.Run("rejects nil account ID", func(t *testing.T) {
		_, err := NewSyncJob(uuid.New(), uuid.Nil, MarketplaceShopee, SyncKindExport, SyncJobOptions{})
		assert.ErrorIs(t, err, ErrMappingInvalidAccountID)
	})

	t.Run("rejects unknown marketplace", func(t *testing.T) {
		_, err := NewSyncJob(uuid.New(), uuid.New(), MarketplaceCode("EBAY"), SyncKindExport, SyncJobOptions{})
		assert.ErrorIs(t, err, ErrInvalidMarketplaceCode)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := NewSyncJob(uuid.New(), uuid.New(), MarketplaceShopee, SyncKind("PURGE"), SyncJobOptions{})
		assert.ErrorIs(t, err, ErrInvalidJobTransition)
	})
}

func TestSyncJob_Start(t *testing.T) {
	t.Run("moves pending job to processing", func(t *testing.T) {
		job := newTestJob(t, SyncKindImport)

		err := job.Start()
		require.NoError(t, err)

		assert.Equal(t, SyncJobStatusProcessing, job.Status)
		require.NotNil(t, job.StartedAt)
	})

	t.Run("rejects start of a processing job", func(t *testing.T) {
		job := newTestJob(t, SyncKindImport)
		require.NoError(t, job.Start())

		assert.ErrorIs(t, job.Start(), ErrInvalidJobTransition)
	})
}

func TestSyncJob_Complete(t *testing.T) {
	t.Run("completes a processing job", func(t *testing.T) {
		job := newTestJob(t, SyncKindStock)
		require.NoError(t, job.Start())

		err := job.Complete()
		require.NoError(t, err)

		assert.Equal(t, SyncJobStatusCompleted, job.Status)
		assert.Equal(t, 100, job.Progress)
		require.NotNil(t, job.FinishedAt)
	})

	t.Run("completes despite per-item failures", func(t *testing.T) {
		job := newTestJob(t, SyncKindStock)
		require.NoError(t, job.Start())
		job.SetTotal(2)
		job.RecordItem(true)
		job.RecordItem(false)

		require.NoError(t, job.Complete())
		assert.Equal(t, SyncJobStatusCompleted, job.Status)
		assert.Equal(t, 1, job.FailedItems)
	})

	t.Run("rejects completion of a pending job", func(t *testing.T) {
		job := newTestJob(t, SyncKindStock)
		assert.ErrorIs(t, job.Complete(), ErrInvalidJobTransition)
	})
}

func TestSyncJob_Fail(t *testing.T) {
	t.Run("fails a processing job with a reason", func(t *testing.T) {
		job := newTestJob(t, SyncKindPrice)
		require.NoError(t, job.Start())

		err := job.Fail("credentials expired")
		require.NoError(t, err)

		assert.Equal(t, SyncJobStatusFailed, job.Status)
		assert.Equal(t, "credentials expired", job.Error)
		require.NotNil(t, job.FinishedAt)
	})

	t.Run("fails a pending job", func(t *testing.T) {
		job := newTestJob(t, SyncKindPrice)
		require.NoError(t, job.Fail("queue poison"))
		assert.Equal(t, SyncJobStatusFailed, job.Status)
	})

	t.Run("rejects fail on a terminal job", func(t *testing.T) {
		job := newTestJob(t, SyncKindPrice)
		require.NoError(t, job.Start())
		require.NoError(t, job.Complete())

		assert.ErrorIs(t, job.Fail("too late"), ErrInvalidJobTransition)
	})
}

func TestSyncJob_Cancel(t *testing.T) {
	t.Run("cancels a pending job", func(t *testing.T) {
		job := newTestJob(t, SyncKindCustomer)

		require.NoError(t, job.Cancel())
		assert.Equal(t, SyncJobStatusCancelled, job.Status)
		require.NotNil(t, job.FinishedAt)
	})

	t.Run("cancels a processing job", func(t *testing.T) {
		job := newTestJob(t, SyncKindCustomer)
		require.NoError(t, job.Start())

		require.NoError(t, job.Cancel())
		assert.Equal(t, SyncJobStatusCancelled, job.Status)
	})

	t.Run("rejects cancel on a terminal job", func(t *testing.T) {
		job := newTestJob(t, SyncKindCustomer)
		require.NoError(t, job.Start())
		require.NoError(t, job.Complete())

		assert.ErrorIs(t, job.Cancel(), ErrJobNotCancellable)
	})
}

func TestSyncJob_Retry(t *testing.T) {
	t.Run("resets a failed job to pending", func(t *testing.T) {
		job := newTestJob(t, SyncKindExport)
		require.NoError(t, job.Start())
		job.SetTotal(10)
		job.RecordItem(true)
		job.RecordItem(false)
		require.NoError(t, job.Fail("marketplace outage"))

		err := job.Retry()
		require.NoError(t, err)

		assert.Equal(t, SyncJobStatusPending, job.Status)
		assert.Equal(t, 0, job.Progress)
		assert.Equal(t, 0, job.ProcessedItems)
		assert.Equal(t, 0, job.FailedItems)
		assert.Equal(t, 0, job.TotalItems)
		assert.Empty(t, job.Error)
		assert.Nil(t, job.StartedAt)
		assert.Nil(t, job.FinishedAt)
	})

	t.Run("resets a cancelled job to pending", func(t *testing.T) {
		job := newTestJob(t, SyncKindExport)
		require.NoError(t, job.Cancel())

		require.NoError(t, job.Retry())
		assert.Equal(t, SyncJobStatusPending, job.Status)
	})

	t.Run("rejects retry of a completed job", func(t *testing.T) {
		job := newTestJob(t, SyncKindExport)
		require.NoError(t, job.Start())
		require.NoError(t, job.Complete())

		assert.ErrorIs(t, job.Retry(), ErrJobNotRetryable)
	})

	t.Run("rejects retry of a pending job", func(t *testing.T) {
		job := newTestJob(t, SyncKindExport)
		assert.ErrorIs(t, job.Retry(), ErrJobNotRetryable)
	})
}

func TestSyncJob_RecordItem(t *testing.T) {
	t.Run("recomputes progress from counters", func(t *testing.T) {
		job := newTestJob(t, SyncKindImport)
		require.NoError(t, job.Start())
		job.SetTotal(3)

		job.RecordItem(true)
		assert.Equal(t, 33, job.Progress)

		job.RecordItem(false)
		assert.Equal(t, 67, job.Progress)

		job.RecordItem(true)
		assert.Equal(t, 100, job.Progress)

		assert.Equal(t, 2, job.ProcessedItems)
		assert.Equal(t, 1, job.FailedItems)
	})

	t.Run("progress never decreases", func(t *testing.T) {
		job := newTestJob(t, SyncKindImport)
		require.NoError(t, job.Start())
		job.SetTotal(2)
		job.RecordItem(true)
		job.RecordItem(true)
		assert.Equal(t, 100, job.Progress)

		// A late total adjustment must not wind progress back.
		job.SetTotal(10)
		job.RecordItem(true)
		assert.Equal(t, 100, job.Progress)
	})

	t.Run("keeps progress at zero without a total", func(t *testing.T) {
		job := newTestJob(t, SyncKindImport)
		require.NoError(t, job.Start())

		job.RecordItem(true)
		assert.Equal(t, 0, job.Progress)
		assert.Equal(t, 1, job.ProcessedItems)
	})
}

func TestSyncKind(t *testing.T) {
	t.Run("validity", func(t *testing.T) {
		for _, kind := range AllSyncKinds() {
			assert.True(t, kind.IsValid(), kind.String())
		}
		assert.False(t, SyncKind("PURGE").IsValid())
		assert.False(t, SyncKind("").IsValid())
	})

	t.Run("one queue per kind", func(t *testing.T) {
		assert.Len(t, AllSyncKinds(), 6)
	})
}

func TestSyncJobStatus(t *testing.T) {
	cases := []struct {
		status   SyncJobStatus
		valid    bool
		terminal bool
	}{
		{SyncJobStatusPending, true, false},
		{SyncJobStatusProcessing, true, false},
		{SyncJobStatusCompleted, true, true},
		{SyncJobStatusFailed, true, true},
		{SyncJobStatusCancelled, true, true},
		{SyncJobStatus("UNKNOWN"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.status.String(), func(t *testing.T) {
			assert.Equal(t, tc.valid, tc.status.IsValid())
			assert.Equal(t, tc.terminal, tc.status.IsTerminal())
		})
	}
}

func TestSyncLog(t *testing.T) {
	t.Run("new log starts successful", func(t *testing.T) {
		job := newTestJob(t, SyncKindExport)

		log := NewSyncLog(job, "SKU-9", SyncActionCreate)

		assert.Equal(t, job.ID, log.JobID)
		assert.Equal(t, job.TenantID, log.TenantID)
		assert.Equal(t, "SKU-9", log.SKU)
		assert.Equal(t, SyncActionCreate, log.Action)
		assert.True(t, log.Success)
		assert.Empty(t, log.Error)
	})

	t.Run("mark failed records the reason", func(t *testing.T) {
		job := newTestJob(t, SyncKindExport)
		log := NewSyncLog(job, "SKU-9", SyncActionUpdate)

		log.MarkFailed(errors.New("listing rejected"))

		assert.False(t, log.Success)
		assert.Equal(t, "listing rejected", log.Error)
	})
}
