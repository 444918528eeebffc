package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(nil, time.Hour)
}

func TestCreateJob_StartsQueued(t *testing.T) {
	s := newTestStore()
	defer s.Close()
	ctx := t.Context()

	id := s.CreateJob(ctx, "owner-1")
	require.NotEmpty(t, id)

	job, err := s.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusQueued, job.Status)
	require.Equal(t, "owner-1", job.OwnerID)
}

func TestJobLifecycle_QueuedToCompleted(t *testing.T) {
	s := newTestStore()
	defer s.Close()
	ctx := t.Context()

	id := s.CreateJob(ctx, "owner-1")
	require.NoError(t, s.SetProcessing(ctx, id))

	job, err := s.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, job.Status)

	require.NoError(t, s.SetResult(ctx, id, `{"overall_band":7.0}`))

	job, err = s.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, job.Status)
	require.Equal(t, `{"overall_band":7.0}`, job.Payload)
}

func TestSetResult_IsIdempotentAfterTerminal(t *testing.T) {
	s := newTestStore()
	defer s.Close()
	ctx := t.Context()

	id := s.CreateJob(ctx, "owner-1")
	require.NoError(t, s.SetError(ctx, id, "stt-failed"))
	require.NoError(t, s.SetResult(ctx, id, `{"overall_band":7.0}`))

	job, err := s.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusError, job.Status, "terminal error state must not be overwritten by a later set_result")
	require.Equal(t, "stt-failed", job.Error)
}

func TestGetStatus_UnknownJobIsNotFound(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	_, err := s.GetStatus(t.Context(), "does-not-exist")
	require.Error(t, err)
}

func TestVerifyOwner(t *testing.T) {
	s := newTestStore()
	defer s.Close()
	ctx := t.Context()

	id := s.CreateJob(ctx, "owner-1")

	ok, err := s.VerifyOwner(ctx, id, "owner-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.VerifyOwner(ctx, id, "someone-else")
	require.NoError(t, err)
	require.False(t, ok)
}
