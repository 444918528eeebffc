package jobqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
)

// DefaultTTL is how long a job is retained after its last update (spec.md
// §4.9: "≥1h recommended").
const DefaultTTL = 2 * time.Hour

const sweepInterval = 10 * time.Minute

// localStore is the in-process, authoritative job map.
type localStore struct {
	jobs sync.Map // string -> *Job
}

func (l *localStore) put(j *Job) {
	l.jobs.Store(j.ID, j)
}

func (l *localStore) get(id string) (*Job, bool) {
	v, ok := l.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Job), true
}

func (l *localStore) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	l.jobs.Range(func(key, value any) bool {
		j := value.(*Job)
		if j.UpdatedAt.Before(cutoff) {
			l.jobs.Delete(key)
		}
		return true
	})
}

// Store is the two-tier job status store (§4.9): writes go to both the
// local map and the optional distributed mirror; reads try distributed
// first and fall back to local, exactly as spec.md specifies.
type Store struct {
	local        *localStore
	distributed  *RedisStore // nil if no REDIS_URL configured
	ttl          time.Duration
	stopSweep    chan struct{}
	sweepStopped sync.Once
}

// NewStore builds a Store. distributed may be nil to run local-only.
func NewStore(distributed *RedisStore, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		local:       &localStore{},
		distributed: distributed,
		ttl:         ttl,
		stopSweep:   make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.local.sweep(s.ttl)
		case <-s.stopSweep:
			return
		}
	}
}

// Close stops the background TTL sweep.
func (s *Store) Close() {
	s.sweepStopped.Do(func() { close(s.stopSweep) })
}

// CreateJob returns a fresh job id with status=queued.
func (s *Store) CreateJob(ctx context.Context, ownerID string) string {
	now := time.Now()
	j := &Job{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.write(ctx, j)
	return j.ID
}

// SetProcessing transitions a job from queued to processing.
func (s *Store) SetProcessing(ctx context.Context, jobID string) error {
	return s.update(ctx, jobID, func(j *Job) {
		if j.Status.terminal() {
			return
		}
		j.Status = StatusProcessing
	})
}

// SetResult transitions a job to completed with the given serialized
// EngineOutput payload. Idempotent: a job already in a terminal state is
// left untouched.
func (s *Store) SetResult(ctx context.Context, jobID, payload string) error {
	return s.update(ctx, jobID, func(j *Job) {
		if j.Status.terminal() {
			return
		}
		j.Status = StatusCompleted
		j.Payload = payload
	})
}

// SetError transitions a job to the terminal error state.
func (s *Store) SetError(ctx context.Context, jobID, message string) error {
	return s.update(ctx, jobID, func(j *Job) {
		if j.Status.terminal() {
			return
		}
		j.Status = StatusError
		j.Error = message
	})
}

// GetStatus reads a job's current status and payload, distributed store
// first then local. Returns apperr.KindNotFound if absent in both.
func (s *Store) GetStatus(ctx context.Context, jobID string) (*Job, error) {
	if s.distributed != nil {
		j, err := s.distributed.Get(ctx, jobID)
		if err != nil {
			slog.Warn("distributed job store read failed, falling back to local", "job_id", jobID, "error", err)
		} else if j != nil {
			return j, nil
		}
	}

	j, ok := s.local.get(jobID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "job not found")
	}
	return j, nil
}

// VerifyOwner reports whether ownerID matches the job's recorded owner.
func (s *Store) VerifyOwner(ctx context.Context, jobID, ownerID string) (bool, error) {
	j, err := s.GetStatus(ctx, jobID)
	if err != nil {
		return false, err
	}
	return j.OwnerID == ownerID, nil
}

func (s *Store) update(ctx context.Context, jobID string, mutate func(*Job)) error {
	j, ok := s.local.get(jobID)
	if !ok {
		return apperr.New(apperr.KindNotFound, "job not found")
	}
	cp := *j
	mutate(&cp)
	cp.UpdatedAt = time.Now()
	s.write(ctx, &cp)
	return nil
}

func (s *Store) write(ctx context.Context, j *Job) {
	s.local.put(j)
	if s.distributed == nil {
		return
	}
	if err := s.distributed.Put(ctx, j, s.ttl); err != nil {
		slog.Warn("distributed job store write failed", "job_id", j.ID, "error", err)
	}
}

func marshalJob(j *Job) ([]byte, error) {
	return json.Marshal(j)
}

func unmarshalJob(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}
