package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/domain"
)

// TempStorage provides in-memory storage for recognition jobs.
// Jobs are automatically cleaned up after a TTL.
type TempStorage struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
	ttl  time.Duration
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewTempStorage creates a new in-memory temp storage with the given TTL
func NewTempStorage(ttl time.Duration) *TempStorage {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s := &TempStorage{
		jobs: make(map[string]*domain.Job),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// GenerateJobID creates a random job ID
func GenerateJobID() string {
	return uuid.NewString()
}

// StoreJob stores a recognition job
func (s *TempStorage) StoreJob(job *domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
}

// GetJob returns a copy of the job, or nil if it does not exist or expired
func (s *TempStorage) GetJob(jobID string) *domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok || s.expired(job) {
		return nil
	}
	cp := *job
	return &cp
}

// UpdateJob updates an existing recognition job
func (s *TempStorage) UpdateJob(jobID string, update func(*domain.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		update(job)
	}
}

// DeleteJob removes a job from storage
func (s *TempStorage) DeleteJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}

// Len returns the number of stored jobs
func (s *TempStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Close stops the cleanup loop
func (s *TempStorage) Close() {
	s.once.Do(func() { close(s.stop) })
}

// ZeroBytes overwrites a byte slice with zeros so the uploaded photo does
// not linger in memory.
func ZeroBytes(b []byte) {
	clear(b)
}

func (s *TempStorage) expired(job *domain.Job) bool {
	return job.CreatedAt.Before(s.now().Add(-s.ttl))
}

// cleanupLoop periodically removes expired jobs
func (s *TempStorage) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *TempStorage) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if s.expired(job) {
			delete(s.jobs, id)
		}
	}
}
