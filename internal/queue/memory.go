package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueClosed is returned when using a closed MemoryQueue
var ErrQueueClosed = errors.New("queue closed")

// MemoryQueue is an in-process JobQueue for local runs and tests. Jobs are
// delivered once NotBefore has passed; nacked jobs without requeue are kept
// as dead letters.
type MemoryQueue struct {
	mu           sync.Mutex
	pending      []*Job
	dead         []*Job
	closed       bool
	wake         chan struct{}
	now          func() time.Time
	pollInterval time.Duration
}

var _ JobQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty in-memory queue
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		wake:         make(chan struct{}, 1),
		now:          time.Now,
		pollInterval: 50 * time.Millisecond,
	}
}

// SetClock overrides the time source used for NotBefore/NotAfter checks
func (q *MemoryQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Enqueue adds a copy of job to the queue
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, copyJob(job))
	q.mu.Unlock()
	q.signal()
	return nil
}

// Pending returns copies of the jobs not yet delivered
func (q *MemoryQueue) Pending() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, len(q.pending))
	for i, j := range q.pending {
		out[i] = copyJob(j)
	}
	return out
}

// DeadLetters returns copies of the jobs nacked without requeue
func (q *MemoryQueue) DeadLetters() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, len(q.dead))
	for i, j := range q.dead {
		out[i] = copyJob(j)
	}
	return out
}

// Consume delivers due jobs on the returned channel until ctx is done or the
// queue is closed. At most prefetchCount jobs are unacknowledged at once.
func (q *MemoryQueue) Consume(ctx context.Context, prefetchCount int) (<-chan Delivery, <-chan error, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return nil, nil, ErrQueueClosed
	}

	msgChan := make(chan Delivery)
	errChan := make(chan error, 1)
	inflight := make(chan struct{}, prefetchCount)

	go func() {
		defer close(msgChan)
		defer close(errChan)

		ticker := time.NewTicker(q.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case inflight <- struct{}{}:
			}

			job, ok, closed := q.next()
			if closed {
				<-inflight
				return
			}
			if !ok {
				<-inflight
				select {
				case <-ctx.Done():
					return
				case <-q.wake:
				case <-ticker.C:
				}
				continue
			}

			msg := &memoryMessage{queue: q, job: job, release: func() { <-inflight }}
			select {
			case <-ctx.Done():
				q.requeue(job)
				return
			case msgChan <- msg:
			}
		}
	}()

	return msgChan, errChan, nil
}

// next pops the first due job, dropping expired ones
func (q *MemoryQueue) next() (*Job, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, false, true
	}
	now := q.now()
	kept := q.pending[:0]
	var found *Job
	for _, j := range q.pending {
		switch {
		case j.IsExpired(now):
			q.dead = append(q.dead, j)
		case found == nil && j.ShouldProcess(now):
			found = j
		default:
			kept = append(kept, j)
		}
	}
	q.pending = kept
	return found, found != nil, false
}

func (q *MemoryQueue) requeue(job *Job) {
	q.mu.Lock()
	if !q.closed {
		q.pending = append(q.pending, job)
	}
	q.mu.Unlock()
	q.signal()
}

func (q *MemoryQueue) deadLetter(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, job)
}

func (q *MemoryQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// HealthCheck fails once the queue is closed
func (q *MemoryQueue) HealthCheck(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

// Close stops delivery; pending jobs are discarded
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
	return nil
}

type memoryMessage struct {
	queue   *MemoryQueue
	job     *Job
	release func()
	once    sync.Once
}

func (m *memoryMessage) Ack() error {
	m.once.Do(m.release)
	return nil
}

func (m *memoryMessage) Nack(requeue bool) error {
	m.once.Do(func() {
		if requeue {
			m.queue.requeue(m.job)
		} else {
			m.queue.deadLetter(m.job)
		}
		m.release()
	})
	return nil
}

func (m *memoryMessage) GetJob() *Job {
	return m.job
}

func copyJob(j *Job) *Job {
	c := *j
	if j.GoalID != nil {
		id := *j.GoalID
		c.GoalID = &id
	}
	if j.NotBefore != nil {
		t := *j.NotBefore
		c.NotBefore = &t
	}
	if j.NotAfter != nil {
		t := *j.NotAfter
		c.NotAfter = &t
	}
	c.Metadata = make(map[string]any, len(j.Metadata))
	for k, v := range j.Metadata {
		c.Metadata[k] = v
	}
	return &c
}
