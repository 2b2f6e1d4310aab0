// Package audit records account actions without ever blocking or failing the
// request that triggered them.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"eshop/internal/models"
)

type Store interface {
	Append(ctx context.Context, entry models.ActionLogEntry) (int64, error)
}

type Recorder struct {
	store   Store
	entries chan models.ActionLogEntry
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewRecorder(store Store, buffer int, timeout time.Duration, log zerolog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{
		store:   store,
		entries: make(chan models.ActionLogEntry, buffer),
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
}

func (r *Recorder) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for entry := range r.entries {
			r.write(entry)
		}
	}()
}

// Record queues an entry. It drops the entry when the buffer is full or the
// recorder is closed.
func (r *Recorder) Record(userID string, action string) {
	entry := models.ActionLogEntry{
		UserID:    userID,
		Action:    action,
		Timestamp: r.now().UTC(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warn().Str("user_id", userID).Str("action", action).Msg("audit recorder closed, action dropped")
		return
	}

	select {
	case r.entries <- entry:
	default:
		r.log.Warn().Str("user_id", userID).Str("action", action).Msg("audit buffer full, action dropped")
	}
}

func (r *Recorder) write(entry models.ActionLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.store.Append(ctx, entry); err != nil {
		r.log.Error().
			Err(err).
			Str("user_id", entry.UserID).
			Str("action", entry.Action).
			Msg("log user action failed")
	}
}

// Close stops accepting entries and waits for queued ones to be written or
// for ctx to expire.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.entries)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
