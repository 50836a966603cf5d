package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
)

const (
	channelBuffer = 256
	insertTimeout = 5 * time.Second
)

// Recorder decouples audit-trail writes from the request path: entries go
// into a buffered channel drained by a single worker, so a slow or absent
// store can never delay a login. When the buffer is full the entry is dropped
// with a warning — the audit trail is best-effort by design.
type Recorder struct {
	entries chan domain.Activity
	repo    ports.ActivityRepository
	log     zerolog.Logger
}

// NewRecorder creates a Recorder. repo may be nil, which disables recording.
func NewRecorder(repo ports.ActivityRepository, log zerolog.Logger) *Recorder {
	return &Recorder{
		entries: make(chan domain.Activity, channelBuffer),
		repo:    repo,
		log:     log,
	}
}

// Start launches the worker goroutine. The worker stops when ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) {
	if r.repo == nil {
		return
	}
	go r.run(ctx)
}

// Record enqueues an entry without blocking.
func (r *Recorder) Record(entry domain.Activity) {
	if r.repo == nil {
		return
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	select {
	case r.entries <- entry:
	default:
		r.log.Warn().Str("kind", entry.Kind).Msg("activity buffer full, entry dropped")
	}
}

func (r *Recorder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-r.entries:
			insertCtx, cancel := context.WithTimeout(context.Background(), insertTimeout)
			if err := r.repo.Insert(insertCtx, entry); err != nil {
				r.log.Error().Err(err).Str("kind", entry.Kind).Msg("activity insert failed")
			}
			cancel()
		}
	}
}
