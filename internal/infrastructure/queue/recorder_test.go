package queue

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
)

type channelRepo struct {
	inserted chan domain.Activity
}

func (r *channelRepo) Insert(ctx context.Context, entry domain.Activity) error {
	r.inserted <- entry
	return nil
}

func TestRecorder_PersistsAsynchronously(t *testing.T) {
	repo := &channelRepo{inserted: make(chan domain.Activity, 1)}
	rec := NewRecorder(repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec.Start(ctx)

	rec.Record(domain.Activity{Kind: domain.ActivityLogin, Email: "sara@example.com"})

	select {
	case entry := <-repo.inserted:
		if entry.Kind != domain.ActivityLogin || entry.Email != "sara@example.com" {
			t.Fatalf("unexpected entry: %+v", entry)
		}
		if entry.OccurredAt.IsZero() {
			t.Fatalf("Record must stamp OccurredAt")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("entry never reached the repository")
	}
}

func TestRecorder_NilRepoIsANoop(t *testing.T) {
	rec := NewRecorder(nil, zerolog.Nop())
	rec.Start(context.Background())
	// Must not panic or block.
	rec.Record(domain.Activity{Kind: domain.ActivityLogout})
}

func TestRecorder_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	repo := &channelRepo{inserted: make(chan domain.Activity)}
	rec := NewRecorder(repo, zerolog.Nop())
	// Worker intentionally not started: the buffer fills up.

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			rec.Record(domain.Activity{Kind: domain.ActivityLogin})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Record blocked on a full buffer")
	}
}
