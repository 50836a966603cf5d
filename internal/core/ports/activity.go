package ports

import (
	"context"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
)

// ActivityRecorder accepts sign-in audit entries. Record must not block the
// calling request; implementations queue and persist asynchronously.
type ActivityRecorder interface {
	Record(entry domain.Activity)
}

// ActivityRepository persists audit entries.
type ActivityRepository interface {
	Insert(ctx context.Context, entry domain.Activity) error
}
