package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aymen-fh/bmo-care/internal/core/domain"
)

const activityCollection = "activity_log"

// ActivityRepository persists the sign-in audit trail.
type ActivityRepository struct {
	coll *mongo.Collection
}

// NewActivityRepository creates an ActivityRepository on the given database.
func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{coll: db.Collection(activityCollection)}
}

type activityDoc struct {
	Kind       string `bson:"kind"`
	Email      string `bson:"email"`
	UserID     string `bson:"user_id,omitempty"`
	Role       string `bson:"role,omitempty"`
	Reason     string `bson:"reason,omitempty"`
	RemoteAddr string `bson:"remote_addr,omitempty"`
	OccurredAt int64  `bson:"occurred_at"`
}

// Insert writes one audit entry.
func (r *ActivityRepository) Insert(ctx context.Context, entry domain.Activity) error {
	occurred := entry.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	doc := activityDoc{
		Kind:       entry.Kind,
		Email:      entry.Email,
		UserID:     entry.UserID,
		Role:       entry.Role,
		Reason:     entry.Reason,
		RemoteAddr: entry.RemoteAddr,
		OccurredAt: occurred.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
