// Package store persists sampling runs.
//
// [MemoryStore] keeps runs in process and backs the CLI and tests;
// [MongoStore] keeps them in a MongoDB collection for the HTTP server.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgio "github.com/matzehuels/stochfold/pkg/io"
)

// Run is a stored sampling run.
type Run struct {
	ID        string          `json:"id" bson:"_id"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	Document  *pkgio.Document `json:"document" bson:"document"`
}

// Store saves and loads runs. Get and Delete report unknown IDs as
// ErrCodeRunNotFound.
type Store interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	// List returns the most recent runs first, at most limit of them.
	List(ctx context.Context, limit int) ([]*Run, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// NewID returns a fresh run ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the form NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
