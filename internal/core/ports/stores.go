package ports

import (
	"context"
	"io"
	"time"
)

// IdempotencyStore remembers which resource a client supplied key produced.
type IdempotencyStore interface {
	// Reserve atomically claims key for a new request. When the key is
	// already claimed it returns the id stored by the first request, or ""
	// while that request is still running.
	Reserve(ctx context.Context, scope, key string, ttl time.Duration) (id string, reserved bool, err error)
	// Complete stores the id produced under a reserved key.
	Complete(ctx context.Context, scope, key, id string, ttl time.Duration) error
	// Release drops the reservation of a request that failed.
	Release(ctx context.Context, scope, key string) error
}

// MediaObject is a blob to be written to the media store.
type MediaObject struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaStore persists uploaded gallery media.
type MediaStore interface {
	// Put stores obj and returns the URL under which it is served.
	Put(ctx context.Context, obj MediaObject) (string, error)
	Delete(ctx context.Context, key string) error
}

// MediaCleaner removes media objects in the background.
type MediaCleaner interface {
	Enqueue(locationID string, keys ...string)
}

// CleanupJob names media objects that belong to one location and are no
// longer referenced.
type CleanupJob struct {
	LocationID string
	Keys       []string
}

// CleanupProcessor executes a single cleanup job.
type CleanupProcessor interface {
	Process(ctx context.Context, job CleanupJob) error
}
