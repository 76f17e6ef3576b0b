package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/explorer-world/explorer-api/internal/core/ports"
)

// MediaJanitor deletes media objects that are no longer referenced by any
// location.
type MediaJanitor struct {
	store  ports.MediaStore
	logger zerolog.Logger
}

func NewMediaJanitor(store ports.MediaStore, logger zerolog.Logger) *MediaJanitor {
	return &MediaJanitor{store: store, logger: logger}
}

// Process deletes every key of job. It keeps going after a failed delete and
// returns the joined errors.
func (j *MediaJanitor) Process(ctx context.Context, job ports.CleanupJob) error {
	var errs []error
	for _, key := range job.Keys {
		if err := j.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		j.logger.Debug().Str("location_id", job.LocationID).Str("object_key", key).Msg("media object deleted")
	}
	return errors.Join(errs...)
}
