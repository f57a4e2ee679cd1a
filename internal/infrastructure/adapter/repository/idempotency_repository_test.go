package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/p4cs-974/verse-billing/internal/domain/entity"
	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/database"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/logger"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	record := func(key string, createdAt time.Time) *entity.IdempotencyRecord {
		return &entity.IdempotencyRecord{
			Key:             key,
			OperationType:   entity.OpTopup,
			UserID:          7,
			ResultReference: 99,
			CreatedAt:       createdAt,
		}
	}

	t.Run("unseen key reads as nil without error", func(t *testing.T) {
		db := database.OpenTestDB(t)
		repo := repository.NewIdempotencyRepository(db, logger.NewNoopLogger())

		rec, err := repo.Get(ctx, "never-used")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("create then read back", func(t *testing.T) {
		db := database.OpenTestDB(t)
		repo := repository.NewIdempotencyRepository(db, logger.NewNoopLogger())

		require.NoError(t, repo.Create(ctx, record("top-1", now)))

		rec, err := repo.Get(ctx, "top-1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, entity.OpTopup, rec.OperationType)
		assert.Equal(t, int64(7), rec.UserID)
		assert.Equal(t, int64(99), rec.ResultReference)
	})

	t.Run("second create with the same key collides", func(t *testing.T) {
		db := database.OpenTestDB(t)
		repo := repository.NewIdempotencyRepository(db, logger.NewNoopLogger())

		require.NoError(t, repo.Create(ctx, record("top-1", now)))
		err := repo.Create(ctx, record("top-1", now))
		assert.ErrorIs(t, err, errs.ErrDuplicateOperation)
	})

	t.Run("purge removes only keys past the cutoff", func(t *testing.T) {
		db := database.OpenTestDB(t)
		repo := repository.NewIdempotencyRepository(db, logger.NewNoopLogger())

		require.NoError(t, repo.Create(ctx, record("old-1", now.Add(-100*24*time.Hour))))
		require.NoError(t, repo.Create(ctx, record("old-2", now.Add(-95*24*time.Hour))))
		require.NoError(t, repo.Create(ctx, record("fresh", now.Add(-time.Hour))))

		purged, err := repo.PurgeOlderThan(ctx, now.Add(-90*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), purged)

		rec, err := repo.Get(ctx, "fresh")
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})
}
