package services

import (
	"context"
	"fmt"
	"testing"

	"safetrack/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecordLocationCachesLastPosition(t *testing.T) {
	repo := &mockLocationRepo{}
	cache := newMemCache()
	service := NewLocationService(repo, cache, newTestLogger(t))
	userID := primitive.NewObjectID()

	update, err := service.RecordLocation(context.Background(), userID, 12.9716, 77.5946, 8)
	require.NoError(t, err)
	assert.InDelta(t, 12.9716, update.Location.Latitude(), 1e-9)
	assert.InDelta(t, 77.5946, update.Location.Longitude(), 1e-9)
	assert.Equal(t, 8.0, update.Location.Accuracy)

	// Current is served from the cache without touching the repo again.
	repo.fails = 10
	current, err := service.Current(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, update.ID, current.ID)
}

func TestCurrentRetriesTransientLookupFailures(t *testing.T) {
	repo := &mockLocationRepo{}
	service := NewLocationService(repo, newMemCache(), newTestLogger(t))
	userID := primitive.NewObjectID()

	_, err := service.RecordLocation(context.Background(), userID, 12.9, 77.6, 0)
	require.NoError(t, err)

	// Fresh service with an empty cache forces the repo path; the first
	// two attempts fail, the third succeeds.
	service = NewLocationService(repo, newMemCache(), newTestLogger(t))
	repo.fails = utils.RetryAttempts - 1

	current, err := service.Current(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, current.UserID)
}

func TestCurrentFailsAfterRetryBudget(t *testing.T) {
	repo := &mockLocationRepo{fails: utils.RetryAttempts}
	service := NewLocationService(repo, newMemCache(), newTestLogger(t))

	_, err := service.Current(context.Background(), primitive.NewObjectID())
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "failed to resolve current location")
}
