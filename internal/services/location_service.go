package services

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"
	"safetrack/pkg/cache"
	"safetrack/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationService records device position reports and answers "where is
// this user right now" for the monitoring services.
type LocationService interface {
	RecordLocation(ctx context.Context, userID primitive.ObjectID, lat, lng, accuracy float64) (*models.LocationUpdate, error)
	Current(ctx context.Context, userID primitive.ObjectID) (*models.LocationUpdate, error)
	History(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]*models.LocationUpdate, error)
}

type locationService struct {
	locationRepo interfaces.LocationRepository
	cache        Cache
	logger       *logger.Logger
}

func NewLocationService(
	locationRepo interfaces.LocationRepository,
	redisCache Cache,
	logger *logger.Logger,
) LocationService {
	return &locationService{
		locationRepo: locationRepo,
		cache:        redisCache,
		logger:       logger,
	}
}

func (s *locationService) RecordLocation(ctx context.Context, userID primitive.ObjectID, lat, lng, accuracy float64) (*models.LocationUpdate, error) {
	location := models.NewLocation(lat, lng)
	location.Accuracy = accuracy

	update := &models.LocationUpdate{
		UserID:     userID,
		Location:   location,
		RecordedAt: time.Now(),
	}

	if err := s.locationRepo.Create(ctx, update); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf(utils.CacheKeyLastLocation, userID.Hex())
	if err := s.cache.Set(ctx, cacheKey, update, utils.CacheTTLLastLocation); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to cache last location")
	}

	return update, nil
}

// Current serves the cached last position when fresh, falling back to
// the database with retry. Transient lookup failures must not abort a
// monitoring pass, so the lookup itself is retried before giving up.
func (s *locationService) Current(ctx context.Context, userID primitive.ObjectID) (*models.LocationUpdate, error) {
	cacheKey := fmt.Sprintf(utils.CacheKeyLastLocation, userID.Hex())

	var cached models.LocationUpdate
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrCacheMiss {
		s.logger.WithUserID(userID).WithError(err).Warn("Location cache lookup failed")
	}

	var update *models.LocationUpdate
	err := utils.Retry(ctx, utils.RetryAttempts, utils.RetryBaseDelay, func() error {
		var lookupErr error
		update, lookupErr = s.locationRepo.GetLatestByUser(ctx, userID)
		return lookupErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current location: %w", err)
	}

	if cacheErr := s.cache.Set(ctx, cacheKey, update, utils.CacheTTLLastLocation); cacheErr != nil {
		s.logger.WithUserID(userID).WithError(cacheErr).Warn("Failed to refresh location cache")
	}

	return update, nil
}

func (s *locationService) History(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]*models.LocationUpdate, error) {
	return s.locationRepo.GetByUserSince(ctx, userID, since)
}
