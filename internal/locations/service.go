package locations

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/geo"
)

// ErrInvalidLocation indicates a location with out-of-range or zero
// coordinates.
var ErrInvalidLocation = errors.New("invalid location")

// ServiceConfig holds configuration for the locations service.
type ServiceConfig struct {
	// Repository persists saved locations. Defaults to an in-memory one.
	Repository Repository

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service manages the user's saved places and produces the blend served for
// short search queries.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new locations service.
func NewService(cfg ServiceConfig) *Service {
	repo := cfg.Repository
	if repo == nil {
		repo = NewMemoryRepository()
	}
	return &Service{repo: repo, logger: cfg.Logger}
}

// Favorites returns the favorites list in insertion order.
func (s *Service) Favorites(ctx context.Context) ([]airquality.Location, error) {
	return s.repo.ListFavorites(ctx)
}

// Recents returns recently viewed locations, most recent first.
func (s *Service) Recents(ctx context.Context) ([]airquality.Location, error) {
	return s.repo.ListRecents(ctx)
}

// AddFavorite saves a location to the favorites list.
func (s *Service) AddFavorite(ctx context.Context, loc airquality.Location) error {
	if err := validate(loc); err != nil {
		return err
	}

	if err := s.repo.AddFavorite(ctx, loc); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	s.logger.Info().Str("city", loc.City).Str("country", loc.Country).Msg("favorite added")
	return nil
}

// RemoveFavorite removes a location from the favorites list.
func (s *Service) RemoveFavorite(ctx context.Context, loc airquality.Location) error {
	if err := s.repo.RemoveFavorite(ctx, loc); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	s.logger.Info().Str("city", loc.City).Str("country", loc.Country).Msg("favorite removed")
	return nil
}

// RecordVisit pushes a location onto the recents list. Failures are logged
// and swallowed: losing a recents entry must never fail the operation that
// triggered it.
func (s *Service) RecordVisit(ctx context.Context, loc airquality.Location) {
	if err := validate(loc); err != nil {
		return
	}
	if err := s.repo.PushRecent(ctx, loc); err != nil {
		s.logger.Warn().Err(err).Str("city", loc.City).Msg("recording recent location failed")
	}
}

func validate(loc airquality.Location) error {
	if loc.Lat == 0 && loc.Lon == 0 {
		return ErrInvalidLocation
	}
	if !geo.ValidCoordinates(loc.Lat, loc.Lon) {
		return ErrInvalidLocation
	}
	return nil
}
