// Package locations stores the user's saved places: a bounded favorites list
// and an LRU-ordered recents list. The short-query search path is served
// entirely from this package.
package locations

import (
	"context"
	"errors"
	"sync"

	"github.com/airscape/airscape/internal/airquality"
)

const (
	// MaxFavorites bounds the favorites list.
	MaxFavorites = 20

	// MaxRecents bounds the recents list. The oldest entry is evicted.
	MaxRecents = 10
)

// Repository errors.
var (
	ErrFavoriteLimit   = errors.New("favorite limit reached")
	ErrLocationUnknown = errors.New("location not found")
)

// Repository defines the interface for saved-location persistence.
type Repository interface {
	// ListFavorites returns favorites in the order they were added.
	ListFavorites(ctx context.Context) ([]airquality.Location, error)

	// AddFavorite saves a favorite. Adding a location that is already a
	// favorite is a no-op. Returns ErrFavoriteLimit when the list is full.
	AddFavorite(ctx context.Context, loc airquality.Location) error

	// RemoveFavorite removes a favorite. Returns ErrLocationUnknown when
	// the location is not a favorite.
	RemoveFavorite(ctx context.Context, loc airquality.Location) error

	// ListRecents returns recents, most recently viewed first.
	ListRecents(ctx context.Context) ([]airquality.Location, error)

	// PushRecent records a viewed location at the front of the recents
	// list, evicting the oldest entry past MaxRecents.
	PushRecent(ctx context.Context, loc airquality.Location) error
}

// MemoryRepository is an in-memory implementation of Repository. It is the
// default when no database is configured, and what tests use.
type MemoryRepository struct {
	mu        sync.RWMutex
	favorites []airquality.Location
	recents   []airquality.Location
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// ListFavorites returns favorites in insertion order.
func (r *MemoryRepository) ListFavorites(_ context.Context) ([]airquality.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyLocations(r.favorites), nil
}

// AddFavorite saves a favorite.
func (r *MemoryRepository) AddFavorite(_ context.Context, loc airquality.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if indexOf(r.favorites, loc) >= 0 {
		return nil
	}
	if len(r.favorites) >= MaxFavorites {
		return ErrFavoriteLimit
	}

	r.favorites = append(r.favorites, loc)
	return nil
}

// RemoveFavorite removes a favorite.
func (r *MemoryRepository) RemoveFavorite(_ context.Context, loc airquality.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.favorites, loc)
	if i < 0 {
		return ErrLocationUnknown
	}

	r.favorites = append(r.favorites[:i], r.favorites[i+1:]...)
	return nil
}

// ListRecents returns recents, most recently viewed first.
func (r *MemoryRepository) ListRecents(_ context.Context) ([]airquality.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyLocations(r.recents), nil
}

// PushRecent records a viewed location.
func (r *MemoryRepository) PushRecent(_ context.Context, loc airquality.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := indexOf(r.recents, loc); i >= 0 {
		r.recents = append(r.recents[:i], r.recents[i+1:]...)
	}

	r.recents = append([]airquality.Location{loc}, r.recents...)
	if len(r.recents) > MaxRecents {
		r.recents = r.recents[:MaxRecents]
	}
	return nil
}

func indexOf(list []airquality.Location, loc airquality.Location) int {
	for i, l := range list {
		if l.SameAs(loc) {
			return i
		}
	}
	return -1
}

func copyLocations(list []airquality.Location) []airquality.Location {
	out := make([]airquality.Location, len(list))
	copy(out, list)
	return out
}

// Ensure MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)
