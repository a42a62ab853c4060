package locations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airscape/airscape/internal/airquality"
)

// PostgresRepository is a PostgreSQL implementation of Repository. Rows are
// keyed by the location fingerprint so the same place saved from different
// sources collapses to one row.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL saved-location repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const locationColumns = `city, country, state, lat, lon, station_id, has_station`

// ListFavorites returns favorites in the order they were added.
func (r *PostgresRepository) ListFavorites(ctx context.Context) ([]airquality.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM favorite_locations ORDER BY created_at ASC`, locationColumns)
	return r.list(ctx, query)
}

// AddFavorite saves a favorite, enforcing the list bound.
func (r *PostgresRepository) AddFavorite(ctx context.Context, loc airquality.Location) error {
	query := fmt.Sprintf(`
		INSERT INTO favorite_locations (fingerprint, %s, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, now()
		WHERE (SELECT count(*) FROM favorite_locations) < $9
		ON CONFLICT (fingerprint) DO NOTHING
	`, locationColumns)

	tag, err := r.pool.Exec(ctx, query,
		loc.Fingerprint(),
		loc.City, loc.Country, loc.State, loc.Lat, loc.Lon, loc.StationID, loc.HasStation,
		MaxFavorites,
	)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either already a favorite (fine) or the list is full.
		exists, err := r.isFavorite(ctx, loc)
		if err != nil {
			return err
		}
		if !exists {
			return ErrFavoriteLimit
		}
	}
	return nil
}

// RemoveFavorite removes a favorite.
func (r *PostgresRepository) RemoveFavorite(ctx context.Context, loc airquality.Location) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM favorite_locations WHERE fingerprint = $1`, loc.Fingerprint())
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationUnknown
	}
	return nil
}

// ListRecents returns recents, most recently viewed first.
func (r *PostgresRepository) ListRecents(ctx context.Context) ([]airquality.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM recent_locations ORDER BY viewed_at DESC LIMIT %d`,
		locationColumns, MaxRecents)
	return r.list(ctx, query)
}

// PushRecent records a viewed location and trims the list.
func (r *PostgresRepository) PushRecent(ctx context.Context, loc airquality.Location) error {
	query := fmt.Sprintf(`
		INSERT INTO recent_locations (fingerprint, %s, viewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (fingerprint) DO UPDATE SET viewed_at = now()
	`, locationColumns)

	if _, err := r.pool.Exec(ctx, query,
		loc.Fingerprint(),
		loc.City, loc.Country, loc.State, loc.Lat, loc.Lon, loc.StationID, loc.HasStation,
	); err != nil {
		return fmt.Errorf("upsert recent: %w", err)
	}

	trim := fmt.Sprintf(`
		DELETE FROM recent_locations
		WHERE fingerprint NOT IN (
			SELECT fingerprint FROM recent_locations ORDER BY viewed_at DESC LIMIT %d
		)
	`, MaxRecents)

	if _, err := r.pool.Exec(ctx, trim); err != nil {
		return fmt.Errorf("trim recents: %w", err)
	}
	return nil
}

func (r *PostgresRepository) isFavorite(ctx context.Context, loc airquality.Location) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorite_locations WHERE fingerprint = $1)`,
		loc.Fingerprint()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string) ([]airquality.Location, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	locations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (airquality.Location, error) {
		var loc airquality.Location
		err := row.Scan(&loc.City, &loc.Country, &loc.State, &loc.Lat, &loc.Lon, &loc.StationID, &loc.HasStation)
		return loc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan locations: %w", err)
	}
	return locations, nil
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
