// Package search resolves free-text location queries against every available
// source at once: saved places, coordinate input, geocoders, monitoring
// stations, and the built-in gazetteer. Results are deduplicated, scored,
// ranked, and cached; the resolver degrades to gazetteer-only results when
// every network branch fails and never returns an error.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/airscape/airscape/internal/airquality"
	"github.com/airscape/airscape/internal/cache"
	"github.com/airscape/airscape/internal/gazetteer"
	"github.com/airscape/airscape/internal/geo"
)

const (
	// DefaultMaxResults bounds a ranked result list.
	DefaultMaxResults = 12

	// savedLimit caps the favorites/recents blend served for short queries.
	savedLimit = 8

	// DefaultBranchTimeout bounds each fan-out branch independently so one
	// slow provider cannot stall the whole search.
	DefaultBranchTimeout = 6 * time.Second

	// stationBonus is added to the relevance score of station results.
	stationBonus = 10
)

// CitySearcher geocodes free text into candidate city locations.
type CitySearcher interface {
	Name() string
	SearchCities(ctx context.Context, query string) ([]airquality.Location, error)
}

// StationSearcher finds monitoring stations matching free text.
type StationSearcher interface {
	Name() string
	SearchStations(ctx context.Context, query string) ([]airquality.Location, error)
}

// Geocoder resolves raw coordinates to a named place. The aggregator
// satisfies this with its placeholder fallback built in.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) airquality.Location
}

// SavedSource supplies the user's saved places for the short-query path.
type SavedSource interface {
	Favorites(ctx context.Context) ([]airquality.Location, error)
	Recents(ctx context.Context) ([]airquality.Location, error)
}

// ResolverConfig holds the resolver dependencies.
type ResolverConfig struct {
	// Cities searches for cities by name. Optional.
	Cities CitySearcher

	// Stations searches for monitoring stations. Optional.
	Stations StationSearcher

	// Geocoder names coordinate queries. Optional; a placeholder location
	// is used when absent.
	Geocoder Geocoder

	// Saved supplies favorites and recents. Optional; short queries return
	// nothing without it.
	Saved SavedSource

	// Cache stores ranked results keyed by normalized query and options.
	Cache *cache.Store[[]Result]

	// Logger for resolver operations.
	Logger zerolog.Logger

	// BranchTimeout bounds each fan-out branch (default: 6s).
	BranchTimeout time.Duration

	// MaxResults bounds result lists (default: 12).
	MaxResults int
}

// Resolver answers location search queries.
type Resolver struct {
	cities        CitySearcher
	stations      StationSearcher
	geocoder      Geocoder
	saved         SavedSource
	cache         *cache.Store[[]Result]
	logger        zerolog.Logger
	branchTimeout time.Duration
	maxResults    int

	// gen invalidates in-flight searches: a search superseded by a newer
	// one must not overwrite the newer one's cache entry.
	gen atomic.Uint64
}

// Options tune a single search call.
type Options struct {
	// Current is the caller's location, used for distance ranking.
	Current *airquality.Location

	// IncludeStations adds the monitoring-station branch.
	IncludeStations bool

	// IncludeCoordinates enables parsing the query as a "lat,lon" pair.
	IncludeCoordinates bool

	// MaxResults overrides the resolver default for this call.
	MaxResults int
}

// NewResolver creates a search resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	branchTimeout := cfg.BranchTimeout
	if branchTimeout <= 0 {
		branchTimeout = DefaultBranchTimeout
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	store := cfg.Cache
	if store == nil {
		store = cache.New[[]Result](cache.DefaultSearchTTL)
	}

	return &Resolver{
		cities:        cfg.Cities,
		stations:      cfg.Stations,
		geocoder:      cfg.Geocoder,
		saved:         cfg.Saved,
		cache:         store,
		logger:        cfg.Logger,
		branchTimeout: branchTimeout,
		maxResults:    maxResults,
	}
}

// Search resolves a query to a ranked list of locations. It never returns an
// error: failed branches are dropped and the gazetteer guarantees a floor.
func (r *Resolver) Search(ctx context.Context, query string, opts Options) []Result {
	normalized := strings.ToLower(strings.TrimSpace(query))
	limit := opts.MaxResults
	if limit <= 0 {
		limit = r.maxResults
	}

	if len([]rune(normalized)) < 2 {
		return r.savedBlend(ctx, opts)
	}

	gen := r.gen.Add(1)
	key := cacheKey(normalized, opts)

	if cached, ok := r.cache.Get(key); ok {
		return finalize(cloneResults(cached), opts.Current, limit)
	}

	results := r.merge(r.fanOut(ctx, normalized, opts), normalized)
	if len(results) == 0 {
		results = gazetteerResults(normalized)
	}

	ranked := finalize(results, opts.Current, limit)

	// Distances depend on the caller's location, so the cached copy keeps
	// scores only.
	if r.gen.Load() == gen {
		r.cache.Set(key, stripDistances(ranked))
	}

	return ranked
}

// savedBlend serves short queries from favorites followed by recents, with
// recents deduplicated against favorites. No network access.
func (r *Resolver) savedBlend(ctx context.Context, opts Options) []Result {
	if r.saved == nil {
		return nil
	}

	favorites, err := r.saved.Favorites(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("loading favorites failed")
	}
	recents, err := r.saved.Recents(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("loading recents failed")
	}

	blend := make([]Result, 0, savedLimit)
	for _, loc := range favorites {
		if len(blend) == savedLimit {
			break
		}
		blend = append(blend, withDistance(Result{Location: loc, Type: TypeFavorite}, opts.Current))
	}

	for _, loc := range recents {
		if len(blend) == savedLimit {
			break
		}
		if containsLocation(favorites, loc) {
			continue
		}
		blend = append(blend, withDistance(Result{Location: loc, Type: TypeRecent}, opts.Current))
	}

	return blend
}

type branch struct {
	name string
	run  func(ctx context.Context) ([]Result, error)
}

// fanOut runs every applicable branch concurrently, each under its own
// timeout, and collects whatever succeeded. Failed branches are logged and
// dropped without retry.
func (r *Resolver) fanOut(ctx context.Context, query string, opts Options) []Result {
	var branches []branch

	if opts.IncludeCoordinates {
		if lat, lon, ok := parseCoordinates(query); ok {
			branches = append(branches, branch{name: "coordinate", run: func(ctx context.Context) ([]Result, error) {
				return []Result{{Location: r.locateCoordinates(ctx, lat, lon), Score: 100, Type: TypeCoordinate}}, nil
			}})
		}
	}

	if r.cities != nil {
		branches = append(branches, branch{name: r.cities.Name(), run: func(ctx context.Context) ([]Result, error) {
			locations, err := r.cities.SearchCities(ctx, query)
			if err != nil {
				return nil, err
			}
			return scoreLocations(locations, query, TypeCity, 0), nil
		}})
	}

	if opts.IncludeStations && r.stations != nil {
		branches = append(branches, branch{name: r.stations.Name(), run: func(ctx context.Context) ([]Result, error) {
			locations, err := r.stations.SearchStations(ctx, query)
			if err != nil {
				return nil, err
			}
			return scoreLocations(locations, query, TypeStation, stationBonus), nil
		}})
	}

	branches = append(branches, branch{name: "gazetteer", run: func(context.Context) ([]Result, error) {
		return gazetteerResults(query), nil
	}})

	resultCh := make(chan []Result, len(branches))
	var wg sync.WaitGroup
	for _, b := range branches {
		wg.Add(1)
		go func(b branch) {
			defer wg.Done()

			branchCtx, cancel := context.WithTimeout(ctx, r.branchTimeout)
			defer cancel()

			results, err := b.run(branchCtx)
			if err != nil {
				r.logBranchFailure(b.name, err)
				return
			}
			resultCh <- results
		}(b)
	}
	wg.Wait()
	close(resultCh)

	var all []Result
	for results := range resultCh {
		all = append(all, results...)
	}
	return all
}

// locateCoordinates names a coordinate query via reverse geocoding when a
// geocoder is available, keeping the exact coordinates the user typed.
func (r *Resolver) locateCoordinates(ctx context.Context, lat, lon float64) airquality.Location {
	if r.geocoder == nil {
		return airquality.PlaceholderLocation(lat, lon)
	}
	return r.geocoder.ReverseGeocode(ctx, lat, lon)
}

// merge deduplicates candidates, keeping the best-ranked entry per place.
// Two candidates are the same place when their rounded coordinates and
// lowercased city match, or when they are within coordinate proximity with
// the same city and country.
func (r *Resolver) merge(candidates []Result, query string) []Result {
	byKey := make(map[string]Result, len(candidates))
	for _, c := range candidates {
		key := c.Location.Fingerprint()
		if existing, ok := byKey[key]; !ok || betterRanked(c, existing) {
			byKey[key] = c
		}
	}

	merged := make([]Result, 0, len(byKey))
	for _, c := range byKey {
		replaced := false
		for i := range merged {
			if !merged[i].Location.SameAs(c.Location) {
				continue
			}
			if betterRanked(c, merged[i]) {
				merged[i] = c
			}
			replaced = true
			break
		}
		if !replaced {
			merged = append(merged, c)
		}
	}

	r.logger.Debug().
		Str("query", query).
		Int("candidates", len(candidates)).
		Int("merged", len(merged)).
		Msg("search candidates merged")

	return merged
}

func (r *Resolver) logBranchFailure(name string, err error) {
	event := r.logger.Warn()
	if errors.Is(err, airquality.ErrNotConfigured) {
		event = r.logger.Debug()
	}
	event.Err(err).Str("branch", name).Msg("search branch dropped")
}

// finalize computes distances, sorts, and truncates a result list.
func finalize(results []Result, current *airquality.Location, limit int) []Result {
	for i := range results {
		results[i] = withDistance(results[i], current)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := a.Type.Priority(), b.Type.Priority(); pa != pb {
			return pa > pb
		}
		if da, db := a.DistanceKm, b.DistanceKm; da != nil || db != nil {
			switch {
			case db == nil:
				return true
			case da == nil:
				return false
			case *da != *db:
				return *da < *db
			}
		}
		return strings.ToLower(a.Location.City) < strings.ToLower(b.Location.City)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func withDistance(res Result, current *airquality.Location) Result {
	if current == nil {
		res.DistanceKm = nil
		return res
	}
	d := geo.Haversine(current.Lat, current.Lon, res.Location.Lat, res.Location.Lon)
	res.DistanceKm = &d
	return res
}

func betterRanked(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Type.Priority() > b.Type.Priority()
}

func scoreLocations(locations []airquality.Location, query string, typ ResultType, bonus float64) []Result {
	results := make([]Result, 0, len(locations))
	for _, loc := range locations {
		results = append(results, Result{
			Location: loc,
			Score:    geo.RelevanceScore(query, loc.City) + bonus,
			Type:     typ,
		})
	}
	return results
}

func gazetteerResults(query string) []Result {
	cities := gazetteer.Search(query, DefaultMaxResults)
	results := make([]Result, 0, len(cities))
	for _, c := range cities {
		results = append(results, Result{
			Location: airquality.Location{
				City:       c.Name,
				Country:    c.Country,
				State:      c.State,
				Lat:        c.Lat,
				Lon:        c.Lon,
				HasStation: c.HasStation,
			},
			Score: geo.RelevanceScore(query, c.Name),
			Type:  TypeCity,
		})
	}
	return results
}

// parseCoordinates accepts a "lat,lon" pair with both parts numeric and in
// range. Anything else, including "City, Country" input, is not a match.
func parseCoordinates(query string) (lat, lon float64, ok bool) {
	parts := strings.Split(query, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLon != nil || !geo.ValidCoordinates(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

func cacheKey(normalized string, opts Options) string {
	return fmt.Sprintf("%s|stations=%t|coords=%t", normalized, opts.IncludeStations, opts.IncludeCoordinates)
}

func cloneResults(results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	return out
}

func stripDistances(results []Result) []Result {
	out := make([]Result, len(results))
	for i, res := range results {
		res.DistanceKm = nil
		out[i] = res
	}
	return out
}

func containsLocation(list []airquality.Location, loc airquality.Location) bool {
	for _, l := range list {
		if l.SameAs(loc) {
			return true
		}
	}
	return false
}
