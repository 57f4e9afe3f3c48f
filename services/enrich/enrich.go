package enrich

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/reelist-io/reelist/services/extract"
	"github.com/reelist-io/reelist/services/tmdb"
)

var (
	// ErrNotFound means the catalog search returned zero candidates; a more
	// specific title or a release year may help, retrying as-is will not.
	ErrNotFound = errors.New("no matching movie found")
	// ErrUpstreamUnavailable means a required catalog call failed; the
	// request may be retried later.
	ErrUpstreamUnavailable = errors.New("movie catalog unavailable")
)

type Enricher struct {
	api *tmdb.Api
}

func NewEnricher(api *tmdb.Api) *Enricher {
	if api == nil {
		return nil
	}
	return &Enricher{
		api: api,
	}
}

// Enrichment is the canonical movie record assembled for one extraction
// result: the disambiguated catalog identity plus the full metadata bundle.
type Enrichment struct {
	Title       string
	Year        *int
	Description *string

	TMDBID      int64
	PosterPath  *string
	ReleaseDate *string
	Genres      []string
	VoteAverage *float64
	VoteCount   *int
	Overview    *string
	Runtime     *int
	Providers   []tmdb.Provider
}

// ResolveAndEnrich turns an extraction result into a single enriched movie
// record: search the catalog, pick the best candidate, pull full details and
// watch availability. Search and details are required steps; watch providers
// degrade to an empty list on failure.
func (s *Enricher) ResolveAndEnrich(ctx context.Context, res *extract.Result) (*Enrichment, error) {
	results, err := s.api.SearchMovies(ctx, res.Title, res.Year)
	if err != nil {
		log.WithError(err).Errorf("movie search failed for title %q", res.Title)
		return nil, errors.Wrap(ErrUpstreamUnavailable, "search")
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	candidates := make([]*Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, NewCandidate(r.ID, r.Title, r.OriginalTitle, r.ReleaseDate, r.VoteCount, r.Popularity))
	}
	best := SelectBest(candidates, Normalize(res.Title), res.Year)

	details, err := s.api.GetMovieDetails(ctx, best.ID)
	if err != nil {
		log.WithError(err).Errorf("failed to get details for movie %d", best.ID)
		return nil, errors.Wrap(ErrUpstreamUnavailable, "details")
	}

	providers, err := s.api.GetWatchProviders(ctx, best.ID)
	if err != nil {
		log.WithError(err).Warnf("failed to get watch providers for movie %d", best.ID)
		providers = nil
	}

	en := &Enrichment{
		Title:       res.Title,
		Year:        res.Year,
		Description: res.Description,
		TMDBID:      details.ID,
		VoteAverage: &details.VoteAverage,
		VoteCount:   &details.VoteCount,
		Genres:      details.GenreNames(),
		Providers:   providers,
	}
	if details.PosterPath != "" {
		en.PosterPath = &details.PosterPath
	}
	if details.ReleaseDate != "" {
		en.ReleaseDate = &details.ReleaseDate
	}
	if details.Runtime > 0 {
		en.Runtime = &details.Runtime
	}
	if details.Overview != "" {
		en.Overview = &details.Overview
	} else {
		// the extraction's own description is only a fallback
		en.Overview = res.Description
	}
	return en, nil
}
