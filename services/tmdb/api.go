package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/webtor-io/lazymap"
)

const (
	tmdbApiKeyFlag      = "tmdb-api-key"
	tmdbApiHostFlag     = "tmdb-api-host"
	tmdbApiPortFlag     = "tmdb-api-port"
	tmdbApiSecureFlag   = "tmdb-api-secure"
	tmdbWatchRegionFlag = "tmdb-watch-region"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   tmdbApiHostFlag,
			Usage:  "tmdb api host",
			EnvVar: "TMDB_API_HOST",
			Value:  "api.themoviedb.org",
		},
		cli.IntFlag{
			Name:   tmdbApiPortFlag,
			Usage:  "tmdb api port",
			EnvVar: "TMDB_API_PORT",
			Value:  443,
		},
		cli.BoolTFlag{
			Name:   tmdbApiSecureFlag,
			Usage:  "tmdb api secure (https)",
			EnvVar: "TMDB_API_SECURE",
		},
		cli.StringFlag{
			Name:   tmdbApiKeyFlag,
			Usage:  "tmdb api key",
			Value:  "",
			EnvVar: "TMDB_API_KEY",
		},
		cli.StringFlag{
			Name:   tmdbWatchRegionFlag,
			Usage:  "region for watch provider availability",
			Value:  "US",
			EnvVar: "WATCH_REGION",
		},
	)
}

type Api struct {
	url            string
	region         string
	cl             *http.Client
	prepareRequest func(r *http.Request) (*http.Request, error)
	config         *lazymap.LazyMap[*ImageConfig]
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(tmdbApiHostFlag)
	port := c.Int(tmdbApiPortFlag)
	secure := c.BoolT(tmdbApiSecureFlag)
	key := c.String(tmdbApiKeyFlag)
	region := c.String(tmdbWatchRegionFlag)
	if key == "" {
		return nil
	}
	protocol := "http"
	if secure {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v", protocol, host, port)
	return NewApi(u, key, region, cl)
}

func NewApi(u string, key string, region string, cl *http.Client) *Api {
	prepareRequest := func(r *http.Request) (*http.Request, error) {
		q := r.URL.Query()
		q.Set("api_key", key)
		r.URL.RawQuery = q.Encode()
		return r, nil
	}
	log.Infof("tmdb api endpoint %v", u)
	return &Api{
		url:            u,
		region:         region,
		cl:             cl,
		prepareRequest: prepareRequest,
		config: lazymap.New[*ImageConfig](&lazymap.Config{
			ErrorExpire: 30 * time.Second,
		}),
	}
}

type SearchResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	VoteCount     int     `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchMovies queries the catalog by title and optional release year. A
// zero-result response is not an error here; the caller decides what an
// empty candidate list means.
func (api *Api) SearchMovies(ctx context.Context, title string, year *int) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("query", strings.TrimSpace(title))
	q.Set("include_adult", "false")
	if year != nil {
		q.Set("year", strconv.Itoa(*year))
	}
	var raw searchResponse
	if err := api.getJSON(ctx, fmt.Sprintf("%s/3/search/movie", api.url), q, &raw); err != nil {
		return nil, errors.Wrap(err, "search movie")
	}
	return raw.Results, nil
}

type MovieDetails struct {
	ID          int64  `json:"id"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Overview    string  `json:"overview"`
	Runtime     int     `json:"runtime"`
}

func (d *MovieDetails) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

func (api *Api) GetMovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	var details MovieDetails
	if err := api.getJSON(ctx, fmt.Sprintf("%s/3/movie/%d", api.url, id), nil, &details); err != nil {
		return nil, errors.Wrap(err, "get movie details")
	}
	return &details, nil
}

type ProviderKind string

const (
	ProviderFlatrate ProviderKind = "flatrate"
	ProviderRent     ProviderKind = "rent"
	ProviderBuy      ProviderKind = "buy"
)

var providerKindOrder = map[ProviderKind]int{
	ProviderFlatrate: 0,
	ProviderRent:     1,
	ProviderBuy:      2,
}

type Provider struct {
	Name            string       `json:"name"`
	LogoPath        string       `json:"logo_path"`
	Kind            ProviderKind `json:"type"`
	DisplayPriority int          `json:"display_priority"`
}

type providerEntry struct {
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

type providersResponse struct {
	Results map[string]struct {
		Flatrate []providerEntry `json:"flatrate"`
		Rent     []providerEntry `json:"rent"`
		Buy      []providerEntry `json:"buy"`
	} `json:"results"`
}

// GetWatchProviders returns the watch offers for the configured region,
// merged in flatrate, rent, buy order. A provider present in several lists is
// reported once, under the first kind it appears in; within the result,
// offers are ordered by kind and then by ascending display priority.
func (api *Api) GetWatchProviders(ctx context.Context, id int64) ([]Provider, error) {
	var raw providersResponse
	if err := api.getJSON(ctx, fmt.Sprintf("%s/3/movie/%d/watch/providers", api.url, id), nil, &raw); err != nil {
		return nil, errors.Wrap(err, "get watch providers")
	}
	region, ok := raw.Results[api.region]
	if !ok {
		return nil, nil
	}
	var providers []Provider
	seen := map[string]struct{}{}
	add := func(entries []providerEntry, kind ProviderKind) {
		for _, e := range entries {
			if _, ok := seen[e.ProviderName]; ok {
				continue
			}
			seen[e.ProviderName] = struct{}{}
			dp := e.DisplayPriority
			if dp == 0 {
				dp = 999
			}
			providers = append(providers, Provider{
				Name:            e.ProviderName,
				LogoPath:        e.LogoPath,
				Kind:            kind,
				DisplayPriority: dp,
			})
		}
	}
	add(region.Flatrate, ProviderFlatrate)
	add(region.Rent, ProviderRent)
	add(region.Buy, ProviderBuy)
	sort.SliceStable(providers, func(i, j int) bool {
		if providers[i].Kind != providers[j].Kind {
			return providerKindOrder[providers[i].Kind] < providerKindOrder[providers[j].Kind]
		}
		return providers[i].DisplayPriority < providers[j].DisplayPriority
	})
	return providers, nil
}

const videoSite = "YouTube"

type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type videosResponse struct {
	Results []Video `json:"results"`
}

// GetPrimaryVideo picks the single video worth showing: an official trailer
// on the supported platform, else any trailer, else any teaser, else the
// first hosted video. Nil when nothing qualifies.
func (api *Api) GetPrimaryVideo(ctx context.Context, id int64) (*Video, error) {
	var raw videosResponse
	if err := api.getJSON(ctx, fmt.Sprintf("%s/3/movie/%d/videos", api.url, id), nil, &raw); err != nil {
		return nil, errors.Wrap(err, "get movie videos")
	}
	var hosted []Video
	for _, v := range raw.Results {
		if v.Site == videoSite {
			hosted = append(hosted, v)
		}
	}
	if len(hosted) == 0 {
		return nil, nil
	}
	picks := []func(v Video) bool{
		func(v Video) bool { return v.Type == "Trailer" && v.Official },
		func(v Video) bool { return v.Type == "Trailer" },
		func(v Video) bool { return v.Type == "Teaser" },
		func(v Video) bool { return true },
	}
	for _, pick := range picks {
		for _, v := range hosted {
			if pick(v) {
				return &v, nil
			}
		}
	}
	return nil, nil
}

const topCreditsLimit = 10

type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

type creditsResponse struct {
	Cast []CastMember `json:"cast"`
}

// GetTopCredits returns up to the first ten cast entries in the catalog's
// own billing order.
func (api *Api) GetTopCredits(ctx context.Context, id int64) ([]CastMember, error) {
	var raw creditsResponse
	if err := api.getJSON(ctx, fmt.Sprintf("%s/3/movie/%d/credits", api.url, id), nil, &raw); err != nil {
		return nil, errors.Wrap(err, "get movie credits")
	}
	if len(raw.Cast) > topCreditsLimit {
		return raw.Cast[:topCreditsLimit], nil
	}
	return raw.Cast, nil
}

func (api *Api) getJSON(ctx context.Context, u string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}
	req, err = api.prepareRequest(req)
	if err != nil {
		return errors.Wrap(err, "prepare request")
	}
	resp, err := api.cl.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
