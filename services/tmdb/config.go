package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	defaultImageBaseURL = "https://image.tmdb.org/t/p/"
	defaultPosterSize   = "w342"
	defaultLogoSize     = "w92"
	defaultProfileSize  = "w185"
	minLogoWidth        = 45
)

// ImageConfig is the catalog's image serving configuration. It is populated
// lazily on first use and shared between requests; reloading it is
// idempotent, so concurrent first-use races are benign.
type ImageConfig struct {
	BaseURL     string
	PosterSize  string
	LogoSize    string
	ProfileSize string
}

func defaultImageConfig() *ImageConfig {
	return &ImageConfig{
		BaseURL:     defaultImageBaseURL,
		PosterSize:  defaultPosterSize,
		LogoSize:    defaultLogoSize,
		ProfileSize: defaultProfileSize,
	}
}

type configurationResponse struct {
	Images struct {
		BaseURL       string   `json:"base_url"`
		SecureBaseURL string   `json:"secure_base_url"`
		PosterSizes   []string `json:"poster_sizes"`
		LogoSizes     []string `json:"logo_sizes"`
	} `json:"images"`
}

func (api *Api) imageConfig(ctx context.Context) *ImageConfig {
	cfg, err := api.config.Get("configuration", func() (*ImageConfig, error) {
		return api.loadImageConfig(ctx)
	})
	if err != nil {
		log.WithError(err).Warn("failed to load tmdb image configuration")
		return defaultImageConfig()
	}
	return cfg
}

func (api *Api) loadImageConfig(ctx context.Context) (*ImageConfig, error) {
	var raw configurationResponse
	if err := api.getJSON(ctx, fmt.Sprintf("%s/3/configuration", api.url), nil, &raw); err != nil {
		return nil, err
	}
	cfg := defaultImageConfig()
	if raw.Images.SecureBaseURL != "" {
		cfg.BaseURL = raw.Images.SecureBaseURL
	} else if raw.Images.BaseURL != "" {
		cfg.BaseURL = raw.Images.BaseURL
	}
	cfg.PosterSize = pickPosterSize(raw.Images.PosterSizes)
	cfg.LogoSize = pickLogoSize(raw.Images.LogoSizes)
	return cfg, nil
}

func pickPosterSize(sizes []string) string {
	if len(sizes) == 0 {
		return defaultPosterSize
	}
	for _, s := range sizes {
		if s == defaultPosterSize {
			return s
		}
	}
	return sizes[len(sizes)-1]
}

func pickLogoSize(sizes []string) string {
	if len(sizes) == 0 {
		return defaultLogoSize
	}
	for _, s := range sizes {
		if !strings.HasPrefix(s, "w") {
			continue
		}
		if w, err := strconv.Atoi(s[1:]); err == nil && w >= minLogoWidth {
			return s
		}
	}
	return sizes[len(sizes)-1]
}

// ImageURL returns the remote CDN URL for an image path at the given size.
func (api *Api) ImageURL(ctx context.Context, path, size string) string {
	if path == "" {
		return ""
	}
	cfg := api.imageConfig(ctx)
	return cfg.BaseURL + size + "/" + strings.TrimPrefix(path, "/")
}

// ProxyImageURL returns the local proxy route for an image path, so clients
// never talk to the CDN directly.
func ProxyImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("/tmdb/images/%v/%v", size, strings.TrimPrefix(path, "/"))
}

func (api *Api) PosterURL(ctx context.Context, path string) string {
	return ProxyImageURL(path, api.imageConfig(ctx).PosterSize)
}

func (api *Api) ProviderLogoURL(ctx context.Context, path string) string {
	return ProxyImageURL(path, api.imageConfig(ctx).LogoSize)
}

func (api *Api) ProfileURL(ctx context.Context, path string) string {
	return ProxyImageURL(path, api.imageConfig(ctx).ProfileSize)
}
