package watchlist

import (
	"context"
	"time"

	"github.com/reelist-io/reelist/models"
	"github.com/reelist-io/reelist/services/tmdb"
)

type ProviderResponse struct {
	Name            string `json:"name"`
	LogoURL         string `json:"logo_url,omitempty"`
	Kind            string `json:"type"`
	DisplayPriority int    `json:"display_priority"`
}

type ItemResponse struct {
	ID          string             `json:"id"`
	TMDBID      int64              `json:"tmdb_id"`
	RawInput    string             `json:"raw_input"`
	Title       string             `json:"title"`
	Year        *int               `json:"year"`
	Description *string            `json:"description"`
	PosterURL   *string            `json:"poster_url"`
	ReleaseDate *string            `json:"release_date"`
	Genres      []string           `json:"genres"`
	VoteAverage *float64           `json:"vote_average"`
	VoteCount   *int               `json:"vote_count"`
	Providers   []ProviderResponse `json:"providers"`
	Overview    *string            `json:"overview"`
	Runtime     *int               `json:"runtime"`

	PersonalRating *float64   `json:"personal_rating"`
	PersonalNotes  *string    `json:"personal_notes"`
	Status         string     `json:"status"`
	WatchedAt      *time.Time `json:"watched_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *Handler) renderItem(ctx context.Context, item *models.WatchlistItem) *ItemResponse {
	resp := &ItemResponse{
		ID:             item.ItemID.String(),
		TMDBID:         item.TMDBID,
		RawInput:       item.RawInput,
		Title:          item.Title,
		Year:           item.Year,
		Description:    item.Description,
		ReleaseDate:    item.ReleaseDate,
		Genres:         item.Genres,
		VoteAverage:    item.VoteAverage,
		VoteCount:      item.VoteCount,
		Overview:       item.Overview,
		Runtime:        item.Runtime,
		PersonalRating: item.PersonalRating,
		PersonalNotes:  item.PersonalNotes,
		Status:         string(item.Status),
		WatchedAt:      item.WatchedAt,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if resp.Genres == nil {
		resp.Genres = []string{}
	}
	if item.PosterPath != nil && *item.PosterPath != "" && s.images != nil {
		u := s.images.PosterURL(ctx, *item.PosterPath)
		resp.PosterURL = &u
	}
	resp.Providers = make([]ProviderResponse, 0, len(item.Providers))
	for _, p := range item.Providers {
		pr := ProviderResponse{
			Name:            p.Name,
			Kind:            p.Kind,
			DisplayPriority: p.DisplayPriority,
		}
		if s.images != nil && p.LogoPath != "" {
			pr.LogoURL = s.images.ProviderLogoURL(ctx, p.LogoPath)
		}
		resp.Providers = append(resp.Providers, pr)
	}
	return resp
}

type CastResponse struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileURL string `json:"profile_url,omitempty"`
}

func (s *Handler) renderCast(ctx context.Context, cast []tmdb.CastMember) []CastResponse {
	out := make([]CastResponse, 0, len(cast))
	for _, m := range cast {
		cr := CastResponse{
			Name:      m.Name,
			Character: m.Character,
		}
		if s.images != nil && m.ProfilePath != "" {
			cr.ProfileURL = s.images.ProfileURL(ctx, m.ProfilePath)
		}
		out = append(out, cr)
	}
	return out
}
