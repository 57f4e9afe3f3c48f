package watchlist

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/reelist-io/reelist/models"
	"github.com/reelist-io/reelist/services/enrich"
	"github.com/reelist-io/reelist/services/extract"
)

type intakeRequest struct {
	Input string `json:"input"`
	Image string `json:"image"`
}

// intake is the single entry point for adding a movie: free text or an image
// goes in, an identified and enriched watchlist item comes out. When both are
// present the image wins.
func (s *Handler) intake(c *gin.Context) {
	var req intakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a movie title or upload an image"})
		return
	}
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a movie title or upload an image"})
		return
	}
	if s.enricher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Movie identification is not configured"})
		return
	}

	ctx := c.Request.Context()

	var (
		res      *extract.Result
		rawInput string
		err      error
	)
	if req.Image != "" {
		if s.image == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Movie identification is not configured"})
			return
		}
		rawInput = "[Image upload]"
		res, err = s.image.Extract(ctx, req.Image)
		if err != nil {
			log.WithError(err).Warn("movie extraction from image failed")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not identify a movie from the image. Try a clearer image or enter the title manually."})
			return
		}
	} else {
		if s.text == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Movie identification is not configured"})
			return
		}
		rawInput = req.Input
		res, err = s.text.Extract(ctx, req.Input)
		if err != nil {
			log.WithError(err).Warn("movie extraction failed")
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not extract a movie title. Try adding more detail or the release year."})
			return
		}
	}

	en, err := s.enricher.ResolveAndEnrich(ctx, res)
	if err != nil {
		s.renderEnrichError(c, err)
		return
	}

	// check for a duplicate up front to answer with the existing item
	existing, err := s.store.GetByTMDBID(ctx, en.TMDBID)
	if err != nil {
		log.WithError(err).Error("failed to check for duplicate item")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Already on your list",
			"item":  s.renderItem(ctx, existing),
		})
		return
	}

	item := &models.WatchlistItem{
		TMDBID:      en.TMDBID,
		RawInput:    rawInput,
		Title:       res.Title,
		Year:        en.Year,
		Description: en.Description,
		PosterPath:  en.PosterPath,
		ReleaseDate: en.ReleaseDate,
		Genres:      en.Genres,
		VoteAverage: en.VoteAverage,
		VoteCount:   en.VoteCount,
		Overview:    en.Overview,
		Runtime:     en.Runtime,
		Status:      models.StatusToWatch,
	}
	item.Providers = make([]models.Provider, 0, len(en.Providers))
	for _, p := range en.Providers {
		item.Providers = append(item.Providers, models.Provider{
			Name:            p.Name,
			LogoPath:        p.LogoPath,
			Kind:            string(p.Kind),
			DisplayPriority: p.DisplayPriority,
		})
	}

	if err := s.store.Create(ctx, item); err != nil {
		if errors.Is(err, models.ErrItemExists) {
			// lost an insert race, answer like the up-front check
			existing, gerr := s.store.GetByTMDBID(ctx, en.TMDBID)
			if gerr == nil && existing != nil {
				c.JSON(http.StatusConflict, gin.H{
					"error": "Already on your list",
					"item":  s.renderItem(ctx, existing),
				})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": "Already on your list"})
			return
		}
		log.WithError(err).Error("failed to create watchlist item")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, s.renderItem(ctx, item))
}

func (s *Handler) renderEnrichError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, enrich.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "We couldn't find that movie. Try adding the release year or a more specific title."})
	case errors.Is(err, enrich.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "The movie catalog is temporarily unavailable. Please try again."})
	default:
		log.WithError(err).Error("enrichment failed")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
	}
}
