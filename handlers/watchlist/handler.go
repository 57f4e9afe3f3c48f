package watchlist

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	cs "github.com/webtor-io/common-services"

	"github.com/reelist-io/reelist/models"
	"github.com/reelist-io/reelist/services/enrich"
	"github.com/reelist-io/reelist/services/extract"
	"github.com/reelist-io/reelist/services/tmdb"
)

type itemStore interface {
	Create(ctx context.Context, item *models.WatchlistItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WatchlistItem, error)
	GetByTMDBID(ctx context.Context, tmdbID int64) (*models.WatchlistItem, error)
	List(ctx context.Context, status *models.ItemStatus) ([]*models.WatchlistItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ItemStatus) (*models.WatchlistItem, error)
	UpdatePersonal(ctx context.Context, id uuid.UUID, rating *float64, notes *string) (*models.WatchlistItem, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type enricher interface {
	ResolveAndEnrich(ctx context.Context, res *extract.Result) (*enrich.Enrichment, error)
}

type videoCatalog interface {
	GetPrimaryVideo(ctx context.Context, id int64) (*tmdb.Video, error)
	GetTopCredits(ctx context.Context, id int64) ([]tmdb.CastMember, error)
}

type imageLinker interface {
	PosterURL(ctx context.Context, path string) string
	ProviderLogoURL(ctx context.Context, path string) string
	ProfileURL(ctx context.Context, path string) string
}

type Handler struct {
	store    itemStore
	enricher enricher
	text     extract.Extractor
	image    extract.Extractor
	catalog  videoCatalog
	images   imageLinker
}

func RegisterHandler(r *gin.Engine, pg *cs.PG, en *enrich.Enricher, text, image extract.Extractor, api *tmdb.Api) {
	h := &Handler{
		store: &pgStore{pg: pg},
		text:  text,
		image: image,
	}
	// typed nils must not survive the interface conversion
	if en != nil {
		h.enricher = en
	}
	if api != nil {
		h.catalog = api
		h.images = api
	}
	h.register(r)
}

func (s *Handler) register(r *gin.Engine) {
	gr := r.Group("/api")
	gr.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders: []string{"Content-Type"},
	}))
	gr.POST("/items/intake", s.intake)
	gr.GET("/items", s.index)
	gr.GET("/items/:id", s.get)
	gr.DELETE("/items/:id", s.remove)
	gr.GET("/items/:id/details", s.details)
	gr.PATCH("/items/:id/status", s.status)
	gr.PATCH("/items/:id/personal", s.personal)
}
