package watchlist

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/reelist-io/reelist/services/tmdb"
)

type VideoResponse struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type DetailsResponse struct {
	*ItemResponse
	Videos  []VideoResponse `json:"videos"`
	Credits []CastResponse  `json:"credits"`
}

// details returns the stored item plus live catalog extras: the primary
// trailer (a list of zero or one) and the top cast. Extras are fetched
// concurrently and degrade to empty on failure.
func (s *Handler) details(c *gin.Context) {
	id, ok := bindItemID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("failed to fetch watchlist item")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	resp := &DetailsResponse{
		ItemResponse: s.renderItem(ctx, item),
		Videos:       []VideoResponse{},
		Credits:      []CastResponse{},
	}

	if s.catalog != nil {
		var (
			wg    sync.WaitGroup
			video *tmdb.Video
			cast  []tmdb.CastMember
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			v, err := s.catalog.GetPrimaryVideo(ctx, item.TMDBID)
			if err != nil {
				log.WithError(err).Warnf("failed to get video for movie %d", item.TMDBID)
				return
			}
			video = v
		}()
		go func() {
			defer wg.Done()
			cm, err := s.catalog.GetTopCredits(ctx, item.TMDBID)
			if err != nil {
				log.WithError(err).Warnf("failed to get credits for movie %d", item.TMDBID)
				return
			}
			cast = cm
		}()
		wg.Wait()
		if video != nil {
			resp.Videos = append(resp.Videos, VideoResponse{
				Key:      video.Key,
				Name:     video.Name,
				Site:     video.Site,
				Type:     video.Type,
				Official: video.Official,
			})
		}
		resp.Credits = s.renderCast(ctx, cast)
	}

	c.JSON(http.StatusOK, resp)
}
