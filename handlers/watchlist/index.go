package watchlist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/reelist-io/reelist/models"
)

// index lists all items newest first. With a status query the body is a flat
// list; without one it is grouped by watched state.
func (s *Handler) index(c *gin.Context) {
	ctx := c.Request.Context()

	var status *models.ItemStatus
	if q := c.Query("status"); q != "" {
		st := models.ItemStatus(q)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status parameter"})
			return
		}
		status = &st
	}

	items, err := s.store.List(ctx, status)
	if err != nil {
		log.WithError(err).Error("failed to list watchlist items")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if status != nil {
		out := make([]*ItemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, s.renderItem(ctx, item))
		}
		c.JSON(http.StatusOK, out)
		return
	}

	toWatch := make([]*ItemResponse, 0)
	watched := make([]*ItemResponse, 0)
	for _, item := range items {
		r := s.renderItem(ctx, item)
		if item.Status == models.StatusWatched {
			watched = append(watched, r)
		} else {
			toWatch = append(toWatch, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"to_watch": toWatch,
		"watched":  watched,
	})
}
