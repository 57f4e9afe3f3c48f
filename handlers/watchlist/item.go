package watchlist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// bindItemID parses the id path param; a malformed id is indistinguishable
// from a missing item for the client.
func bindItemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Handler) get(c *gin.Context) {
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
	c.JSON(http.StatusOK, s.renderItem(ctx, item))
}

func (s *Handler) remove(c *gin.Context) {
	id, ok := bindItemID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		log.WithError(err).Error("failed to delete watchlist item")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
