package watchlist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/reelist-io/reelist/models"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Handler) status(c *gin.Context) {
	id, ok := bindItemID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	st := models.ItemStatus(req.Status)
	if !st.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	ctx := c.Request.Context()
	item, err := s.store.UpdateStatus(ctx, id, st)
	if err != nil {
		log.WithError(err).Error("failed to update item status")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, s.renderItem(ctx, item))
}
