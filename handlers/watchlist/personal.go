package watchlist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type personalRequest struct {
	Rating *float64 `json:"personal_rating"`
	Notes  *string  `json:"personal_notes"`
}

// personal updates the user's own rating and notes. Absent fields keep their
// stored values.
func (s *Handler) personal(c *gin.Context) {
	id, ok := bindItemID(c)
	if !ok {
		return
	}
	var req personalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Personal notes must be text."})
		return
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Personal rating must be between 0 and 5 stars."})
		return
	}
	ctx := c.Request.Context()
	item, err := s.store.UpdatePersonal(ctx, id, req.Rating, req.Notes)
	if err != nil {
		log.WithError(err).Error("failed to update item personal details")
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	c.JSON(http.StatusOK, s.renderItem(ctx, item))
}
