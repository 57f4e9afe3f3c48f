package images

import (
	"io"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var (
	sizeRe = regexp.MustCompile(`^[a-z0-9_]+$`)
	nameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

// proxy streams a catalog image through this server so clients never talk to
// the CDN directly. Path segments are validated against the CDN's naming
// scheme before they are used to build the upstream URL.
func (s *Handler) proxy(c *gin.Context) {
	size := c.Param("size")
	name := c.Param("name")
	if !sizeRe.MatchString(size) || !nameRe.MatchString(name) {
		c.Status(http.StatusBadRequest)
		return
	}
	if s.api == nil {
		c.Status(http.StatusNotFound)
		return
	}

	ctx := c.Request.Context()
	u := s.api.ImageURL(ctx, name, size)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	resp, err := s.cl.Do(req)
	if err != nil {
		log.WithError(err).Warnf("failed to fetch image %v", u)
		c.Status(http.StatusBadGateway)
		return
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.Status(http.StatusBadGateway)
		return
	}

	c.Header("Content-Type", resp.Header.Get("Content-Type"))
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, resp.Body)
}
