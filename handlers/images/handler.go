package images

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/reelist-io/reelist/services/tmdb"
)

const (
	posterCacheS3BucketFlag = "poster-cache-s3-bucket"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   posterCacheS3BucketFlag,
			Usage:  "s3 bucket for resized poster cache",
			Value:  "",
			EnvVar: "POSTER_CACHE_S3_BUCKET",
		},
	)
}

type Handler struct {
	api                 *tmdb.Api
	cl                  *http.Client
	pg                  *cs.PG
	s3Cl                *cs.S3Client
	posterCacheS3Bucket string
}

func RegisterHandler(c *cli.Context, r *gin.Engine, api *tmdb.Api, cl *http.Client, pg *cs.PG, s3Cl *cs.S3Client) {
	h := &Handler{
		api:                 api,
		cl:                  cl,
		pg:                  pg,
		s3Cl:                s3Cl,
		posterCacheS3Bucket: c.String(posterCacheS3BucketFlag),
	}

	gr := r.Group("/tmdb/images")
	gr.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET"},
	}))
	gr.GET("/:size/:name", h.proxy)

	r.GET("/api/items/:id/poster/:file", h.poster)
}
