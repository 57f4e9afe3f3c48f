package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	wi "github.com/reelist-io/reelist/handlers/images"
	ww "github.com/reelist-io/reelist/handlers/watchlist"
	"github.com/reelist-io/reelist/services/openai"
	"github.com/reelist-io/reelist/services/tmdb"
	w "github.com/reelist-io/reelist/services/web"
)

func makeServeCMD() cli.Command {
	serveCMD := cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves web server",
		Action:  serve,
	}
	configureServe(&serveCMD)
	return serveCMD
}

func configureServe(c *cli.Command) {
	c.Flags = cs.RegisterPGFlags(c.Flags)
	c.Flags = cs.RegisterProbeFlags(c.Flags)
	c.Flags = cs.RegisterPprofFlags(c.Flags)
	c.Flags = cs.RegisterS3ClientFlags(c.Flags)
	c.Flags = w.RegisterFlags(c.Flags)
	c.Flags = tmdb.RegisterFlags(c.Flags)
	c.Flags = openai.RegisterFlags(c.Flags)
	c.Flags = wi.RegisterFlags(c.Flags)
}

func serve(c *cli.Context) error {
	// Setting HTTP Client
	cl := http.DefaultClient

	// Setting DB
	pg := cs.NewPG(c)
	defer pg.Close()

	// Setting Migrations
	err := pgMigrate(c)
	if err != nil {
		return err
	}

	var servers []cs.Servable
	// Setting Probe
	probe := cs.NewProbe(c)
	if probe != nil {
		servers = append(servers, probe)
		defer probe.Close()
	}

	// Setting Pprof
	pprof := cs.NewPprof(c)
	if pprof != nil {
		servers = append(servers, pprof)
		defer pprof.Close()
	}

	// Setting Gin
	r := gin.Default()
	r.RedirectTrailingSlash = false

	// Setting Web
	web := w.New(c, r)
	servers = append(servers, web)
	defer web.Close()

	// Setting S3 Client
	s3Cl := cs.NewS3Client(c, cl)

	// Setting TMDB Api
	tmdbApi := tmdb.New(c, cl)
	if tmdbApi == nil {
		log.Warn("tmdb api key is not set, movie identification is disabled")
	}

	// Setting OpenAI Api
	openaiApi := openai.New(c, cl)
	if openaiApi == nil {
		log.Warn("openai api key is not set, movie identification is disabled")
	}

	// Setting Intake pipeline
	en, text, image := makeIntake(tmdbApi, openaiApi)

	// Setting WatchlistHandler
	ww.RegisterHandler(r, pg, en, text, image, tmdbApi)

	// Setting ImagesHandler
	wi.RegisterHandler(c, r, tmdbApi, cl, pg, s3Cl)

	// Setting Serve
	serve := cs.NewServe(servers...)

	// And SERVE!
	err = serve.Serve()
	if err != nil {
		log.WithError(err).Error("got server error")
	}
	return err
}
