package main

import (
	"github.com/reelist-io/reelist/services/enrich"
	"github.com/reelist-io/reelist/services/extract"
	"github.com/reelist-io/reelist/services/openai"
	"github.com/reelist-io/reelist/services/tmdb"
)

// makeIntake wires the identification pipeline. Any piece whose upstream is
// unconfigured comes back nil and the handlers degrade accordingly.
func makeIntake(tmdbApi *tmdb.Api, openaiApi *openai.Api) (*enrich.Enricher, extract.Extractor, extract.Extractor) {
	en := enrich.NewEnricher(tmdbApi)
	var text, image extract.Extractor
	if t := extract.NewText(openaiApi); t != nil {
		text = t
	}
	if i := extract.NewImage(openaiApi); i != nil {
		image = i
	}
	return en, text, image
}
