package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/reelist-io/reelist/services/openai"
)

// Result is the best-guess movie reference extracted from user input.
type Result struct {
	Title       string
	Year        *int
	Description *string
}

// ErrNoTitle is returned when no movie title can be determined from the
// input; the user should rephrase instead of retrying as-is.
var ErrNoTitle = errors.New("could not extract a movie title")

// Extractor turns raw user input into a movie reference. The input is free
// text for the text implementation and a base64 image data URL for the image
// one; everything downstream of a Result is identical.
type Extractor interface {
	Extract(ctx context.Context, input string) (*Result, error)
}

const textSystemPrompt = "You are a movie title parser. Extract movie information from user input and return as JSON."

type Text struct {
	api *openai.Api
}

func NewText(api *openai.Api) *Text {
	if api == nil {
		return nil
	}
	return &Text{
		api: api,
	}
}

func (s *Text) Extract(ctx context.Context, input string) (*Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrNoTitle
	}
	prompt := fmt.Sprintf(`Extract movie title and optional year from the user input. If unsure about year or description, return null.
Reply as strict JSON with keys: title, year, description.

User input: %q`, input)
	content, err := s.api.CompleteJSON(ctx, s.api.TextModel(), []openai.Message{
		{Role: "system", Content: textSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse movie input")
	}
	return parseResult(content)
}

const imageSystemPrompt = `You are a movie identification expert. Analyze images (screenshots, movie posters, social media posts, etc.) to identify movies being discussed or shown.
Extract the main movie title from the image. This could be from:
- Movie posters or promotional material
- Social media posts or tweets about movies
- Screenshots from movies
- Text mentioning movies
- Video frames or scenes
Be careful to only extract actual movie titles, not TV shows or other content.
Return as strict JSON with keys: title, year, description.
If no movie can be identified, return null for title.`

const imageUserPrompt = "What movie is shown or discussed in this image? Extract the movie title and any additional information you can determine."

type Image struct {
	api *openai.Api
}

func NewImage(api *openai.Api) *Image {
	if api == nil {
		return nil
	}
	return &Image{
		api: api,
	}
}

func (s *Image) Extract(ctx context.Context, input string) (*Result, error) {
	if input == "" {
		return nil, ErrNoTitle
	}
	content, err := s.api.CompleteJSON(ctx, s.api.VisionModel(), []openai.Message{
		{Role: "system", Content: imageSystemPrompt},
		{Role: "user", Content: []any{
			openai.NewTextPart(imageUserPrompt),
			openai.NewImageURLPart(input, "high"),
		}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse movie image")
	}
	return parseResult(content)
}

func parseResult(content string) (*Result, error) {
	var parsed struct {
		Title       string  `json:"title"`
		Year        *int    `json:"year"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, errors.Wrap(err, "decode extraction result")
	}
	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		return nil, ErrNoTitle
	}
	return &Result{
		Title:       title,
		Year:        parsed.Year,
		Description: parsed.Description,
	}, nil
}
