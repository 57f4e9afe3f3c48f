package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	openaiApiKeyFlag      = "openai-api-key"
	openaiApiHostFlag     = "openai-api-host"
	openaiApiPortFlag     = "openai-api-port"
	openaiApiSecureFlag   = "openai-api-secure"
	openaiTextModelFlag   = "openai-text-model"
	openaiVisionModelFlag = "openai-vision-model"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   openaiApiHostFlag,
			Usage:  "openai api host",
			EnvVar: "OPENAI_API_HOST",
			Value:  "api.openai.com",
		},
		cli.IntFlag{
			Name:   openaiApiPortFlag,
			Usage:  "openai api port",
			EnvVar: "OPENAI_API_PORT",
			Value:  443,
		},
		cli.BoolTFlag{
			Name:   openaiApiSecureFlag,
			Usage:  "openai api secure (https)",
			EnvVar: "OPENAI_API_SECURE",
		},
		cli.StringFlag{
			Name:   openaiApiKeyFlag,
			Usage:  "openai api key",
			Value:  "",
			EnvVar: "OPENAI_API_KEY",
		},
		cli.StringFlag{
			Name:   openaiTextModelFlag,
			Usage:  "model for text parsing",
			Value:  "gpt-4-turbo-preview",
			EnvVar: "OPENAI_TEXT_MODEL",
		},
		cli.StringFlag{
			Name:   openaiVisionModelFlag,
			Usage:  "model for image parsing",
			Value:  "gpt-4o",
			EnvVar: "OPENAI_VISION_MODEL",
		},
	)
}

type Api struct {
	url            string
	textModel      string
	visionModel    string
	cl             *http.Client
	prepareRequest func(r *http.Request) (*http.Request, error)
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(openaiApiHostFlag)
	port := c.Int(openaiApiPortFlag)
	secure := c.BoolT(openaiApiSecureFlag)
	key := c.String(openaiApiKeyFlag)
	if key == "" {
		return nil
	}
	protocol := "http"
	if secure {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v", protocol, host, port)
	return NewApi(u, key, c.String(openaiTextModelFlag), c.String(openaiVisionModelFlag), cl)
}

func NewApi(u string, key string, textModel string, visionModel string, cl *http.Client) *Api {
	prepareRequest := func(r *http.Request) (*http.Request, error) {
		if key != "" {
			r.Header.Set("Authorization", "Bearer "+key)
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}
	log.Infof("openai api endpoint %v", u)
	return &Api{
		url:            u,
		textModel:      textModel,
		visionModel:    visionModel,
		cl:             cl,
		prepareRequest: prepareRequest,
	}
}

func (api *Api) TextModel() string {
	return api.textModel
}

func (api *Api) VisionModel() string {
	return api.visionModel
}

// Message content is either a plain string or a list of content parts
// (TextPart / ImageURLPart) for vision requests.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewTextPart(text string) TextPart {
	return TextPart{Type: "text", Text: text}
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type ImageURLPart struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

func NewImageURLPart(u, detail string) ImageURLPart {
	return ImageURLPart{Type: "image_url", ImageURL: ImageURL{URL: u, Detail: detail}}
}

type chatRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	Temperature    float64   `json:"temperature"`
	MaxTokens      int       `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteJSON runs one chat completion in JSON mode and returns the raw
// message content.
func (api *Api) CompleteJSON(ctx context.Context, model string, messages []Message) (string, error) {
	body := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   150,
	}
	body.ResponseFormat.Type = "json_object"

	data, err := json.Marshal(&body)
	if err != nil {
		return "", errors.Wrap(err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/v1/chat/completions", api.url), bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req, err = api.prepareRequest(req)
	if err != nil {
		return "", errors.Wrap(err, "prepare request")
	}
	resp, err := api.cl.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return raw.Choices[0].Message.Content, nil
}
