package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/brand-er1/clothology-express-sub000/internal/platform/config"
)

// ErrNoImages is returned when the model produced no usable images.
var ErrNoImages = errors.New("imagegen: model returned no images")

// GeneratedImage holds one rendered preview returned by the model.
type GeneratedImage struct {
	Data           []byte
	MIMEType       string
	EnhancedPrompt string
}

// Generator renders product preview images from a text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, count int) ([]GeneratedImage, error)
}

// Client talks to the Gemini API with request rate limiting.
type Client struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient constructs an image generation client from configuration.
func NewClient(ctx context.Context, cfg config.GenAIConfig) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("imagegen: api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("imagegen: model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("imagegen: create client: %w", err)
	}

	perMinute := cfg.RequestsPerMin
	if perMinute <= 0 {
		perMinute = 10
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &Client{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		timeout: timeout,
	}, nil
}

// Generate renders count preview images for the prompt. The call blocks until
// the rate limiter admits the request.
func (c *Client) Generate(ctx context.Context, prompt string, count int) ([]GeneratedImage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("imagegen: prompt is required")
	}
	if count <= 0 {
		count = 1
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateImages(ctx, c.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
	})
	if err != nil {
		return nil, fmt.Errorf("imagegen: generate: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, ErrNoImages
	}

	images := make([]GeneratedImage, 0, len(resp.GeneratedImages))
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mimeType := generated.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		images = append(images, GeneratedImage{
			Data:           generated.Image.ImageBytes,
			MIMEType:       mimeType,
			EnhancedPrompt: generated.EnhancedPrompt,
		})
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}
