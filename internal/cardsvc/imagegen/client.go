// Package imagegen talks to the external image-generation API.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// maxImageBytes bounds an image downloaded by reference.
	maxImageBytes = 32 << 20
	// maxResponseBytes bounds an API answer carrying one base64 image.
	maxResponseBytes = maxImageBytes/3*4 + 1<<16
)

// ErrNoImage is returned when the API answers without any image.
var ErrNoImage = errors.New("image generation returned no image")

// ErrImageTooLarge is returned when a referenced image exceeds maxImageBytes.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Generator produces raw image bytes for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

var _ Generator = (*Client)(nil)

// Client calls an OpenAI-compatible images API, one image per call.
type Client struct {
	api        openai.Client
	httpClient *http.Client
	model      string
}

// NewClient builds a client for the API rooted at baseURL, e.g.
// https://api.openai.com/v1/. A full .../images/generations endpoint is
// accepted too. The SDK's own retries are disabled.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/images/generations")

	api := openai.NewClient(
		option.WithBaseURL(baseURL+"/"),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithMiddleware(limitResponse(maxResponseBytes)),
	)

	return &Client{
		api:        api,
		httpClient: httpClient,
		model:      model,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if prompt == "" {
		return nil, errors.New("empty prompt")
	}

	resp, err := c.api.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(c.model),
		N:      openai.Int(1),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("image api status %d: %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("image api request: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoImage
	}

	img := resp.Data[0]
	switch {
	case img.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		return data, nil
	case img.URL != "":
		return c.download(ctx, img.URL)
	default:
		return nil, ErrNoImage
	}
}

// download fetches an image the API returned by reference.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return data, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}

// limitResponse truncates API response bodies; an oversized answer then
// fails to decode instead of being buffered whole.
func limitResponse(n int64) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		resp, err := next(req)
		if err != nil || resp == nil || resp.Body == nil {
			return resp, err
		}
		resp.Body = limitedBody{Reader: io.LimitReader(resp.Body, n), Closer: resp.Body}
		return resp, nil
	}
}
