package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel    = "google/gemini-2.5-flash-image-preview:free"
	DefaultTitle    = "Node-Based Image Generator"
	DefaultReferer  = "http://localhost:8080"

	// SystemInstruction keeps subjects and styles stable across generations
	SystemInstruction = "Ensure that all generated images keep characters, objects, and visual styles consistent unless explicitly instructed otherwise. Maintain the same subject identity across multiple generations including face, hairstyle, clothes, body shape, and accessories."

	ImageSize    = "1024x1024"
	ImageQuality = "high"
	MaxTokens    = 4096
)

// Request is one generation call. Images are image URLs or embedded data
// references, sent in order ahead of the prompt.
type Request struct {
	Prompt string
	Images []string
	APIKey string
}

// Result holds the image references the service returned
type Result struct {
	Images []string `json:"images"`
}

// Client talks to a multimodal chat-completion endpoint that can answer with
// images.
type Client struct {
	clientid   string
	endpoint   string
	model      string
	referer    string
	title      string
	httpclient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithReferer sets the origin sent in the HTTP-Referer header
func WithReferer(referer string) Option {
	return func(c *Client) { c.referer = referer }
}

// WithTitle sets the application name sent in the X-Title header
func WithTitle(title string) Option {
	return func(c *Client) { c.title = title }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpclient = hc }
}

// WithTimeout bounds every call. By default there is no client-side timeout.
// The timeout is applied to a copy of the http client, never to the one passed
// to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a generation client. Without options it targets the
// OpenRouter chat-completions endpoint with the free Gemini image model.
func NewClient(opts ...Option) *Client {
	retv := &Client{
		clientid:   uuid.New().String(),
		endpoint:   DefaultEndpoint,
		model:      DefaultModel,
		referer:    DefaultReferer,
		title:      DefaultTitle,
		httpclient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(retv)
	}
	if retv.httpclient == nil {
		retv.httpclient = &http.Client{}
	}
	if retv.timeout > 0 {
		hc := *retv.httpclient
		hc.Timeout = retv.timeout
		retv.httpclient = &hc
	}
	return retv
}

// ClientID returns the unique ID of this client instance
func (c *Client) ClientID() string {
	return c.clientid
}

func (c *Client) Model() string {
	return c.model
}

// return the underlying http client
func (c *Client) HttpClient() *http.Client {
	return c.httpclient
}

// set the underlying http client
func (c *Client) SetHttpClient(client *http.Client) {
	c.httpclient = client
}

// Generate sends the prompt and images to the service and returns the images
// it produced. Blank API keys and prompts are refused before any request is
// made. Failures at the HTTP boundary come back as *GenerationError.
// Nothing is retried.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrMissingPrompt
	}

	payload := c.newChatRequest(req.Prompt, req.Images)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, transportError(err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, transportError(err)
	}
	hreq.Header.Set("Authorization", "Bearer "+req.APIKey)
	hreq.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		hreq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		hreq.Header.Set("X-Title", c.title)
	}

	c.logger.Info("Sending generation request",
		"client_id", c.clientid,
		"model", payload.Model,
		"message_count", len(payload.Messages),
		"image_count", len(req.Images),
		"prompt_length", len(req.Prompt),
	)

	resp, err := c.httpclient.Do(hreq)
	if err != nil {
		c.logger.Error("Generation request failed", "error", err)
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	chat := &ChatResponse{}
	decodeErr := json.Unmarshal(body, chat)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstream := ""
		if decodeErr == nil && chat.Error != nil {
			upstream = chat.Error.Message
		}
		ge := classifyStatus(resp.StatusCode, upstream)
		c.logger.Error("Generation rejected", "status", resp.StatusCode, "kind", ge.Kind)
		return nil, ge
	}

	if decodeErr != nil {
		c.logger.Error("error unmarshalling generation response", "body_length", len(body))
		return nil, transportError(fmt.Errorf("decode response: %w", decodeErr))
	}

	// some providers answer 200 with an error envelope
	if chat.Error != nil {
		msg := chat.Error.Message
		if msg == "" {
			msg = "API request failed"
		}
		return nil, &GenerationError{Kind: ErrorKindUpstream, StatusCode: resp.StatusCode, Message: msg}
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message == nil {
		return nil, ErrNoMessage
	}

	images := chat.Choices[0].Message.ExtractImages()
	if len(images) == 0 {
		c.logger.Warn("No images found in response", "body_length", len(body))
		return nil, ErrNoImagesGenerated
	}

	c.logger.Info(fmt.Sprintf("Successfully generated %d image(s)", len(images)))
	return &Result{Images: images}, nil
}
