// Package provider is the only code that talks to the hosted generative model API. It turns
// domain requests into generateContent calls and hands back raw text, structured JSON text,
// grounding citations or inline image payloads. Parsing those payloads is the caller's job.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"keywordpulse/pkg/logger"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"

	opGenerate = "generateContent"
)

// Models names the model used for each kind of call.
type Models struct {
	Analysis string
	Tips     string
	Chat     string
	Image    string
}

type Config struct {
	BaseURL    string
	APIVersion string
	APIKey     string
	Models     Models

	// Timeout bounds a single HTTP round trip. Zero leaves it to the context deadline or the
	// transport defaults.
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	ThinkingBudget int
	Transport      TransportConfig
}

// Client holds no per-call state. Each method is one request/response round trip and is safe
// to call concurrently and to retry.
type Client struct {
	baseURL        string
	apiVersion     string
	apiKey         string
	models         Models
	timeout        time.Duration
	thinkingBudget int
	http           *fasthttp.Client
	retry          *Retry
	log            *logger.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("provider API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Transport == (TransportConfig{}) {
		cfg.Transport = DefaultTransportConfig()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		apiVersion:     strings.Trim(cfg.APIVersion, "/"),
		apiKey:         cfg.APIKey,
		models:         cfg.Models,
		timeout:        cfg.Timeout,
		thinkingBudget: cfg.ThinkingBudget,
		http:           newHTTPClient(cfg.Transport, "keywordpulse"),
		retry:          NewRetry(cfg.MaxRetries, cfg.RetryDelay),
		log:            logger.GetLogger().Component("provider"),
	}, nil
}

// StructuredRequest asks for a JSON-only answer matching Schema.
type StructuredRequest struct {
	Prompt                string
	SystemInstruction     string
	Schema                *Schema
	EnableSearchGrounding bool
}

// StructuredResult carries the unparsed JSON text and any grounding citations.
type StructuredResult struct {
	RawJSON   string
	Citations []Citation
}

func (c *Client) GenerateStructured(ctx context.Context, req StructuredRequest) (*StructuredResult, error) {
	body := &GenerateContentRequest{
		Contents:          []Content{UserText(req.Prompt)},
		SystemInstruction: systemContent(req.SystemInstruction),
		GenerationConfig: &GenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}
	if req.EnableSearchGrounding {
		body.Tools = []Tool{{GoogleSearch: &GoogleSearch{}}}
	}
	if c.thinkingBudget != 0 {
		body.GenerationConfig.ThinkingConfig = &ThinkingConfig{ThinkingBudget: c.thinkingBudget}
	}

	resp, err := c.generate(ctx, c.models.Analysis, body)
	if err != nil {
		return nil, err
	}
	return &StructuredResult{RawJSON: resp.Text(), Citations: resp.Citations()}, nil
}

// GenerateText is a plain, ungrounded completion. systemInstruction may be empty.
func (c *Client) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	resp, err := c.generate(ctx, c.models.Tips, &GenerateContentRequest{
		Contents:          []Content{UserText(prompt)},
		SystemInstruction: systemContent(systemInstruction),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// EditImage sends the base64 image and the instruction in one multimodal request and returns the
// first inline payload of the answer, or ErrNoImage.
func (c *Client) EditImage(ctx context.Context, data, mimeType, instruction string) (*Blob, error) {
	resp, err := c.generate(ctx, c.models.Image, &GenerateContentRequest{
		Contents: []Content{{
			Role: RoleUser,
			Parts: []Part{
				{InlineData: &Blob{MIMEType: mimeType, Data: data}},
				{Text: instruction},
			},
		}},
	})
	if err != nil {
		return nil, err
	}

	blob := resp.FirstInlineData()
	if blob == nil {
		c.log.WithField("finish_reason", finishReason(resp)).Warn("Image edit returned no inline image")
		return nil, ErrNoImage
	}
	return blob, nil
}

// StartChat opens a session seeded with priorTurns. The slice is copied; the caller's copy is
// never modified.
func (c *Client) StartChat(systemInstruction string, priorTurns []Content) *ChatSession {
	history := make([]Content, len(priorTurns))
	copy(history, priorTurns)
	return &ChatSession{client: c, system: systemInstruction, history: history}
}

// SendChat opens a throwaway session over history and sends one message.
func (c *Client) SendChat(ctx context.Context, systemInstruction string, history []Content, message string) (string, error) {
	return c.StartChat(systemInstruction, history).Send(ctx, message)
}

func (c *Client) generate(ctx context.Context, model string, body *GenerateContentRequest) (*GenerateContentResponse, error) {
	if model == "" {
		return nil, &Error{Op: opGenerate, Message: "no model configured"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Op: opGenerate, Model: model, Message: "failed to marshal request", Err: err}
	}

	start := time.Now()
	log := c.log.WithField("model", model)
	log.WithField("request_bytes", len(payload)).Debug("Sending generateContent request")

	var out *GenerateContentResponse
	err = c.retry.Execute(ctx, func() error {
		resp, err := c.doOnce(ctx, model, payload)
		if err != nil {
			log.WithError(err).Debug("generateContent attempt failed")
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("duration_ms", time.Since(start).Milliseconds()).Error("generateContent failed")
		var pe *Error
		if !errors.As(err, &pe) {
			err = &Error{Op: opGenerate, Model: model, Message: "request aborted", Err: err}
		}
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
		"candidates":  len(out.Candidates),
	}).Debug("generateContent completed")
	return out, nil
}

func (c *Client) doOnce(ctx context.Context, model string, payload []byte) (*GenerateContentResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint(model))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.SetUserAgent("keywordpulse/1.0")
	req.SetBody(payload)

	if err := doRequest(ctx, c.http, c.timeout, req, resp); err != nil {
		return nil, &Error{Op: opGenerate, Model: model, Message: "request failed", Err: err}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, decodeError(opGenerate, model, resp.StatusCode(), resp.Body())
	}

	var out GenerateContentResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &Error{Op: opGenerate, Model: model, StatusCode: fasthttp.StatusOK, Message: "failed to decode response envelope", Err: err}
	}
	return &out, nil
}

func (c *Client) endpoint(model string) string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, url.PathEscape(model))
}

func systemContent(text string) *Content {
	if text == "" {
		return nil
	}
	return &Content{Parts: []Part{{Text: text}}}
}

func finishReason(resp *GenerateContentResponse) string {
	if c := resp.first(); c != nil {
		return c.FinishReason
	}
	if resp != nil && resp.PromptFeedback != nil {
		return resp.PromptFeedback.BlockReason
	}
	return ""
}
