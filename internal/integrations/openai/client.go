package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	gogpt "github.com/sashabaranov/go-openai"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// KeySource yields the API key. credentials.Chain satisfies it.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client issues single chat-completion calls against an OpenAI-compatible
// endpoint and hands back the undecoded reply body. It holds no conversation
// state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keys       KeySource

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. The key is resolved from keys on the first call
// to Complete and reused for the lifetime of the process.
func NewClient(keys KeySource, opts ...Option) (*Client, error) {
	if keys == nil {
		return nil, errors.New("openai: key source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
		keys:       keys,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ChatURL is the endpoint Complete posts to.
func (c *Client) ChatURL() string {
	return chatURL(c.baseURL)
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = c.keys.APIKey(ctx)
		if c.keyErr != nil {
			c.keyErr = fmt.Errorf("openai: resolve api key: %w", c.keyErr)
		}
	})
	return c.apiKey, c.keyErr
}

// resolvedHTTPClient returns the configured HTTP client, or a default one if
// the field was cleared. No client-side timeout is imposed.
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

var wireRoles = map[domain.Role]string{
	domain.RoleSystem:    gogpt.ChatMessageRoleSystem,
	domain.RoleUser:      gogpt.ChatMessageRoleUser,
	domain.RoleAssistant: gogpt.ChatMessageRoleAssistant,
}

func toWireMessages(conv domain.Conversation) []gogpt.ChatCompletionMessage {
	out := make([]gogpt.ChatCompletionMessage, 0, conv.Len())
	for _, m := range conv.Messages() {
		role, ok := wireRoles[m.Role]
		if !ok {
			role = string(m.Role)
		}
		out = append(out, gogpt.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// Complete sends the whole conversation to the model and returns the raw
// reply body. Transport failures and non-2xx statuses are returned as errors;
// nothing is retried.
func (c *Client) Complete(ctx context.Context, model string, conv domain.Conversation) (domain.RawReply, error) {
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(gogpt.ChatCompletionRequest{
		Model:    model,
		Messages: toWireMessages(conv),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("openai: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	return domain.RawReply(raw), nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		statusErr := &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
		var apiErr gogpt.ErrorResponse
		if json.Unmarshal(buf, &apiErr) == nil && apiErr.Error != nil {
			statusErr.Message = apiErr.Error.Message
		}
		return nil, statusErr
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
