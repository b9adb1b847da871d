// Package smsoffice is a client for the smsoffice.ge SMS sending API.
package smsoffice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the provider's send endpoint.
const DefaultEndpoint = "https://smsoffice.ge/api/v2/send/"

// DefaultTimeout bounds a single exchange when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// Client is the contract for sending one SMS to one or more numbers.
type Client interface {
	Send(ctx context.Context, text string, phoneNumbers ...string) error
}

// response is the provider's reply body.
type response struct {
	Success   bool   `json:"Success"`
	Message   string `json:"Message"`
	ErrorCode int    `json:"ErrorCode"`
}

// Option customises a Sender.
type Option func(*Sender)

// WithHTTPClient replaces the underlying HTTP client. It must be safe for
// concurrent use.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithEndpoint overrides the provider URL.
func WithEndpoint(endpoint string) Option {
	return func(s *Sender) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// Sender posts messages to the provider. A Sender holds no per-request state
// and may be shared by concurrent callers once configured.
type Sender struct {
	apiKey       string
	messageTitle string
	endpoint     string
	httpClient   *http.Client
}

// NewSender creates a Sender. Empty apiKey or messageTitle are sent as-is; the
// provider reports them through its error codes.
func NewSender(apiKey, messageTitle string, opts ...Option) *Sender {
	s := &Sender{
		apiKey:       apiKey,
		messageTitle: messageTitle,
		endpoint:     DefaultEndpoint,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SetAPIKey sets the credential sent as "key". Not safe to call while sends are in flight.
func (s *Sender) SetAPIKey(apiKey string) { s.apiKey = apiKey }

// SetMessageTitle sets the display name sent as "sender". Not safe to call while
// sends are in flight.
func (s *Sender) SetMessageTitle(title string) { s.messageTitle = title }

// Send delivers text to phoneNumbers in a single request. It returns nil on
// success and an *Error otherwise.
//
// Reply codes the provider documents are mapped to a category; any other
// non-zero code is treated as success.
func (s *Sender) Send(ctx context.Context, text string, phoneNumbers ...string) error {
	resp, err := s.post(ctx, s.form(text, phoneNumbers))
	if err != nil {
		return err
	}
	return classify(resp.ErrorCode)
}

func (s *Sender) form(text string, phoneNumbers []string) url.Values {
	form := url.Values{}
	form.Set("key", s.apiKey)
	form.Set("destination", strings.Join(phoneNumbers, ","))
	form.Set("sender", s.messageTitle)
	form.Set("content", text)
	return form
}

// post performs the exchange. Every failure up to and including decoding the
// reply becomes a bad request.
func (s *Sender) post(ctx context.Context, form url.Values) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, badRequest(0, err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, badRequest(0, err.Error(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return nil, badRequest(0, fmt.Sprintf("status code %d", httpResp.StatusCode), nil)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, badRequest(0, err.Error(), err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, badRequest(0, err.Error(), err)
	}
	return &parsed, nil
}

func classify(code int) error {
	switch code {
	case 0:
		return nil
	case 10:
		return badRequest(code, "Foreign number", nil)
	case 20:
		return subscription(code, "Not enough funds on balance")
	case 40:
		return badRequest(code, "Text message size limit exceeded", nil)
	case 60:
		return badRequest(code, "Text message is empty", nil)
	case 70:
		return badRequest(code, "No numbers to send message", nil)
	case 80:
		return subscription(code, "API key isn't valid")
	case 110:
		return badRequest(code, "Invalid sender parameter", nil)
	case 120:
		return subscription(code, "API permissions hasn't granted")
	case 500:
		return badRequest(code, `"key" parameter is missing`, nil)
	case 600:
		return badRequest(code, `"destination" parameter is missing`, nil)
	case 700:
		return badRequest(code, `"sender" parameter is missing`, nil)
	case 800:
		return badRequest(code, `"content" parameter is missing`, nil)
	case -100:
		return internalServer(code)
	}
	// TODO: unknown codes are reported as success; switch to a bad request once the
	// provider's full code list is confirmed with the account team.
	return nil
}

var _ Client = (*Sender)(nil)
