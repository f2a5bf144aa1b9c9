// Package authclient exchanges credentials for a bearer token at the remote
// authentication endpoint.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/pomerium/teamdash/internal/httputil"
)

var (
	// ErrInvalidCredentials is returned when the endpoint rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetworkUnavailable is returned when the endpoint cannot be reached.
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 1 << 20

// RejectedError is returned when the endpoint answers with a non-2xx status
// or without a token.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("authclient: sign-in rejected (%s): %s", httputil.StatusText(e.Status), e.Message)
}

// Unwrap implements the `error` Unwrap interface.
func (e *RejectedError) Unwrap() error { return ErrInvalidCredentials }

// An AuthClient signs users in.
type AuthClient struct {
	cfg *config
}

// New creates a new AuthClient.
func New(options ...Option) *AuthClient {
	return &AuthClient{
		cfg: getConfig(options...),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn posts the credentials and returns the token from the response.
//
// A response without a 2xx status, or one without a non-empty "token"
// field, yields a *RejectedError. Transport failures wrap
// ErrNetworkUnavailable.
func (client *AuthClient) SignIn(ctx context.Context, email, password string) (string, error) {
	bs, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.cfg.url.String(), bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("authclient: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := client.cfg.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("authclient: %w: %w", ErrNetworkUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("authclient: %w: %w", ErrNetworkUnavailable, err)
	}

	if res.StatusCode/100 != 2 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = "Invalid credentials"
		}
		return "", &RejectedError{Status: res.StatusCode, Message: msg}
	}

	token := gjson.GetBytes(body, "token").String()
	if token == "" {
		return "", &RejectedError{Status: res.StatusCode, Message: "response did not contain a token"}
	}
	return token, nil
}

type config struct {
	httpClient *http.Client
	url        *url.URL
}

// An Option customizes the AuthClient.
type Option func(*config)

// WithHTTPClient sets the http client used to reach the endpoint.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = httpClient
	}
}

// WithURL sets the authentication endpoint.
func WithURL(u *url.URL) Option {
	return func(cfg *config) {
		cfg.url = u
	}
}

// DefaultURL is the authentication endpoint used when none is configured.
var DefaultURL = &url.URL{
	Scheme: "https",
	Host:   "reqres.in",
	Path:   "/api/login",
}

func getConfig(options ...Option) *config {
	cfg := new(config)
	WithHTTPClient(http.DefaultClient)(cfg)
	WithURL(DefaultURL)(cfg)
	for _, o := range options {
		o(cfg)
	}
	return cfg
}
