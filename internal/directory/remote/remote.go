// Package remote contains a directory provider backed by a JSON users
// endpoint.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pomerium/teamdash/internal/directory"
	"github.com/pomerium/teamdash/internal/httputil"
	"github.com/pomerium/teamdash/internal/log"
)

// Name is the provider name.
const Name = "remote"

// defaultQPS is the request rate used when none is configured.
const defaultQPS = 10

// DefaultURL is the API base used when none is configured.
var DefaultURL = &url.URL{
	Scheme: "https",
	Host:   "jsonplaceholder.typicode.com",
}

type config struct {
	httpClient *http.Client
	qps        float64
	url        *url.URL
}

// An Option updates the remote configuration.
type Option func(cfg *config)

// WithHTTPClient sets the http client option. The client is expected to
// carry the request gate.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = httpClient
	}
}

// WithQPS sets the query per second option.
func WithQPS(qps float64) Option {
	return func(cfg *config) {
		cfg.qps = qps
	}
}

// WithURL sets the api base url in the config.
func WithURL(u *url.URL) Option {
	return func(cfg *config) {
		cfg.url = u
	}
}

func getConfig(options ...Option) *config {
	cfg := new(config)
	WithHTTPClient(http.DefaultClient)(cfg)
	WithQPS(defaultQPS)(cfg)
	WithURL(DefaultURL)(cfg)
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

// The Provider retrieves members from {base}/users.
type Provider struct {
	cfg     *config
	log     zerolog.Logger
	limiter *rate.Limiter
}

var _ directory.Provider = (*Provider)(nil)

// New creates a new Provider.
func New(options ...Option) *Provider {
	cfg := getConfig(options...)
	if cfg.qps <= 0 {
		cfg.qps = defaultQPS
	}
	return &Provider{
		cfg:     cfg,
		log:     log.With().Str("service", "directory").Str("provider", Name).Logger(),
		limiter: rate.NewLimiter(rate.Limit(cfg.qps), max(1, int(cfg.qps))),
	}
}

// Members returns the members listed by the endpoint. Non-2xx responses are
// returned as *httputil.HTTPError.
func (p *Provider) Members(ctx context.Context) ([]directory.Member, error) {
	apiURL := p.cfg.url.JoinPath("users").String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("remote: rate limit: %w", err)
	}

	res, err := p.cfg.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to make http request: %w", err)
	}
	defer res.Body.Close()
	if err := httputil.CheckResponse(res); err != nil {
		return nil, err
	}

	var members []directory.Member
	if err := json.NewDecoder(res.Body).Decode(&members); err != nil {
		return nil, fmt.Errorf("remote: failed to decode json body: %w", err)
	}
	p.log.Debug().Int("count", len(members)).Msg("remote: fetched members")
	return members, nil
}
