package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/taxocrawl/internal/model"
	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxBodySize limits how much of a response is read.
const DefaultMaxBodySize = 64 * 1024 * 1024

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "taxocrawl/1.0 (+https://github.com/nao1215/taxocrawl)"

// maxErrorBody is how much of a non-2xx body is kept in StatusError.
const maxErrorBody = 512

// Fetcher retrieves taxonomy forests.
type Fetcher struct {
	user         string
	password     string
	userAgent    string
	maxBodySize  int64
	timeout      time.Duration
	proxyAddress string
	client       *http.Client
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Timeout and proxy options are
// ignored when a client is supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the overall request timeout. Zero keeps the HTTP
// client default, which is no timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum response size in bytes.
// Zero or a negative value keeps the default.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithProxy routes requests through the SOCKS5 proxy at address.
func WithProxy(address string) Option {
	return func(f *Fetcher) {
		f.proxyAddress = address
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher authenticating as user with password.
// Empty credentials are sent as given.
func New(user, password string, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		user:        user,
		password:    password,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	if f.client == nil {
		client, err := newHTTPClient(f.timeout, f.proxyAddress)
		if err != nil {
			return nil, err
		}
		f.client = client
	}
	return f, nil
}

// newHTTPClient builds the default client, optionally dialing through a
// SOCKS5 proxy.
func newHTTPClient(timeout time.Duration, proxyAddress string) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}
	if proxyAddress == "" {
		return client, nil
	}

	if !IsValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	client.Transport = transport
	return client, nil
}

// IsValidProxyAddress reports whether address is a host:port pair with a
// port between 1 and 65535.
func IsValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// Fetch retrieves the taxonomy at rawURL. An empty slice and a nil error
// mean the service returned no terms.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]*model.Term, error) {
	endpoint, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(f.user, f.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	f.logger.Debug("fetching taxonomy", "url", endpoint.Redacted())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request taxonomy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best effort for the error message
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	terms, err := f.decode(resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("taxonomy fetched",
		"url", endpoint.Redacted(),
		"terms", len(terms),
		"visits", model.VisitCount(terms),
	)
	return terms, nil
}

// decode reads at most maxBodySize bytes of UTF-8 JSON from r.
func (f *Fetcher) decode(r io.Reader) ([]*model.Term, error) {
	limited := &io.LimitedReader{R: r, N: f.maxBodySize + 1}
	utf8 := transform.NewReader(limited, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	data, err := io.ReadAll(utf8)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy response: %w", err)
	}
	if limited.N <= 0 {
		return nil, ErrBodyTooLarge
	}

	var terms []*model.Term
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("parse taxonomy response: %w", err)
	}
	return dropNil(terms), nil
}

// dropNil removes null entries at every depth of the forest. The result
// is never nil.
func dropNil(terms []*model.Term) []*model.Term {
	terms = slices.DeleteFunc(terms, func(t *model.Term) bool { return t == nil })
	for _, t := range terms {
		if len(t.RelatedTerms) > 0 {
			t.RelatedTerms = dropNil(t.RelatedTerms)
		}
	}
	if terms == nil {
		return []*model.Term{}
	}
	return terms
}

// parseURL validates rawURL as an absolute http(s) URL.
func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}
