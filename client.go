package freeathome

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// apiPathPrefix is the fixed prefix for all SysAP local API calls.
	apiPathPrefix = "/fhapi/v1"

	// DefaultSysAPUUID is the system identifier used by a standard SysAP
	// installation. Multi-SysAP setups override it with WithSysAPUUID.
	DefaultSysAPUUID = "00000000-0000-0000-0000-000000000000"

	// DefaultRetryInterval is the pause between WebSocket reconnect
	// attempts after a transient connection failure.
	DefaultRetryInterval = 5 * time.Second
)

// Client is a free@home SysAP local API client.
type Client struct {
	host      string
	username  string
	password  string
	sysAPUUID string

	session       *session
	logger        *slog.Logger
	cache         Cache
	cacheTTL      time.Duration
	retryInterval time.Duration

	ws wsChannel
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient supplies an external HTTP client. The client is borrowed:
// Close will not tear it down, and the configured TLS policy options are
// ignored in favor of the client's own transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.session.httpClient = client
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. SysAPs
// ship with self-signed certificates, so this is common on local networks.
func WithInsecureSkipVerify() Option {
	return func(c *Client) error {
		c.session.insecureSkipVerify = true
		return nil
	}
}

// WithRootCAFile trusts the CA certificate at the given PEM file path
// instead of the system pool.
func WithRootCAFile(path string) Option {
	return func(c *Client) error {
		c.session.rootCAFile = path
		return nil
	}
}

// WithSysAPUUID overrides the system identifier under which the SysAP
// nests its responses and event payloads.
func WithSysAPUUID(id string) Option {
	return func(c *Client) error {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSysAPUUID, id)
		}
		c.sysAPUUID = parsed.String()
		return nil
	}
}

// WithLogger configures a structured logger for the client.
// When set, the client logs API requests and WebSocket lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithCache enables caching of the configuration tree with the given TTL.
// If ttl is 0 or negative, entries never expire.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) error {
		c.cache = cache
		c.cacheTTL = ttl
		return nil
	}
}

// WithRetryInterval sets the pause between WebSocket reconnect attempts
// after a transient connection failure.
func WithRetryInterval(interval time.Duration) Option {
	return func(c *Client) error {
		c.retryInterval = interval
		return nil
	}
}

// NewClient creates a new free@home SysAP client. The host must include a
// scheme (e.g. https://192.168.1.100); it is validated on first request,
// not here.
func NewClient(host, username, password string, opts ...Option) (*Client, error) {
	c := &Client{
		host:          strings.TrimRight(host, "/"),
		username:      username,
		password:      password,
		sysAPUUID:     DefaultSysAPUUID,
		session:       newSession(nil, false, ""),
		retryInterval: DefaultRetryInterval,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SysAPUUID returns the system identifier the client addresses.
func (c *Client) SysAPUUID() string {
	return c.sysAPUUID
}

// Close releases the client's resources: any open WebSocket connection is
// closed, and the HTTP session is torn down if the client owns it.
func (c *Client) Close() {
	c.DisconnectWebSocket()
	c.session.close()
}

// Result holds a decoded API response body. Exactly one field is set,
// depending on the response content type; both are empty for content
// types the SysAP is not expected to produce.
type Result struct {
	// JSON is the raw body when the SysAP responded with application/json.
	JSON []byte
	// Text is the body when the SysAP responded with text/plain.
	Text string
}

// Request performs an authenticated call against the SysAP local API.
// The path is appended to the fixed /fhapi/v1 prefix; payload may be nil.
// Failures are classified into the package's sentinel errors.
func (c *Client) Request(ctx context.Context, method, path string, payload []byte) (*Result, error) {
	reqURL, err := c.buildURL(path)
	if err != nil {
		return nil, err
	}

	httpClient, err := c.session.client()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), reqURL, body)
	if err != nil {
		// The host was validated by buildURL, so only a malformed method
		// can fail here.
		return nil, fmt.Errorf("freeathome: building %s request for %s: %v", method, path, err)
	}
	req.SetBasicAuth(c.username, c.password)

	if c.logger != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "api_request",
			slog.String("method", req.Method),
			slog.String("url", reqURL),
		)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, c.classifyStatus(resp.StatusCode, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrClientConnection, c.host)
	}

	switch contentType(resp.Header) {
	case "application/json":
		return &Result{JSON: data}, nil
	case "text/plain":
		return &Result{Text: string(data)}, nil
	default:
		return &Result{}, nil
	}
}

// buildURL joins the configured host, the API prefix and the request
// path, rejecting hosts without a scheme before any network I/O.
func (c *Client) buildURL(path string) (string, error) {
	u, err := url.Parse(c.host)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidHost, c.host)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.host + apiPathPrefix + path, nil
}

// classifyTransportError maps a failed round trip onto the error
// taxonomy: TLS failures ahead of generic connection failures.
func (c *Client) classifyTransportError(err error) error {
	if isTLSError(err) {
		return fmt.Errorf("%w: host %s", ErrSSL, c.host)
	}
	return fmt.Errorf("%w: %s", ErrClientConnection, c.host)
}

// classifyStatus maps a non-2xx response status onto the error taxonomy.
// The SysAP's reverse proxy reports an unreachable backend as 502, which
// the local API treats as a connection timeout rather than a gateway
// error; that mapping is preserved here.
func (c *Client) classifyStatus(statusCode int, path string) error {
	switch statusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, path)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: user %s", ErrInvalidCredentials, c.username)
	case http.StatusForbidden:
		return fmt.Errorf("%w (status code: %d): %s", ErrForbidden, statusCode, path)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: host %s", ErrConnectionTimeout, c.host)
	default:
		return fmt.Errorf("%w: status code %d", ErrInvalidAPIResponse, statusCode)
	}
}

// contentType returns the media type of a response, without parameters.
func contentType(header http.Header) string {
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}
