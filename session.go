package freeathome

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// session owns the HTTP client shared by the REST and WebSocket paths.
// The client is created lazily on first use; an externally supplied client
// is used as-is and never torn down by Close.
type session struct {
	mu         sync.Mutex
	httpClient *http.Client
	owns       bool

	insecureSkipVerify bool
	rootCAFile         string
}

// newSession wraps an optional external HTTP client with the configured
// TLS policy. external may be nil.
func newSession(external *http.Client, insecureSkipVerify bool, rootCAFile string) *session {
	return &session{
		httpClient:         external,
		insecureSkipVerify: insecureSkipVerify,
		rootCAFile:         rootCAFile,
	}
}

// client returns the current HTTP client, creating an owned one with the
// configured TLS policy if none was supplied externally. Repeated calls
// return the same client.
func (s *session) client() (*http.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpClient != nil {
		return s.httpClient, nil
	}

	tlsCfg, err := s.tlsConfig()
	if err != nil {
		return nil, err
	}

	s.httpClient = &http.Client{
		Transport: &http.Transport{
			TLSClientConfig:     tlsCfg,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	s.owns = true

	return s.httpClient, nil
}

// tlsConfig builds the TLS policy: nil for default verification, an
// insecure config when verification is disabled, or a config trusting the
// configured CA file.
func (s *session) tlsConfig() (*tls.Config, error) {
	if s.insecureSkipVerify {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	if s.rootCAFile != "" {
		pem, err := os.ReadFile(s.rootCAFile)
		if err != nil {
			return nil, fmt.Errorf("%w: reading ca file %s: %v", ErrSSL, s.rootCAFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates found in %s", ErrSSL, s.rootCAFile)
		}
		return &tls.Config{RootCAs: pool}, nil
	}
	return nil, nil
}

// close releases the client's idle connections, but only when the session
// created the client itself. Safe to call repeatedly and before first use.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpClient != nil && s.owns {
		s.httpClient.CloseIdleConnections()
	}
}
