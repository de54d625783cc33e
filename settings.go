package freeathome

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// minAPIVersion is the lowest SysAP firmware version exposing the local
// REST/WebSocket API.
const minAPIVersion = "2.6.0"

// SettingsUser is one entry of the SysAP's user list.
type SettingsUser struct {
	JID                string   `json:"jid,omitempty"`
	Name               string   `json:"name"`
	Enabled            bool     `json:"enabled,omitempty"`
	Flags              []string `json:"flags,omitempty"`
	GrantedPermissions []string `json:"grantedPermissions,omitempty"`
	Role               string   `json:"role,omitempty"`
}

// Settings fetches and exposes the unauthenticated settings document of a
// SysAP (<host>/settings.json).
type Settings struct {
	host    string
	session *session

	users  []SettingsUser
	flags  map[string]any
	loaded bool
}

// SettingsOption configures a Settings instance.
type SettingsOption func(*Settings)

// WithSettingsHTTPClient supplies an external HTTP client. The client is
// borrowed and never torn down by Close.
func WithSettingsHTTPClient(client *http.Client) SettingsOption {
	return func(s *Settings) {
		s.session.httpClient = client
	}
}

// WithSettingsInsecureSkipVerify disables TLS certificate verification.
func WithSettingsInsecureSkipVerify() SettingsOption {
	return func(s *Settings) {
		s.session.insecureSkipVerify = true
	}
}

// WithSettingsRootCAFile trusts the CA certificate at the given PEM file
// path instead of the system pool.
func WithSettingsRootCAFile(path string) SettingsOption {
	return func(s *Settings) {
		s.session.rootCAFile = path
	}
}

// NewSettings creates a settings client for the given SysAP host.
func NewSettings(host string, opts ...SettingsOption) *Settings {
	s := &Settings{
		host:    strings.TrimRight(host, "/"),
		session: newSession(nil, false, ""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close tears down the HTTP session if the settings client owns it.
func (s *Settings) Close() {
	s.session.close()
}

// Load fetches the settings document. It must be called before any of the
// accessors.
func (s *Settings) Load(ctx context.Context) error {
	u, err := url.Parse(s.host)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidHost, s.host)
	}

	httpClient, err := s.session.client()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.host+"/settings.json", nil)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidHost, s.host)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if isTLSError(err) {
			return fmt.Errorf("%w: host %s", ErrSSL, s.host)
		}
		return fmt.Errorf("%w: %s", ErrClientConnection, s.host)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status code %d", ErrInvalidAPIResponse, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrClientConnection, s.host)
	}

	doc, err := unmarshalResponse[struct {
		Users []SettingsUser `json:"users"`
		Flags map[string]any `json:"flags"`
	}](data, "settings")
	if err != nil {
		return err
	}

	s.users = doc.Users
	s.flags = doc.Flags
	s.loaded = true

	return nil
}

// GetUser looks up a user by name. Returns ErrUserNotFound if the SysAP
// does not report a user with that name.
func (s *Settings) GetUser(name string) (*SettingsUser, error) {
	if !s.loaded {
		return nil, ErrSettingsNotLoaded
	}

	for i := range s.users {
		if s.users[i].Name == name {
			return &s.users[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, name)
}

// GetFlag returns the raw value of a settings flag.
func (s *Settings) GetFlag(name string) (any, error) {
	if !s.loaded {
		return nil, ErrSettingsNotLoaded
	}
	return s.flags[name], nil
}

// stringFlag returns a flag as a string, or "" when absent or not a
// string.
func (s *Settings) stringFlag(name string) string {
	value, err := s.GetFlag(name)
	if err != nil {
		return ""
	}
	str, _ := value.(string)
	return str
}

// Version returns the firmware version running on the SysAP.
func (s *Settings) Version() string {
	return s.stringFlag("version")
}

// SerialNumber returns the serial number of the SysAP.
func (s *Settings) SerialNumber() string {
	return s.stringFlag("serialNumber")
}

// Name returns the display name of the SysAP.
func (s *Settings) Name() string {
	return s.stringFlag("name")
}

// HardwareVersion returns the hardware version of the SysAP.
func (s *Settings) HardwareVersion() string {
	return s.stringFlag("hardwareVersion")
}

// HasAPISupport reports whether the SysAP firmware is recent enough to
// expose the local API. Unparseable versions report false.
func (s *Settings) HasAPISupport() bool {
	current, err := goversion.NewVersion(s.Version())
	if err != nil {
		return false
	}
	minimum := goversion.Must(goversion.NewVersion(minAPIVersion))
	return current.GreaterThanOrEqual(minimum)
}
