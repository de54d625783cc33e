package freeathome

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
)

// Sentinel errors returned by the free@home client.
// All errors are defined here for easy discovery and consistent organization.
var (
	// Connection errors
	ErrInvalidHost       = errors.New("freeathome: invalid host, url must include a scheme (e.g. http://)")
	ErrSSL               = errors.New("freeathome: ssl certificate verification failed")
	ErrClientConnection  = errors.New("freeathome: cannot connect to host")
	ErrConnectionTimeout = errors.New("freeathome: connection timeout")

	// Authentication errors
	ErrInvalidCredentials = errors.New("freeathome: invalid credentials")
	ErrForbidden          = errors.New("freeathome: request forbidden")

	// Request/response errors
	ErrBadRequest         = errors.New("freeathome: bad request")
	ErrInvalidAPIResponse = errors.New("freeathome: invalid api response")

	// Resource errors
	ErrDeviceNotFound = errors.New("freeathome: device not found")
	ErrUserNotFound   = errors.New("freeathome: user not found")

	// Settings errors
	ErrSettingsNotLoaded = errors.New("freeathome: settings not loaded, call Load first")

	// Validation errors
	ErrInvalidVirtualDevice = errors.New("freeathome: invalid virtual device payload")
	ErrInvalidSysAPUUID     = errors.New("freeathome: sysap uuid must be a valid uuid")

	// Channel errors
	ErrUnknownCallbackAttribute = errors.New("freeathome: unknown callback attribute")
)

// SetDatapointError is returned when the SysAP acknowledges a datapoint
// write with a result other than "ok".
type SetDatapointError struct {
	DeviceSerial string
	ChannelID    string
	Datapoint    string
	Value        string
}

// Error implements the error interface.
func (e *SetDatapointError) Error() string {
	return fmt.Sprintf(
		"freeathome: failed to set datapoint; device_serial: %s; channel_id: %s; datapoint: %s; value: %s",
		e.DeviceSerial, e.ChannelID, e.Datapoint, e.Value,
	)
}

// PairingError is returned when a channel has no input or output datapoint
// for the requested pairing ID.
type PairingError struct {
	DeviceSerial string
	ChannelID    string
	Pairing      Pairing
}

// Error implements the error interface.
func (e *PairingError) Error() string {
	return fmt.Sprintf(
		"freeathome: could not find pairing id for device: %s; channel: %s; pairing id: %d",
		e.DeviceSerial, e.ChannelID, int(e.Pairing),
	)
}

// IsInvalidHost returns true if the error indicates a malformed host URL.
func IsInvalidHost(err error) bool {
	return errors.Is(err, ErrInvalidHost)
}

// IsSSLError returns true if the error indicates a TLS/certificate failure.
func IsSSLError(err error) bool {
	return errors.Is(err, ErrSSL)
}

// IsClientConnection returns true if the error indicates a transport-level
// connection failure (refused, unreachable).
func IsClientConnection(err error) bool {
	return errors.Is(err, ErrClientConnection)
}

// IsInvalidCredentials returns true if the error indicates an
// authentication failure (HTTP 401).
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// IsForbidden returns true if the error indicates the request was
// forbidden (HTTP 403).
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsDeviceNotFound returns true if the error indicates the requested
// device serial is absent from the configuration tree.
func IsDeviceNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound)
}

// IsUserNotFound returns true if the error indicates the settings
// document has no user with the requested name.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsBadRequest returns true if the error indicates the SysAP rejected
// the request as malformed (HTTP 400).
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsConnectionTimeout returns true if the error indicates a connection
// timeout reported by the SysAP (HTTP 502).
func IsConnectionTimeout(err error) bool {
	return errors.Is(err, ErrConnectionTimeout)
}

// IsInvalidAPIResponse returns true if the error indicates an unexpected
// API response status.
func IsInvalidAPIResponse(err error) bool {
	return errors.Is(err, ErrInvalidAPIResponse)
}

// IsSetDatapointFailure returns true if the error indicates the SysAP
// rejected a datapoint write.
func IsSetDatapointFailure(err error) bool {
	var sdErr *SetDatapointError
	return errors.As(err, &sdErr)
}

// isTLSError reports whether err originates from TLS certificate
// verification or the TLS handshake. Used to classify transport failures
// ahead of generic connection errors.
func isTLSError(err error) bool {
	var certVerifyErr *tls.CertificateVerificationError
	if errors.As(err, &certVerifyErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var certInvalidErr x509.CertificateInvalidError
	return errors.As(err, &certInvalidErr)
}
