package freeathome

import (
	"context"
	"encoding/json"
)

// FreeAtHomeClient defines the interface for SysAP local API operations.
// Client implements it; consumers can substitute mocks in tests.
type FreeAtHomeClient interface {
	// Configuration operations
	GetConfiguration(ctx context.Context) (*Configuration, error)
	GetDeviceList(ctx context.Context) ([]string, error)
	GetDevice(ctx context.Context, deviceSerial string) (*Device, error)
	GetSysAP(ctx context.Context) (json.RawMessage, error)

	// Datapoint operations
	GetDatapoint(ctx context.Context, deviceSerial, channelID, datapoint string) ([]string, error)
	SetDatapoint(ctx context.Context, deviceSerial, channelID, datapoint, value string) error

	// Virtual device operations
	CreateVirtualDevice(ctx context.Context, serial string, device *VirtualDevice) (map[string]string, error)

	// Event stream operations
	ConnectWebSocket(ctx context.Context) error
	DisconnectWebSocket()
	WebSocketConnected() bool
	Receive(ctx context.Context, handler EventHandler) error
	Listen(ctx context.Context, handler EventHandler) error

	// Lifecycle
	Close()
}

// Compile-time check that Client satisfies FreeAtHomeClient.
var _ FreeAtHomeClient = (*Client)(nil)
