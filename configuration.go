package freeathome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const configurationCacheKey = "configuration"

// Datapoint is a single named input or output value on a device channel.
type Datapoint struct {
	// PairingID identifies the function of the datapoint (e.g. switch
	// on/off, actual dimming value).
	PairingID int `json:"pairingID"`

	// Value is the raw wire value. Datapoint values are always strings;
	// numeric or boolean interpretation is up to the channel layer.
	Value string `json:"value"`
}

// ChannelConfig describes one functional unit within a device: a fixed
// set of input and output datapoints plus channel parameters.
type ChannelConfig struct {
	DisplayName string               `json:"displayName"`
	FunctionID  string               `json:"functionID"`
	Floor       string               `json:"floor,omitempty"`
	Room        string               `json:"room,omitempty"`
	Inputs      map[string]Datapoint `json:"inputs"`
	Outputs     map[string]Datapoint `json:"outputs"`
	Parameters  map[string]string    `json:"parameters,omitempty"`
}

// Device is one physical or virtual device known to the SysAP, keyed in
// the configuration tree by its serial.
type Device struct {
	DisplayName  string                   `json:"displayName"`
	Floor        string                   `json:"floor,omitempty"`
	Room         string                   `json:"room,omitempty"`
	Interface    string                   `json:"interface,omitempty"`
	NativeID     string                   `json:"nativeId,omitempty"`
	Unresponsive bool                     `json:"unresponsive,omitempty"`
	Channels     map[string]ChannelConfig `json:"channels"`
	Parameters   map[string]string        `json:"parameters,omitempty"`
}

// Configuration is the SysAP's full device/channel tree.
type Configuration struct {
	Devices   map[string]Device `json:"devices"`
	Floorplan json.RawMessage   `json:"floorplan,omitempty"`
	SysAP     json.RawMessage   `json:"sysap,omitempty"`
	Users     json.RawMessage   `json:"users,omitempty"`
}

// GetConfiguration fetches the full configuration tree for the client's
// SysAP. When a cache is configured, the tree is served from it until the
// configured TTL expires.
func (c *Client) GetConfiguration(ctx context.Context) (*Configuration, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(configurationCacheKey); ok {
			if config, ok := cached.(*Configuration); ok {
				return config, nil
			}
		}
	}

	result, err := c.Request(ctx, http.MethodGet, "/api/rest/configuration", nil)
	if err != nil {
		return nil, err
	}

	entry, err := c.sysAPEntry(result.JSON, "configuration")
	if err != nil {
		return nil, err
	}

	config, err := unmarshalResponse[Configuration](entry, "configuration")
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(configurationCacheKey, config, c.cacheTTL)
	}

	return config, nil
}

// GetDeviceList fetches the raw list of device serials known to the SysAP.
func (c *Client) GetDeviceList(ctx context.Context) ([]string, error) {
	result, err := c.Request(ctx, http.MethodGet, "/api/rest/devicelist", nil)
	if err != nil {
		return nil, err
	}

	entry, err := c.sysAPEntry(result.JSON, "device list")
	if err != nil {
		return nil, err
	}

	serials, err := unmarshalResponse[[]string](entry, "device list")
	if err != nil {
		return nil, err
	}

	return *serials, nil
}

// GetDevice fetches a single device subtree by serial. Returns
// ErrDeviceNotFound if the SysAP does not report the serial.
func (c *Client) GetDevice(ctx context.Context, deviceSerial string) (*Device, error) {
	result, err := c.Request(ctx, http.MethodGet, "/api/rest/device/"+c.sysAPUUID+"/"+deviceSerial, nil)
	if err != nil {
		return nil, err
	}

	entry, err := c.sysAPEntry(result.JSON, "device")
	if err != nil {
		return nil, err
	}

	tree, err := unmarshalResponse[struct {
		Devices map[string]Device `json:"devices"`
	}](entry, "device")
	if err != nil {
		return nil, err
	}

	device, ok := tree.Devices[deviceSerial]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceSerial)
	}

	return &device, nil
}

// GetSysAP fetches the SysAP metadata subtree.
func (c *Client) GetSysAP(ctx context.Context) (json.RawMessage, error) {
	result, err := c.Request(ctx, http.MethodGet, "/api/rest/sysap", nil)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(result.JSON), nil
}
