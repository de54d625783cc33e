package freeathome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// VirtualDevice is the provisioning payload for a software-defined device
// registered with the SysAP.
type VirtualDevice struct {
	// Type names the virtual device flavor (e.g. "BinarySensor").
	Type string `json:"type" validate:"required"`

	// Properties holds the provisioning properties. Mandatory.
	Properties *VirtualDeviceProperties `json:"properties" validate:"required"`
}

// VirtualDeviceProperties are the provisioning properties of a virtual
// device.
type VirtualDeviceProperties struct {
	// TTL is the keepalive period in seconds. -1 keeps the device alive
	// indefinitely, 0 removes it; positive values must be between 180
	// and 86400.
	TTL int `json:"-" validate:"freeathome_ttl"`

	DisplayName string `json:"displayname,omitempty"`

	// Flavor and Capabilities must be supplied together.
	Flavor       string `json:"flavor,omitempty" validate:"required_with=Capabilities"`
	Capabilities []int  `json:"capabilities,omitempty" validate:"required_with=Flavor"`
}

// MarshalJSON writes the TTL in its wire form, which is a string.
func (p VirtualDeviceProperties) MarshalJSON() ([]byte, error) {
	type alias VirtualDeviceProperties
	return json.Marshal(struct {
		TTL string `json:"ttl"`
		alias
	}{TTL: strconv.Itoa(p.TTL), alias: alias(p)})
}

var virtualDeviceValidator = newVirtualDeviceValidator()

func newVirtualDeviceValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("freeathome_ttl", func(fl validator.FieldLevel) bool {
		ttl := fl.Field().Int()
		return (ttl >= -1 && ttl <= 0) || (ttl >= 180 && ttl <= 86400)
	})
	return v
}

// CreateVirtualDevice creates or refreshes a virtual device under the
// given serial. The payload is validated before any network I/O; invalid
// payloads are rejected with ErrInvalidVirtualDevice. The SysAP's nested
// response is reshaped into a flat serial→device-identifier mapping.
func (c *Client) CreateVirtualDevice(ctx context.Context, serial string, device *VirtualDevice) (map[string]string, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: payload is nil", ErrInvalidVirtualDevice)
	}
	if err := virtualDeviceValidator.Struct(device); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVirtualDevice, err)
	}

	payload, err := json.Marshal(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVirtualDevice, err)
	}

	result, err := c.Request(ctx, http.MethodPut, "/api/rest/virtualdevice/"+c.sysAPUUID+"/"+serial, payload)
	if err != nil {
		return nil, err
	}

	entry, err := c.sysAPEntry(result.JSON, "virtual device")
	if err != nil {
		return nil, err
	}

	tree, err := unmarshalResponse[struct {
		Devices map[string]json.RawMessage `json:"devices"`
	}](entry, "virtual device")
	if err != nil {
		return nil, err
	}

	for deviceID := range tree.Devices {
		return map[string]string{serial: deviceID}, nil
	}

	return nil, fmt.Errorf("%w: virtual device response contains no devices", ErrInvalidAPIResponse)
}
