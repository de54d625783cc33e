package freeathome

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// datapointPath builds the datapoint resource path for a
// device/channel/datapoint triple.
func (c *Client) datapointPath(deviceSerial, channelID, datapoint string) string {
	return fmt.Sprintf("/api/rest/datapoint/%s/%s.%s.%s",
		c.sysAPUUID, deviceSerial, channelID, datapoint)
}

// GetDatapoint reads the value list of a single datapoint.
func (c *Client) GetDatapoint(ctx context.Context, deviceSerial, channelID, datapoint string) ([]string, error) {
	result, err := c.Request(ctx, http.MethodGet, c.datapointPath(deviceSerial, channelID, datapoint), nil)
	if err != nil {
		return nil, err
	}

	entry, err := c.sysAPEntry(result.JSON, "datapoint")
	if err != nil {
		return nil, err
	}

	values, err := unmarshalResponse[struct {
		Values []string `json:"values"`
	}](entry, "datapoint")
	if err != nil {
		return nil, err
	}

	return values.Values, nil
}

// SetDatapoint writes a datapoint value. This is how channels are
// controlled. An acknowledgement whose result field is anything other
// than "ok" is a hard failure, returned as a *SetDatapointError.
func (c *Client) SetDatapoint(ctx context.Context, deviceSerial, channelID, datapoint, value string) error {
	result, err := c.Request(ctx, http.MethodPut, c.datapointPath(deviceSerial, channelID, datapoint), []byte(value))
	if err != nil {
		return err
	}

	entry, err := c.sysAPEntry(result.JSON, "datapoint ack")
	if err != nil {
		return err
	}

	ack, err := unmarshalResponse[struct {
		Result string `json:"result"`
	}](entry, "datapoint ack")
	if err != nil {
		return err
	}

	if !strings.EqualFold(ack.Result, "ok") {
		return &SetDatapointError{
			DeviceSerial: deviceSerial,
			ChannelID:    channelID,
			Datapoint:    datapoint,
			Value:        value,
		}
	}

	return nil
}
