package freeathome

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DatapointAPI is the slice of the client the channel layer depends on.
// *Client satisfies it.
type DatapointAPI interface {
	GetDatapoint(ctx context.Context, deviceSerial, channelID, datapoint string) ([]string, error)
	SetDatapoint(ctx context.Context, deviceSerial, channelID, datapoint, value string) error
}

// CallbackID identifies a registered state callback for later removal.
type CallbackID int

// Channel is the shared behavior of all typed channels: datapoint lookup
// by pairing ID, state refresh, and attribute-keyed change callbacks.
// Concrete channel types embed it and supply their own value mapping.
//
// A Channel is fed by the event stream: wire Client.Listen's payloads to
// UpdateDatapoint for the identifiers belonging to this channel. The
// datapoint maps and the callback registry are guarded for concurrent
// registration; the concrete channel state written by refresh is updated
// only from the goroutine driving UpdateDatapoint.
type Channel struct {
	api          DatapointAPI
	deviceSerial string
	channelID    string
	displayName  string
	inputs       map[string]Datapoint
	outputs      map[string]Datapoint
	parameters   map[string]string

	// refresh maps one datapoint onto the concrete channel's state and
	// returns the name of the attribute it refreshed, or "".
	refresh func(dp Datapoint) string

	// refreshPairings are the output pairings re-read by RefreshState.
	refreshPairings []Pairing

	// attributes are the callback attributes the concrete type exposes.
	attributes []string

	mu         sync.Mutex
	callbacks  map[string]map[CallbackID]func()
	nextCallID CallbackID
}

// newChannel wires a concrete channel type onto a channel configuration.
// The config's datapoint maps are copied so event updates do not mutate
// the caller's configuration tree.
func newChannel(api DatapointAPI, deviceSerial, channelID string, cfg ChannelConfig,
	attributes []string, refreshPairings []Pairing, refresh func(dp Datapoint) string) *Channel {

	ch := &Channel{
		api:             api,
		deviceSerial:    deviceSerial,
		channelID:       channelID,
		displayName:     cfg.DisplayName,
		inputs:          make(map[string]Datapoint, len(cfg.Inputs)),
		outputs:         make(map[string]Datapoint, len(cfg.Outputs)),
		parameters:      cfg.Parameters,
		refresh:         refresh,
		refreshPairings: refreshPairings,
		attributes:      attributes,
		callbacks:       make(map[string]map[CallbackID]func()),
	}
	for id, dp := range cfg.Inputs {
		ch.inputs[id] = dp
	}
	for id, dp := range cfg.Outputs {
		ch.outputs[id] = dp
	}

	// Seed state from the configuration snapshot.
	for _, dp := range ch.outputs {
		ch.refresh(dp)
	}

	return ch
}

// DeviceSerial returns the serial of the owning device.
func (ch *Channel) DeviceSerial() string { return ch.deviceSerial }

// ChannelID returns the channel identifier within the device.
func (ch *Channel) ChannelID() string { return ch.channelID }

// DisplayName returns the channel's configured display name.
func (ch *Channel) DisplayName() string { return ch.displayName }

// InputByPairing returns the id and current value of the input datapoint
// with the given pairing ID.
func (ch *Channel) InputByPairing(pairing Pairing) (string, string, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for id, dp := range ch.inputs {
		if dp.PairingID == int(pairing) {
			return id, dp.Value, nil
		}
	}
	return "", "", &PairingError{DeviceSerial: ch.deviceSerial, ChannelID: ch.channelID, Pairing: pairing}
}

// OutputByPairing returns the id and current value of the output
// datapoint with the given pairing ID.
func (ch *Channel) OutputByPairing(pairing Pairing) (string, string, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for id, dp := range ch.outputs {
		if dp.PairingID == int(pairing) {
			return id, dp.Value, nil
		}
	}
	return "", "", &PairingError{DeviceSerial: ch.deviceSerial, ChannelID: ch.channelID, Pairing: pairing}
}

// UpdateDatapoint applies one datapoint change from the event stream. The
// key is the hub-scoped identifier ("serial/channel/datapoint"); only its
// final segment is used. Registered callbacks fire for the refreshed
// attribute.
func (ch *Channel) UpdateDatapoint(key, value string) {
	ioKey := key
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		ioKey = key[idx+1:]
	}

	ch.mu.Lock()
	var updated Datapoint
	var known bool
	if dp, ok := ch.outputs[ioKey]; ok {
		dp.Value = value
		ch.outputs[ioKey] = dp
		updated, known = dp, true
	} else if dp, ok := ch.inputs[ioKey]; ok {
		dp.Value = value
		ch.inputs[ioKey] = dp
		updated, known = dp, true
	}
	ch.mu.Unlock()

	if !known {
		return
	}
	if attribute := ch.refresh(updated); attribute != "" {
		ch.fire(attribute)
	}
}

// RefreshState re-reads the channel's refresh pairings from the API and
// applies them to the channel state.
func (ch *Channel) RefreshState(ctx context.Context) error {
	for _, pairing := range ch.refreshPairings {
		datapointID, _, err := ch.OutputByPairing(pairing)
		if err != nil {
			return err
		}

		values, err := ch.api.GetDatapoint(ctx, ch.deviceSerial, ch.channelID, datapointID)
		if err != nil {
			return err
		}
		if len(values) == 0 {
			continue
		}

		ch.refresh(Datapoint{PairingID: int(pairing), Value: values[0]})
	}
	return nil
}

// RegisterCallback registers fn to run when the given attribute changes.
// The returned id removes the registration via RemoveCallback.
func (ch *Channel) RegisterCallback(attribute string, fn func()) (CallbackID, error) {
	known := false
	for _, a := range ch.attributes {
		if a == attribute {
			known = true
			break
		}
	}
	if !known {
		return 0, fmt.Errorf("%w: %q (known: %s)",
			ErrUnknownCallbackAttribute, attribute, strings.Join(ch.attributes, ","))
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.callbacks[attribute] == nil {
		ch.callbacks[attribute] = make(map[CallbackID]func())
	}
	ch.nextCallID++
	ch.callbacks[attribute][ch.nextCallID] = fn

	return ch.nextCallID, nil
}

// RemoveCallback removes a previously registered callback. A no-op for
// unknown ids.
func (ch *Channel) RemoveCallback(attribute string, id CallbackID) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.callbacks[attribute], id)
}

// setInputByPairing writes value to the input datapoint with the given
// pairing ID.
func (ch *Channel) setInputByPairing(ctx context.Context, pairing Pairing, value string) error {
	datapointID, _, err := ch.InputByPairing(pairing)
	if err != nil {
		return err
	}
	return ch.api.SetDatapoint(ctx, ch.deviceSerial, ch.channelID, datapointID, value)
}

func (ch *Channel) fire(attribute string) {
	ch.mu.Lock()
	fns := make([]func(), 0, len(ch.callbacks[attribute]))
	for _, fn := range ch.callbacks[attribute] {
		fns = append(fns, fn)
	}
	ch.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
