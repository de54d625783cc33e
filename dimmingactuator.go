package freeathome

import (
	"context"
	"fmt"
	"strconv"
)

// DimmingActuator is a dimmer channel: an on/off state plus a brightness
// level between 1 and 100.
type DimmingActuator struct {
	*Channel

	state      bool
	stateKnown bool
	brightness int
}

// NewDimmingActuator wires a DimmingActuator onto a channel configuration.
func NewDimmingActuator(api DatapointAPI, deviceSerial, channelID string, cfg ChannelConfig) *DimmingActuator {
	a := &DimmingActuator{}
	a.Channel = newChannel(api, deviceSerial, channelID, cfg,
		[]string{"state", "brightness"},
		[]Pairing{PairingInfoOnOff, PairingInfoActualDimmingValue},
		a.applyDatapoint)
	return a
}

// State reports whether the dimmer is on, and whether its state is known
// yet.
func (a *DimmingActuator) State() (on, known bool) {
	return a.state, a.stateKnown
}

// Brightness returns the current brightness level (1-100).
func (a *DimmingActuator) Brightness() int {
	return a.brightness
}

// TurnOn switches the dimmer on at its last brightness.
func (a *DimmingActuator) TurnOn(ctx context.Context) error {
	if err := a.setInputByPairing(ctx, PairingSwitchOnOff, "1"); err != nil {
		return err
	}
	a.state, a.stateKnown = true, true
	return nil
}

// TurnOff switches the dimmer off.
func (a *DimmingActuator) TurnOff(ctx context.Context) error {
	if err := a.setInputByPairing(ctx, PairingSwitchOnOff, "0"); err != nil {
		return err
	}
	a.state, a.stateKnown = false, true
	return nil
}

// SetBrightness sets the brightness level. Values outside 1-100 are
// rejected.
func (a *DimmingActuator) SetBrightness(ctx context.Context, level int) error {
	if level < 1 || level > 100 {
		return fmt.Errorf("freeathome: brightness must be between 1 and 100, got %d", level)
	}
	if err := a.setInputByPairing(ctx, PairingAbsoluteSetValueControl, strconv.Itoa(level)); err != nil {
		return err
	}
	a.brightness = level
	return nil
}

func (a *DimmingActuator) applyDatapoint(dp Datapoint) string {
	switch Pairing(dp.PairingID) {
	case PairingInfoOnOff:
		a.state = dp.Value == "1"
		a.stateKnown = true
		return "state"
	case PairingInfoActualDimmingValue:
		level, err := strconv.Atoi(dp.Value)
		if err != nil {
			return ""
		}
		a.brightness = level
		return "brightness"
	default:
		return ""
	}
}
