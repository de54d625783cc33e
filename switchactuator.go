package freeathome

import "context"

// SwitchActuator is a relay channel: a single on/off output controlled by
// one switching input.
type SwitchActuator struct {
	*Channel

	state      bool
	stateKnown bool
}

// NewSwitchActuator wires a SwitchActuator onto a channel configuration.
func NewSwitchActuator(api DatapointAPI, deviceSerial, channelID string, cfg ChannelConfig) *SwitchActuator {
	a := &SwitchActuator{}
	a.Channel = newChannel(api, deviceSerial, channelID, cfg,
		[]string{"state"},
		[]Pairing{PairingInfoOnOff},
		a.applyDatapoint)
	return a
}

// State reports whether the actuator is on, and whether its state is
// known yet.
func (a *SwitchActuator) State() (on, known bool) {
	return a.state, a.stateKnown
}

// TurnOn switches the actuator on.
func (a *SwitchActuator) TurnOn(ctx context.Context) error {
	if err := a.setInputByPairing(ctx, PairingSwitchOnOff, "1"); err != nil {
		return err
	}
	a.state, a.stateKnown = true, true
	return nil
}

// TurnOff switches the actuator off.
func (a *SwitchActuator) TurnOff(ctx context.Context) error {
	if err := a.setInputByPairing(ctx, PairingSwitchOnOff, "0"); err != nil {
		return err
	}
	a.state, a.stateKnown = false, true
	return nil
}

func (a *SwitchActuator) applyDatapoint(dp Datapoint) string {
	if dp.PairingID != int(PairingInfoOnOff) {
		return ""
	}
	a.state = dp.Value == "1"
	a.stateKnown = true
	return "state"
}
