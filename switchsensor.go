package freeathome

// SwitchSensorState is the reported rocker position of a switch sensor.
type SwitchSensorState string

const (
	SwitchSensorUnknown SwitchSensorState = "unknown"
	SwitchSensorOff     SwitchSensorState = "off"
	SwitchSensorOn      SwitchSensorState = "on"
)

// SwitchSensor is a wall-switch channel reporting rocker presses.
type SwitchSensor struct {
	*Channel

	state SwitchSensorState
}

// NewSwitchSensor wires a SwitchSensor onto a channel configuration.
func NewSwitchSensor(api DatapointAPI, deviceSerial, channelID string, cfg ChannelConfig) *SwitchSensor {
	s := &SwitchSensor{state: SwitchSensorUnknown}
	s.Channel = newChannel(api, deviceSerial, channelID, cfg,
		[]string{"state"},
		[]Pairing{PairingSwitchOnOff},
		s.applyDatapoint)
	return s
}

// State returns the last reported rocker state.
func (s *SwitchSensor) State() SwitchSensorState {
	return s.state
}

func (s *SwitchSensor) applyDatapoint(dp Datapoint) string {
	if dp.PairingID != int(PairingSwitchOnOff) {
		return ""
	}
	switch dp.Value {
	case "0":
		s.state = SwitchSensorOff
	case "1":
		s.state = SwitchSensorOn
	default:
		s.state = SwitchSensorUnknown
	}
	return "state"
}
