package freeathome

import "strconv"

// TemperatureSensor is a weather-station temperature channel reporting
// the outdoor temperature and a frost alarm.
type TemperatureSensor struct {
	*Channel

	temperature float64
	tempKnown   bool
	frostAlarm  bool
}

// NewTemperatureSensor wires a TemperatureSensor onto a channel
// configuration.
func NewTemperatureSensor(api DatapointAPI, deviceSerial, channelID string, cfg ChannelConfig) *TemperatureSensor {
	s := &TemperatureSensor{}
	s.Channel = newChannel(api, deviceSerial, channelID, cfg,
		[]string{"temperature", "alarm"},
		[]Pairing{PairingOutdoorTemperature},
		s.applyDatapoint)
	return s
}

// Temperature returns the measured temperature in °C, and whether a
// reading has been seen yet.
func (s *TemperatureSensor) Temperature() (float64, bool) {
	return s.temperature, s.tempKnown
}

// FrostAlarm reports whether the frost alarm is active.
func (s *TemperatureSensor) FrostAlarm() bool {
	return s.frostAlarm
}

func (s *TemperatureSensor) applyDatapoint(dp Datapoint) string {
	switch Pairing(dp.PairingID) {
	case PairingOutdoorTemperature:
		value, err := strconv.ParseFloat(dp.Value, 64)
		if err != nil {
			return ""
		}
		s.temperature = value
		s.tempKnown = true
		return "temperature"
	case PairingFrostAlarm:
		s.frostAlarm = dp.Value == "1"
		return "alarm"
	default:
		return ""
	}
}
