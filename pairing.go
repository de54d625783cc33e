package freeathome

// Pairing identifies the function of a channel datapoint. The values are
// the SysAP's pairing IDs; only the subset used by the bundled channel
// types is declared here.
type Pairing int

const (
	PairingSwitchOnOff             Pairing = 1
	PairingTimedStartStop          Pairing = 2
	PairingForced                  Pairing = 3
	PairingSceneControl            Pairing = 4
	PairingTimedMovement           Pairing = 6
	PairingRelativeSetValueControl Pairing = 16
	PairingAbsoluteSetValueControl Pairing = 17
	PairingFrostAlarm              Pairing = 38
	PairingInfoOnOff               Pairing = 256
	PairingInfoForce               Pairing = 257
	PairingInfoActualDimmingValue  Pairing = 272
	PairingInfoError               Pairing = 273
	PairingOutdoorTemperature      Pairing = 1024
)
