package types

// Generator holds the per-tick generator control settings.
type Generator struct {
	TargetVoltage float64 // open-circuit voltage [V]
	CurrentMode   int     // discrete machine current setting
	OnTime        int     // discharge duration [ticks]
	OffTime       int     // rest duration [ticks]
}

// Command is the per-tick input record supplied by the external
// controller. The meaning of TargetDelta depends on the configured control
// mode: a position increment [µm] or a velocity target [µm/s].
type Command struct {
	TargetDelta float64
	Generator   Generator
}
