package volume

// State is the level carried between frames. The zero value starts the
// filter at 0.
type State struct {
	Previous float64
	Updates  int
}

// Commit returns the state after level was applied to the device.
func (s State) Commit(level Level) State {
	return State{
		Previous: level.Value,
		Updates:  s.Updates + 1,
	}
}
