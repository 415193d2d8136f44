//go:build windows

package visibility

// Signals is inert on Windows. There is no job-control signal to watch, so
// visibility only moves when something feeds the embedded Manual source.
type Signals struct {
	*Manual
}

func NewSignals() *Signals {
	return &Signals{Manual: NewManual()}
}

// Close is a no-op; nothing is watched.
func (s *Signals) Close() {}
