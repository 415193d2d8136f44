//go:build !windows

package visibility

import (
	"os"
	"os/signal"
	"syscall"
)

// Signals maps shell job control onto visibility: SIGTSTP when the process is
// pushed to the background, SIGCONT when it comes back.
type Signals struct {
	*Manual
	ch   chan os.Signal
	done chan struct{}
}

func NewSignals() *Signals {
	s := &Signals{
		Manual: NewManual(),
		ch:     make(chan os.Signal, 4),
		done:   make(chan struct{}),
	}
	signal.Notify(s.ch, syscall.SIGCONT, syscall.SIGTSTP)
	go s.watch()
	return s
}

func (s *Signals) watch() {
	for {
		select {
		case <-s.done:
			return
		case sig := <-s.ch:
			switch sig {
			case syscall.SIGCONT:
				s.Set(true)
			case syscall.SIGTSTP:
				s.Set(false)
				// Notify swallowed the stop, so hand control back to the
				// shell once the subscribers have run.
				_ = syscall.Kill(syscall.Getpid(), syscall.SIGSTOP)
			}
		}
	}
}

// Close stops watching signals.
func (s *Signals) Close() {
	signal.Stop(s.ch)
	close(s.done)
}
