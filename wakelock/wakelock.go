// Package wakelock keeps the machine from idling into sleep while the
// metronome runs, using the systemd-logind inhibitor on the D-Bus system bus.
// Everything here is best-effort: logind revokes inhibitors on its own terms
// and plenty of hosts have no logind at all.
package wakelock

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest = "org.freedesktop.login1"
	logindPath = "/org/freedesktop/login1"
	inhibitSig = "org.freedesktop.login1.Manager.Inhibit"
)

// Lock is a logind idle/sleep inhibitor. Acquire fetches the inhibitor fd
// from logind; Release closes it, which drops the inhibition.
type Lock struct {
	mu   sync.Mutex
	conn *dbus.Conn
	fd   *os.File
}

// New connects to the system bus. An error means this host has no usable
// inhibitor and callers should carry on without one.
func New() (*Lock, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}
	return &Lock{conn: conn}, nil
}

// Acquire asks logind for the inhibitor. Acquiring an already held lock does
// nothing.
func (l *Lock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fd != nil {
		return nil
	}

	obj := l.conn.Object(logindDest, dbus.ObjectPath(logindPath))
	var fd dbus.UnixFD
	call := obj.CallWithContext(ctx, inhibitSig, 0,
		"sleep:idle", "pulse", "metronome is running", "block")
	if err := call.Store(&fd); err != nil {
		return fmt.Errorf("requesting inhibitor: %w", err)
	}
	l.fd = os.NewFile(uintptr(fd), "logind-inhibitor")
	return nil
}

// Release closes the inhibitor fd. Releasing an unheld lock does nothing.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fd == nil {
		return nil
	}
	err := l.fd.Close()
	l.fd = nil
	if err != nil {
		return fmt.Errorf("closing inhibitor: %w", err)
	}
	return nil
}

// Close releases the lock and the bus connection.
func (l *Lock) Close() error {
	if err := l.Release(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.Close()
}
