package x11

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

// ErrConnectionClosed is returned by NextEvent once the server connection is gone.
var ErrConnectionClosed = errors.New("x11 connection closed")

// ErrMapTimeout is returned when a window is not mapped within the wait budget.
var ErrMapTimeout = errors.New("timed out waiting for MapNotify")

const pollInterval = 5 * time.Millisecond

// maxPending bounds the events WaitForMap keeps for NextEvent.
const maxPending = 4096

// EventSource is the part of *xgb.Conn the event pump reads from.
type EventSource interface {
	PollForEvent() (xgb.Event, xgb.Error)
	WaitForEvent() (xgb.Event, xgb.Error)
}

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	events  EventSource
	pending []xgb.Event
}

// NewConnection connects to display, or to $DISPLAY when display is empty.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}
	return &Connection{
		XUtil:  xu,
		Root:   xu.RootWin(),
		events: xu.Conn(),
	}, nil
}

// Atom interns name.
func (c *Connection) Atom(name string) (xproto.Atom, error) {
	atom, err := xprop.Atm(c.XUtil, name)
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	return atom, nil
}

// Sync blocks until the server has processed every request sent so far.
func (c *Connection) Sync() error {
	_, err := xproto.GetInputFocus(c.XUtil.Conn()).Reply()
	return err
}

// WaitForMap pumps events until win reports MapNotify. Every other event is
// kept, in order, for NextEvent. The deadline is checked on every pass so a
// steady stream of unrelated events cannot extend the wait.
func (c *Connection) WaitForMap(win xproto.Window, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return ErrMapTimeout
		}
		ev, xerr := c.events.PollForEvent()
		if xerr != nil {
			return fmt.Errorf("waiting for map: %v", xerr)
		}
		if ev == nil {
			time.Sleep(pollInterval)
			continue
		}
		if m, ok := ev.(xproto.MapNotifyEvent); ok && m.Window == win {
			return nil
		}
		if len(c.pending) >= maxPending {
			return fmt.Errorf("%w: %d unrelated events buffered", ErrMapTimeout, len(c.pending))
		}
		c.pending = append(c.pending, ev)
	}
}

// NextEvent returns the next buffered event, or blocks for one from the
// server. Protocol errors come back as errors with a nil event.
func (c *Connection) NextEvent() (xgb.Event, error) {
	if len(c.pending) > 0 {
		ev := c.pending[0]
		c.pending = c.pending[1:]
		return ev, nil
	}
	ev, xerr := c.events.WaitForEvent()
	switch {
	case ev == nil && xerr == nil:
		return nil, ErrConnectionClosed
	case xerr != nil:
		return nil, fmt.Errorf("x11 error: %v", xerr)
	}
	return ev, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
