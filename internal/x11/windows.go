package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
)

// WindowSpec describes a top-level window before it is created.
type WindowSpec struct {
	Title       string
	Class       string
	X, Y        int16
	Width       uint16
	Height      uint16
	Resizable   bool
	Decorations bool
	AlwaysOnTop bool
}

// EventMask is the set of events every storm window selects.
const EventMask = xproto.EventMaskExposure | xproto.EventMaskStructureNotify

// CreateWindow creates an unmapped top-level window on the default screen
// and sets its ICCCM, EWMH and Motif hints from spec.
func (c *Connection) CreateWindow(spec WindowSpec) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, fmt.Errorf("allocate window id: %w", err)
	}
	err = xproto.CreateWindowChecked(conn,
		screen.RootDepth, win, c.Root,
		spec.X, spec.Y, spec.Width, spec.Height, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{screen.WhitePixel, uint32(EventMask)},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}

	if err := c.applyHints(win, spec); err != nil {
		xproto.DestroyWindow(conn, win)
		return 0, err
	}
	return win, nil
}

func (c *Connection) applyHints(win xproto.Window, spec WindowSpec) error {
	if err := c.SetTitle(win, spec.Title); err != nil {
		return err
	}
	if spec.Class != "" {
		class := &icccm.WmClass{Instance: spec.Class, Class: strings.ToUpper(spec.Class[:1]) + spec.Class[1:]}
		if err := icccm.WmClassSet(c.XUtil, win, class); err != nil {
			return fmt.Errorf("set WM_CLASS: %w", err)
		}
	}
	if !spec.Decorations {
		hints := &motif.Hints{Flags: motif.HintDecorations, Decoration: motif.DecorationNone}
		if err := motif.WmHintsSet(c.XUtil, win, hints); err != nil {
			return fmt.Errorf("set _MOTIF_WM_HINTS: %w", err)
		}
	}
	if err := c.setSizeHints(win, spec.Width, spec.Height, spec.Resizable); err != nil {
		return err
	}
	if spec.AlwaysOnTop {
		// Before mapping the window manager reads the property directly.
		if err := ewmh.WmStateSet(c.XUtil, win, []string{"_NET_WM_STATE_ABOVE"}); err != nil {
			return fmt.Errorf("set _NET_WM_STATE: %w", err)
		}
	}
	return nil
}

// setSizeHints pins min and max size to the current size for fixed windows.
func (c *Connection) setSizeHints(win xproto.Window, width, height uint16, resizable bool) error {
	if resizable {
		return nil
	}
	hints := &icccm.NormalHints{
		Flags:     icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize,
		MinWidth:  uint(width),
		MinHeight: uint(height),
		MaxWidth:  uint(width),
		MaxHeight: uint(height),
	}
	if err := icccm.WmNormalHintsSet(c.XUtil, win, hints); err != nil {
		return fmt.Errorf("set WM_NORMAL_HINTS: %w", err)
	}
	return nil
}

// SetTitle sets both the legacy WM_NAME and the UTF-8 _NET_WM_NAME.
func (c *Connection) SetTitle(win xproto.Window, title string) error {
	if err := icccm.WmNameSet(c.XUtil, win, title); err != nil {
		return fmt.Errorf("set WM_NAME: %w", err)
	}
	if err := ewmh.WmNameSet(c.XUtil, win, title); err != nil {
		return fmt.Errorf("set _NET_WM_NAME: %w", err)
	}
	return nil
}

// Resize changes the window size, keeping fixed-size hints in step.
func (c *Connection) Resize(win xproto.Window, width, height uint16, resizable bool) error {
	if err := c.setSizeHints(win, width, height, resizable); err != nil {
		return err
	}
	return xproto.ConfigureWindowChecked(c.XUtil.Conn(), win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)},
	).Check()
}

// Map asks the server to show the window.
func (c *Connection) Map(win xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), win).Check()
}

// Unmap hides the window.
func (c *Connection) Unmap(win xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), win).Check()
}

// Destroy destroys the window. Errors are ignored, the window may already be gone.
func (c *Connection) Destroy(win xproto.Window) {
	xproto.DestroyWindow(c.XUtil.Conn(), win)
}

// WindowValid reports whether the server still knows win.
func (c *Connection) WindowValid(win xproto.Window) error {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	return err
}

// SetProtocols advertises the ICCCM protocols the window takes part in.
func (c *Connection) SetProtocols(win xproto.Window, protocols ...string) error {
	if err := icccm.WmProtocolsSet(c.XUtil, win, protocols); err != nil {
		return fmt.Errorf("set WM_PROTOCOLS: %w", err)
	}
	return nil
}

// IsDeleteWindow reports whether ev is a WM_DELETE_WINDOW request for win.
func IsDeleteWindow(ev xgb.Event, win xproto.Window, protocols, deleteWindow xproto.Atom) bool {
	msg, ok := ev.(xproto.ClientMessageEvent)
	if !ok || msg.Window != win || msg.Type != protocols || msg.Format != 32 {
		return false
	}
	data := msg.Data.Data32
	return len(data) > 0 && xproto.Atom(data[0]) == deleteWindow
}

// IsExpose reports whether ev is the last Expose in a series for win.
func IsExpose(ev xgb.Event, win xproto.Window) bool {
	e, ok := ev.(xproto.ExposeEvent)
	return ok && e.Window == win && e.Count == 0
}

// IsDestroyed reports whether ev says win was destroyed.
func IsDestroyed(ev xgb.Event, win xproto.Window) bool {
	e, ok := ev.(xproto.DestroyNotifyEvent)
	return ok && e.Window == win
}
