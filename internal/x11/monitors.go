package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the root coordinate x, y lies on m.
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

// CenteredOrigin returns the top-left corner that centres a width by height
// window on m. Windows larger than the monitor are pinned to its origin.
func (m Monitor) CenteredOrigin(width, height int) (int16, int16) {
	x := m.X + max(0, (m.Width-width)/2)
	y := m.Y + max(0, (m.Height-height)/2)
	return int16(x), int16(y)
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   outputName,
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		})
	}

	return monitors, nil
}

// ActiveMonitor returns the monitor under the pointer, falling back to the
// first one, clipped to the EWMH work area so panels are not covered. With no
// RandR outputs the whole root window is used.
func (c *Connection) ActiveMonitor() (Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil || len(monitors) == 0 {
		return c.rootMonitor()
	}

	active := monitors[0]
	if pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		if mon, ok := MonitorAt(monitors, int(pointer.RootX), int(pointer.RootY)); ok {
			active = mon
		}
	}
	return c.clipToWorkArea(active), nil
}

// MonitorAt returns the monitor containing x, y.
func MonitorAt(monitors []Monitor, x, y int) (Monitor, bool) {
	for _, mon := range monitors {
		if mon.Contains(x, y) {
			return mon, true
		}
	}
	return Monitor{}, false
}

func (c *Connection) rootMonitor() (Monitor, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return Monitor{}, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return Monitor{Name: "root", Width: int(geom.Width), Height: int(geom.Height)}, nil
}

func (c *Connection) clipToWorkArea(mon Monitor) Monitor {
	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return mon
	}
	desktop := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(workArea) {
		desktop = int(current)
	}
	wa := workArea[desktop]
	return IntersectWorkArea(mon, Monitor{X: int(wa.X), Y: int(wa.Y), Width: int(wa.Width), Height: int(wa.Height)})
}

// IntersectWorkArea clips mon to the work area wa. If they do not overlap mon
// is returned unchanged.
func IntersectWorkArea(mon, wa Monitor) Monitor {
	x1 := max(mon.X, wa.X)
	y1 := max(mon.Y, wa.Y)
	x2 := min(mon.X+mon.Width, wa.X+wa.Width)
	y2 := min(mon.Y+mon.Height, wa.Y+wa.Height)
	if x2 <= x1 || y2 <= y1 {
		return mon
	}
	mon.X, mon.Y = x1, y1
	mon.Width, mon.Height = x2-x1, y2-y1
	return mon
}
