//go:build windows

package windows

import (
	"fmt"
	"unsafe"

	sys "golang.org/x/sys/windows"
)

type rect struct {
	left, top, right, bottom int32
}

type point struct {
	x, y int32
}

type msg struct {
	hwnd     sys.Handle
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cnClsExtra    int32
	cbWndExtra    int32
	hInstance     sys.Handle
	hIcon         sys.Handle
	hCursor       sys.Handle
	hbrBackground sys.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       sys.Handle
}

const (
	_CS_VREDRAW = 0x0001
	_CS_HREDRAW = 0x0002
	_CS_OWNDC   = 0x0020

	_COLOR_WINDOW = 5
	_IDC_ARROW    = 32512

	_CW_USEDEFAULT = -0x80000000

	_WS_OVERLAPPEDWINDOW = 0x00CF0000
	_WS_POPUP            = 0x80000000
	_WS_CAPTION          = 0x00C00000
	_WS_SYSMENU          = 0x00080000
	_WS_THICKFRAME       = 0x00040000
	_WS_MINIMIZEBOX      = 0x00020000
	_WS_MAXIMIZEBOX      = 0x00010000
	_WS_CLIPSIBLINGS     = 0x04000000
	_WS_CLIPCHILDREN     = 0x02000000

	_WS_EX_TOPMOST    = 0x00000008
	_WS_EX_APPWINDOW  = 0x00040000
	_WS_EX_WINDOWEDGE = 0x00000100

	_SW_HIDE       = 0
	_SW_SHOWNORMAL = 1

	_SWP_NOMOVE     = 0x0002
	_SWP_NOZORDER   = 0x0004
	_SWP_NOACTIVATE = 0x0010

	_WM_DESTROY = 0x0002
	_WM_CLOSE   = 0x0010
)

var (
	kernel32          = sys.NewLazySystemDLL("kernel32.dll")
	_GetModuleHandleW = kernel32.NewProc("GetModuleHandleW")

	user32              = sys.NewLazySystemDLL("user32.dll")
	_AdjustWindowRectEx = user32.NewProc("AdjustWindowRectEx")
	_CreateWindowEx     = user32.NewProc("CreateWindowExW")
	_DefWindowProc      = user32.NewProc("DefWindowProcW")
	_DestroyWindow      = user32.NewProc("DestroyWindow")
	_DispatchMessage    = user32.NewProc("DispatchMessageW")
	_GetMessage         = user32.NewProc("GetMessageW")
	_LoadCursor         = user32.NewProc("LoadCursorW")
	_PostQuitMessage    = user32.NewProc("PostQuitMessage")
	_RegisterClassExW   = user32.NewProc("RegisterClassExW")
	_SetWindowPos       = user32.NewProc("SetWindowPos")
	_SetWindowText      = user32.NewProc("SetWindowTextW")
	_ShowWindow         = user32.NewProc("ShowWindow")
	_TranslateMessage   = user32.NewProc("TranslateMessage")
	_UnregisterClass    = user32.NewProc("UnregisterClassW")
	_UpdateWindow       = user32.NewProc("UpdateWindow")
)

func getModuleHandle() (sys.Handle, error) {
	h, _, err := _GetModuleHandleW.Call(uintptr(0))
	if h == 0 {
		return 0, fmt.Errorf("GetModuleHandleW failed: %v", err)
	}
	return sys.Handle(h), nil
}

func loadCursor(id uint16) (sys.Handle, error) {
	h, _, err := _LoadCursor.Call(0, uintptr(id))
	if h == 0 {
		return 0, fmt.Errorf("LoadCursorW failed: %v", err)
	}
	return sys.Handle(h), nil
}

func registerClassEx(cls *wndClassEx) (uint16, error) {
	a, _, err := _RegisterClassExW.Call(uintptr(unsafe.Pointer(cls)))
	if a == 0 {
		return 0, fmt.Errorf("RegisterClassExW failed: %v", err)
	}
	return uint16(a), nil
}

func unregisterClass(cls uint16, hInst sys.Handle) {
	_UnregisterClass.Call(uintptr(cls), uintptr(hInst))
}

func adjustWindowRectEx(r *rect, style, exStyle uint32) {
	_AdjustWindowRectEx.Call(uintptr(unsafe.Pointer(r)), uintptr(style), 0, uintptr(exStyle))
}

func createWindowEx(exStyle uint32, cls uint16, title string, style uint32, x, y, w, h int32, hInst sys.Handle) (sys.Handle, error) {
	name, err := sys.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	hwnd, _, err := _CreateWindowEx.Call(
		uintptr(exStyle),
		uintptr(cls),
		uintptr(unsafe.Pointer(name)),
		uintptr(style),
		uintptr(x), uintptr(y),
		uintptr(w), uintptr(h),
		0, 0,
		uintptr(hInst),
		0)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowEx failed: %v", err)
	}
	return sys.Handle(hwnd), nil
}

func defWindowProc(hwnd sys.Handle, msg uint32, wparam, lparam uintptr) uintptr {
	r, _, _ := _DefWindowProc.Call(uintptr(hwnd), uintptr(msg), wparam, lparam)
	return r
}

func destroyWindow(hwnd sys.Handle) {
	_DestroyWindow.Call(uintptr(hwnd))
}

func dispatchMessage(m *msg) {
	_DispatchMessage.Call(uintptr(unsafe.Pointer(m)))
}

// getMessage returns 1 for a message, 0 for WM_QUIT and -1 on error.
func getMessage(m *msg) int32 {
	r, _, _ := _GetMessage.Call(uintptr(unsafe.Pointer(m)), 0, 0, 0)
	return int32(r)
}

func postQuitMessage(exitCode uintptr) {
	_PostQuitMessage.Call(exitCode)
}

func setWindowPos(hwnd sys.Handle, w, h int32) error {
	r, _, err := _SetWindowPos.Call(uintptr(hwnd), 0, 0, 0, uintptr(w), uintptr(h),
		_SWP_NOMOVE|_SWP_NOZORDER|_SWP_NOACTIVATE)
	if r == 0 {
		return fmt.Errorf("SetWindowPos failed: %v", err)
	}
	return nil
}

func setWindowText(hwnd sys.Handle, title string) error {
	p, err := sys.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	r, _, err := _SetWindowText.Call(uintptr(hwnd), uintptr(unsafe.Pointer(p)))
	if r == 0 {
		return fmt.Errorf("SetWindowTextW failed: %v", err)
	}
	return nil
}

func showWindow(hwnd sys.Handle, cmd int32) {
	_ShowWindow.Call(uintptr(hwnd), uintptr(cmd))
}

func translateMessage(m *msg) {
	_TranslateMessage.Call(uintptr(unsafe.Pointer(m)))
}

func updateWindow(hwnd sys.Handle) {
	_UpdateWindow.Call(uintptr(hwnd))
}
