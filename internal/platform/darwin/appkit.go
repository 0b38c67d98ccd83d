//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -Wno-deprecated-declarations
#cgo LDFLAGS: -framework AppKit -framework QuartzCore

#include <stdlib.h>
#import <AppKit/AppKit.h>
#import <QuartzCore/QuartzCore.h>

@interface StormWindowDelegate : NSObject <NSWindowDelegate>
@property (nonatomic) BOOL closed;
@end

@implementation StormWindowDelegate
- (void)windowWillClose:(NSNotification *)notification {
	self.closed = YES;
	[NSApp stop:nil];
	// stop: only takes effect after the next event is processed.
	NSEvent *wake = [NSEvent otherEventWithType:NSEventTypeApplicationDefined
	                                   location:NSZeroPoint
	                              modifierFlags:0
	                                  timestamp:0
	                               windowNumber:0
	                                    context:nil
	                                    subtype:0
	                                      data1:0
	                                      data2:0];
	[NSApp postEvent:wake atStart:YES];
}
@end

static void storm_app_init(void) {
	@autoreleasepool {
		[NSApplication sharedApplication];
		[NSApp setActivationPolicy:NSApplicationActivationPolicyRegular];
		[NSApp finishLaunching];
	}
}

static void storm_app_run(void) {
	@autoreleasepool {
		[NSApp activateIgnoringOtherApps:YES];
		[NSApp run];
	}
}

static CFTypeRef storm_window_create(const char *title, double width, double height,
                                     int resizable, int decorations, int alwaysOnTop,
                                     CFTypeRef *delegateOut) {
	@autoreleasepool {
		NSWindowStyleMask style = NSWindowStyleMaskBorderless;
		if (decorations) {
			style = NSWindowStyleMaskTitled | NSWindowStyleMaskClosable |
			        NSWindowStyleMaskMiniaturizable | NSWindowStyleMaskUnifiedTitleAndToolbar;
		}
		if (resizable) {
			style |= NSWindowStyleMaskResizable;
		}
		NSWindow *window = [[NSWindow alloc] initWithContentRect:NSMakeRect(0, 0, width, height)
		                                               styleMask:style
		                                                 backing:NSBackingStoreBuffered
		                                                   defer:NO];
		if (window == nil) {
			return NULL;
		}
		window.releasedWhenClosed = NO;
		window.title = [NSString stringWithUTF8String:title];
		if (alwaysOnTop) {
			window.level = NSMainMenuWindowLevel;
		}

		StormWindowDelegate *delegate = [[StormWindowDelegate alloc] init];
		window.delegate = delegate;
		*delegateOut = CFBridgingRetain(delegate);

		NSView *view = [[NSView alloc] initWithFrame:NSMakeRect(0, 0, width, height)];
		view.wantsLayer = YES;
		view.layerContentsRedrawPolicy = NSViewLayerContentsRedrawDuringViewResize;
		window.contentView = view;
		[window center];
		return CFBridgingRetain(window);
	}
}

static void storm_window_attach_layer(CFTypeRef windowRef, CFTypeRef layerRef) {
	@autoreleasepool {
		NSWindow *window = (__bridge NSWindow *)windowRef;
		CALayer *layer = (__bridge CALayer *)layerRef;
		NSView *view = window.contentView;
		view.layer = layer;
		layer.frame = view.frame;
	}
}

static void storm_window_show(CFTypeRef ref) {
	[(__bridge NSWindow *)ref makeKeyAndOrderFront:nil];
}

static void storm_window_hide(CFTypeRef ref) {
	[(__bridge NSWindow *)ref orderOut:nil];
}

static void storm_window_set_title(CFTypeRef ref, const char *title) {
	@autoreleasepool {
		((__bridge NSWindow *)ref).title = [NSString stringWithUTF8String:title];
	}
}

static void storm_window_set_size(CFTypeRef ref, double width, double height) {
	NSWindow *window = (__bridge NSWindow *)ref;
	[window setContentSize:NSMakeSize(width, height)];
	window.contentView.layer.frame = window.contentView.frame;
}

static void storm_window_content_size(CFTypeRef ref, double *width, double *height) {
	NSRect frame = ((__bridge NSWindow *)ref).contentView.frame;
	*width = frame.size.width;
	*height = frame.size.height;
}

static int storm_window_closed(CFTypeRef delegateRef) {
	return ((__bridge StormWindowDelegate *)delegateRef).closed ? 1 : 0;
}

static void storm_window_destroy(CFTypeRef windowRef, CFTypeRef delegateRef) {
	@autoreleasepool {
		NSWindow *window = (__bridge NSWindow *)windowRef;
		window.delegate = nil;
		if (!((__bridge StormWindowDelegate *)delegateRef).closed) {
			[window close];
		}
		CFRelease(delegateRef);
		CFRelease(windowRef);
	}
}
*/
import "C"

import (
	"runtime"
	"unsafe"
)

func init() {
	// AppKit must only be driven from the main thread.
	runtime.LockOSThread()
}

type nsWindow struct {
	ref      C.CFTypeRef
	delegate C.CFTypeRef
}

func appInit() { C.storm_app_init() }

func appRun() { C.storm_app_run() }

func newNSWindow(title string, width, height uint32, resizable, decorations, alwaysOnTop bool) (*nsWindow, bool) {
	ctitle := C.CString(title)
	defer C.free(unsafe.Pointer(ctitle))
	var delegate C.CFTypeRef
	ref := C.storm_window_create(ctitle, C.double(width), C.double(height),
		cbool(resizable), cbool(decorations), cbool(alwaysOnTop), &delegate)
	if ref == 0 {
		return nil, false
	}
	return &nsWindow{ref: ref, delegate: delegate}, true
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (w *nsWindow) attachLayer(layer unsafe.Pointer) {
	C.storm_window_attach_layer(w.ref, C.CFTypeRef(uintptr(layer)))
}

func (w *nsWindow) show() { C.storm_window_show(w.ref) }
func (w *nsWindow) hide() { C.storm_window_hide(w.ref) }

func (w *nsWindow) setTitle(title string) {
	ctitle := C.CString(title)
	defer C.free(unsafe.Pointer(ctitle))
	C.storm_window_set_title(w.ref, ctitle)
}

func (w *nsWindow) setSize(width, height uint32) {
	C.storm_window_set_size(w.ref, C.double(width), C.double(height))
}

func (w *nsWindow) contentSize() (float64, float64) {
	var width, height C.double
	C.storm_window_content_size(w.ref, &width, &height)
	return float64(width), float64(height)
}

func (w *nsWindow) closedByUser() bool {
	return C.storm_window_closed(w.delegate) != 0
}

func (w *nsWindow) destroy() {
	C.storm_window_destroy(w.ref, w.delegate)
	w.ref, w.delegate = 0, 0
}
