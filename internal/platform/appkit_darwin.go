//go:build darwin && cgo

package platform

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework AppKit -framework AVFoundation -framework CoreMedia -framework QuartzCore -framework Foundation

#include <AppKit/AppKit.h>
#include <AVFoundation/AVFoundation.h>
#include <QuartzCore/QuartzCore.h>
#include <stdint.h>
#include <stdlib.h>

// Exported from appkit_export_darwin.go
extern void goMediaEnded(uintptr_t token);
extern void goScreenParametersChanged(void);

typedef struct {
    double x, y, width, height, scale;
    uint32_t id;
} mwDisplay;

// AppKit and AVPlayerLayer must be touched on the main thread
static void mwOnMain(dispatch_block_t block) {
    if ([NSThread isMainThread]) {
        block();
    } else {
        dispatch_sync(dispatch_get_main_queue(), block);
    }
}

int mwScreens(mwDisplay *out, int max) {
    __block int n = 0;
    mwOnMain(^{
        for (NSScreen *screen in [NSScreen screens]) {
            if (n >= max) break;
            NSRect f = screen.frame;
            NSNumber *num = screen.deviceDescription[@"NSScreenNumber"];
            out[n].x = f.origin.x;
            out[n].y = f.origin.y;
            out[n].width = f.size.width;
            out[n].height = f.size.height;
            out[n].scale = screen.backingScaleFactor;
            out[n].id = num ? num.unsignedIntValue : (uint32_t)n;
            n++;
        }
    });
    return n;
}

@interface MWMedia : NSObject
@property (strong) AVPlayer *player;
@property (strong) AVPlayerLooper *looper;
@property (strong) id endObserver;
@end

@implementation MWMedia
@end

uintptr_t mwWindowCreate(double x, double y, double w, double h) {
    __block uintptr_t handle = 0;
    mwOnMain(^{
        NSWindow *win = [[NSWindow alloc] initWithContentRect:NSMakeRect(x, y, w, h)
                                                    styleMask:NSWindowStyleMaskBorderless
                                                      backing:NSBackingStoreBuffered
                                                        defer:NO];
        [win setLevel:CGWindowLevelForKey(kCGDesktopWindowLevelKey)];
        [win setCollectionBehavior:NSWindowCollectionBehaviorCanJoinAllSpaces |
                                   NSWindowCollectionBehaviorStationary |
                                   NSWindowCollectionBehaviorFullScreenAuxiliary];
        [win setIgnoresMouseEvents:YES];
        [win setOpaque:NO];
        [win setHasShadow:NO];
        [win setBackgroundColor:[NSColor clearColor]];
        [win setReleasedWhenClosed:NO];

        NSView *content = [[NSView alloc] initWithFrame:NSMakeRect(0, 0, w, h)];
        content.wantsLayer = YES;
        content.autoresizingMask = NSViewWidthSizable | NSViewHeightSizable;
        win.contentView = content;

        handle = (uintptr_t)CFBridgingRetain(win);
    });
    return handle;
}

static void mwDetachPlayers(NSView *content) {
    for (CALayer *layer in [content.layer.sublayers copy]) {
        if ([layer isKindOfClass:[AVPlayerLayer class]]) {
            ((AVPlayerLayer *)layer).player = nil;
            [layer removeFromSuperlayer];
        }
    }
}

void mwWindowShowFallback(uintptr_t handle, double white) {
    mwOnMain(^{
        NSWindow *win = (__bridge NSWindow *)(void *)handle;
        NSView *content = win.contentView;
        mwDetachPlayers(content);
        content.layer.backgroundColor = [NSColor colorWithWhite:white alpha:1.0].CGColor;
        [win orderBack:nil];
    });
}

void mwWindowAttach(uintptr_t handle, uintptr_t media) {
    mwOnMain(^{
        NSWindow *win = (__bridge NSWindow *)(void *)handle;
        MWMedia *m = (__bridge MWMedia *)(void *)media;
        NSView *content = win.contentView;
        mwDetachPlayers(content);

        AVPlayerLayer *layer = [AVPlayerLayer playerLayerWithPlayer:m.player];
        layer.videoGravity = AVLayerVideoGravityResizeAspectFill;
        layer.frame = content.bounds;
        layer.autoresizingMask = kCALayerWidthSizable | kCALayerHeightSizable;
        content.layer.backgroundColor = [NSColor clearColor].CGColor;
        [content.layer addSublayer:layer];
        [win orderBack:nil];
    });
}

void mwWindowSetFrame(uintptr_t handle, double x, double y, double w, double h) {
    mwOnMain(^{
        NSWindow *win = (__bridge NSWindow *)(void *)handle;
        [win setFrame:NSMakeRect(x, y, w, h) display:YES];
        for (CALayer *layer in win.contentView.layer.sublayers) {
            layer.frame = win.contentView.bounds;
        }
    });
}

void mwWindowClose(uintptr_t handle) {
    mwOnMain(^{
        NSWindow *win = (NSWindow *)CFBridgingRelease((void *)handle);
        mwDetachPlayers(win.contentView);
        [win orderOut:nil];
        [win close];
    });
}

uintptr_t mwMediaCreate(const char *path, int seamless, uintptr_t token) {
    NSString *p = [NSString stringWithUTF8String:path];
    __block uintptr_t handle = 0;
    mwOnMain(^{
        NSURL *url = [NSURL fileURLWithPath:p];
        AVURLAsset *asset = [AVURLAsset URLAssetWithURL:url options:nil];
        AVPlayerItem *item = [AVPlayerItem playerItemWithAsset:asset];
        if (item == nil) return;

        MWMedia *m = [MWMedia new];
        if (seamless) {
            AVQueuePlayer *queue = [AVQueuePlayer queuePlayerWithItems:@[]];
            m.looper = [AVPlayerLooper playerLooperWithPlayer:queue templateItem:item];
            m.player = queue;
        } else {
            m.player = [AVPlayer playerWithPlayerItem:item];
            m.player.actionAtItemEnd = AVPlayerActionAtItemEndPause;
            m.endObserver = [[NSNotificationCenter defaultCenter]
                addObserverForName:AVPlayerItemDidPlayToEndTimeNotification
                            object:item
                             queue:nil
                        usingBlock:^(NSNotification *note) {
                            goMediaEnded(token);
                        }];
        }
        m.player.muted = YES;
        m.player.volume = 0;
        handle = (uintptr_t)CFBridgingRetain(m);
    });
    return handle;
}

void mwMediaPlay(uintptr_t media) {
    mwOnMain(^{
        [((__bridge MWMedia *)(void *)media).player play];
    });
}

void mwMediaPause(uintptr_t media) {
    mwOnMain(^{
        [((__bridge MWMedia *)(void *)media).player pause];
    });
}

void mwMediaSeekToStart(uintptr_t media) {
    mwOnMain(^{
        [((__bridge MWMedia *)(void *)media).player seekToTime:kCMTimeZero];
    });
}

void mwMediaClose(uintptr_t media) {
    mwOnMain(^{
        MWMedia *m = (MWMedia *)CFBridgingRelease((void *)media);
        if (m.endObserver) {
            [[NSNotificationCenter defaultCenter] removeObserver:m.endObserver];
            m.endObserver = nil;
        }
        [m.looper disableLooping];
        [m.player pause];
        [m.player replaceCurrentItemWithPlayerItem:nil];
    });
}

static id mwScreenObserver = nil;

void mwObserveScreens(void) {
    mwOnMain(^{
        if (mwScreenObserver != nil) return;
        mwScreenObserver = [[NSNotificationCenter defaultCenter]
            addObserverForName:NSApplicationDidChangeScreenParametersNotification
                        object:nil
                         queue:[NSOperationQueue mainQueue]
                    usingBlock:^(NSNotification *note) {
                        goScreenParametersChanged();
                    }];
    });
}

void mwStopObservingScreens(void) {
    mwOnMain(^{
        if (mwScreenObserver == nil) return;
        [[NSNotificationCenter defaultCenter] removeObserver:mwScreenObserver];
        mwScreenObserver = nil;
    });
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// maxScreens bounds a single enumeration
const maxScreens = 32

type screenInfo struct {
	x, y, width, height, scale float64
	id                         uint32
}

func appkitScreens() []screenInfo {
	var buf [maxScreens]C.mwDisplay
	n := int(C.mwScreens(&buf[0], C.int(maxScreens)))

	out := make([]screenInfo, n)
	for i := 0; i < n; i++ {
		d := buf[i]
		out[i] = screenInfo{
			x:      float64(d.x),
			y:      float64(d.y),
			width:  float64(d.width),
			height: float64(d.height),
			scale:  float64(d.scale),
			id:     uint32(d.id),
		}
	}
	return out
}

func appkitWindowCreate(x, y, w, h float64) uintptr {
	return uintptr(C.mwWindowCreate(C.double(x), C.double(y), C.double(w), C.double(h)))
}

func appkitWindowShowFallback(win uintptr, white float64) {
	C.mwWindowShowFallback(C.uintptr_t(win), C.double(white))
}

func appkitWindowAttach(win, media uintptr) {
	C.mwWindowAttach(C.uintptr_t(win), C.uintptr_t(media))
}

func appkitWindowSetFrame(win uintptr, x, y, w, h float64) {
	C.mwWindowSetFrame(C.uintptr_t(win), C.double(x), C.double(y), C.double(w), C.double(h))
}

func appkitWindowClose(win uintptr) {
	C.mwWindowClose(C.uintptr_t(win))
}

func appkitMediaCreate(path string, seamless bool, token uintptr) uintptr {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	loop := C.int(0)
	if seamless {
		loop = 1
	}
	return uintptr(C.mwMediaCreate(cpath, loop, C.uintptr_t(token)))
}

func appkitMediaPlay(media uintptr)        { C.mwMediaPlay(C.uintptr_t(media)) }
func appkitMediaPause(media uintptr)       { C.mwMediaPause(C.uintptr_t(media)) }
func appkitMediaSeekToStart(media uintptr) { C.mwMediaSeekToStart(C.uintptr_t(media)) }
func appkitMediaClose(media uintptr)       { C.mwMediaClose(C.uintptr_t(media)) }

var (
	screenMu      sync.Mutex
	screenHandler func()
)

// ObserveScreenParameters calls fn on the main thread whenever the display
// configuration changes. Only one observer is active at a time.
// The returned function removes it.
func ObserveScreenParameters(fn func()) (stop func()) {
	screenMu.Lock()
	screenHandler = fn
	screenMu.Unlock()
	C.mwObserveScreens()

	return func() {
		C.mwStopObservingScreens()
		screenMu.Lock()
		screenHandler = nil
		screenMu.Unlock()
	}
}

func screenParametersChanged() {
	screenMu.Lock()
	fn := screenHandler
	screenMu.Unlock()
	if fn != nil {
		fn()
	}
}
