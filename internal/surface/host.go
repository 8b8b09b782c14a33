package surface

import (
	"errors"

	"github.com/parley-dev/parley/internal/logger"
)

// Frame describes the embedded media view placed into a host container.
type Frame struct {
	URL   string
	Allow string // capability list granted to the frame
}

// FrameEvents carries the host's load notifications back to the controller.
type FrameEvents struct {
	OnLoad  func()
	OnError func(err error)
}

// Host is the container the surface mounts into. A webview build bridges
// this to a real DOM element; the CLI uses LogHost.
type Host interface {
	// Attach replaces the container content with the frame.
	Attach(frame Frame, events FrameEvents) error
	// Clear empties the container.
	Clear()
	// Loaded reports whether a frame context currently exists.
	Loaded() bool
	// Ping sends a harmless probe into the frame. Cross-origin policy is
	// expected to block it; a block still proves a frame is there.
	Ping() error
}

// ErrPingBlocked is returned by hosts whose frame rejects probes, which the
// watchdog treats as evidence of a loaded frame.
var ErrPingBlocked = errors.New("frame rejected probe")

// LogHost is the headless host used by the CLI: it surfaces the
// conversation URL for the user to open and considers the frame loaded as
// soon as it is attached.
type LogHost struct {
	frame  *Frame
	OnShow func(url string) // optional; defaults to logging
}

func (h *LogHost) Attach(frame Frame, events FrameEvents) error {
	h.frame = &frame
	if h.OnShow != nil {
		h.OnShow(frame.URL)
	} else {
		logger.Info("conversation surface ready", "url", frame.URL)
	}
	if events.OnLoad != nil {
		events.OnLoad()
	}
	return nil
}

func (h *LogHost) Clear() {
	h.frame = nil
}

func (h *LogHost) Loaded() bool {
	return h.frame != nil
}

func (h *LogHost) Ping() error {
	if h.frame == nil {
		return errors.New("no frame attached")
	}
	return ErrPingBlocked
}
