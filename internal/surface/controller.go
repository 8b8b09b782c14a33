// Package surface mounts the provider's cross-origin media view into a host
// container and interprets its event stream without granting it control
// beyond a fixed vocabulary.
package surface

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parley-dev/parley/internal/logger"
	"github.com/parley-dev/parley/internal/session"
)

const (
	// watchdogDelay is how long a silent mount gets before the liveness
	// heuristic runs.
	watchdogDelay = 15 * time.Second
	probeTimeout  = 5 * time.Second

	frameAllow = "camera; microphone; autoplay; encrypted-media; fullscreen"
)

// allowedOrigins is the fixed allow-list for inbound surface events. The
// media sub-provider serves from its own domains, hence the extra entries.
var allowedOrigins = []string{
	"https://tavusapi.com",
	"https://tavus.daily.co",
	"https://daily.co",
	"https://app.daily.co",
}

// User-facing error texts. The load/connect failures deliberately mention
// network restrictions since that is the dominant field cause.
const (
	errLoadFailed  = "Failed to load video interface. This may be due to network restrictions, firewall settings, or the conversation may not be ready yet. Please check your network connection and try again."
	errConnRefused = "Connection to video service failed. This may be due to network restrictions or firewall settings. Please check your network connection and try again."
	errConnFailed  = "Failed to connect to video service. Please check your network connection and try again."
)

// Session is the slice of the session manager the controller feeds. Its
// corrections are additive and idempotent so they can interleave with an
// in-flight lifecycle call.
type Session interface {
	EndLocal()
	SetError(msg string)
	ClearError()
	Snapshot() session.State
}

// ChannelFactory opens the event channel for a conversation URL. Injected
// so tests can supply a scripted channel.
type ChannelFactory func(conversationURL string) (Channel, error)

// Controller owns the mounted surface: the host container, the single
// event subscription per mount and the load watchdog.
type Controller struct {
	Host       Host
	Session    Session
	NewChannel ChannelFactory

	probe *http.Client

	mu      sync.Mutex
	handles map[string]*mountHandle
	current string
}

// mountHandle is the cleanup handle for one mount: dropping it removes the
// event subscription and cancels the watchdog.
type mountHandle struct {
	id          string
	unsubscribe func()
	watchdog    *time.Timer
}

func New(host Host, sess Session) *Controller {
	return &Controller{
		Host:    host,
		Session: sess,
		NewChannel: func(conversationURL string) (Channel, error) {
			return NewWSChannel(conversationURL)
		},
		probe:   &http.Client{Timeout: probeTimeout},
		handles: make(map[string]*mountHandle),
	}
}

// Mount validates conversationURL, attaches the frame to the host and
// installs the event subscription and watchdog. Any previous mount is torn
// down first so listeners never accumulate across re-mounts.
func (c *Controller) Mount(ctx context.Context, conversationURL string) error {
	if conversationURL == "" || !strings.HasPrefix(conversationURL, "https://") {
		return &InvalidEmbedURLError{URL: conversationURL}
	}

	inspectMeetingToken(conversationURL)
	go c.probeReachability(conversationURL)

	c.Unmount()

	c.Host.Clear()
	frame := Frame{URL: conversationURL, Allow: frameAllow}
	events := FrameEvents{
		OnLoad:  c.onFrameLoad,
		OnError: c.onFrameError,
	}
	if err := c.Host.Attach(frame, events); err != nil {
		return err
	}

	channel, err := c.NewChannel(conversationURL)
	if err != nil {
		return err
	}
	unsubscribe, err := channel.Subscribe(c.handleEvent)
	if err != nil {
		return err
	}

	handle := &mountHandle{
		id:          uuid.NewString(),
		unsubscribe: unsubscribe,
		watchdog:    time.AfterFunc(watchdogDelay, c.watchdogFire),
	}

	c.mu.Lock()
	c.handles[handle.id] = handle
	c.current = handle.id
	c.mu.Unlock()

	logger.Debug("surface mounted", "mount", handle.id, "url", conversationURL)
	return nil
}

// Unmount tears down the current mount. Safe to call when nothing is
// mounted.
func (c *Controller) Unmount() {
	c.mu.Lock()
	handle := c.handles[c.current]
	delete(c.handles, c.current)
	c.current = ""
	c.mu.Unlock()

	if handle != nil {
		handle.release()
		logger.Debug("surface unmounted", "mount", handle.id)
	}
	c.Host.Clear()
}

// ReleaseAll drops every outstanding cleanup handle. The host application
// calls this on view teardown so repeated mount/unmount cycles cannot leak
// subscriptions.
func (c *Controller) ReleaseAll() {
	c.mu.Lock()
	handles := c.handles
	c.handles = make(map[string]*mountHandle)
	c.current = ""
	c.mu.Unlock()

	for _, handle := range handles {
		handle.release()
	}
	c.Host.Clear()
}

func (h *mountHandle) release() {
	h.watchdog.Stop()
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}

// probeReachability is a best-effort existence check; the surface may
// legitimately reject simple probes, so failure never blocks mounting.
func (c *Controller) probeReachability(conversationURL string) {
	req, err := http.NewRequest(http.MethodHead, conversationURL, nil)
	if err != nil {
		return
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		logger.Warn("could not verify conversation URL reachability", "error", err)
		return
	}
	resp.Body.Close()
}

func (c *Controller) onFrameLoad() {
	// Only clear errors this controller set for load failure; other
	// overlays belong to whoever set them.
	if strings.Contains(c.Session.Snapshot().Err, "Failed to load video interface") {
		c.Session.ClearError()
	}
}

func (c *Controller) onFrameError(err error) {
	logger.Warn("frame failed to load", "error", err)
	c.Session.SetError(errLoadFailed)
}

// handleEvent interprets one inbound surface event. Foreign origins are
// silently dropped: that is a security filter, not an error.
func (c *Controller) handleEvent(ev Event) {
	if !originAllowed(ev.Origin) {
		return
	}

	switch ev.Type {
	case "conversation_ended":
		logger.Info("conversation ended by surface")
		c.Session.EndLocal()
	case "error":
		msg := ev.Message
		if msg == "" {
			msg = "Video interface error occurred"
		}
		if strings.Contains(msg, "Connection refused") || strings.Contains(msg, "daily.co") {
			msg = errConnRefused
		}
		c.Session.SetError(msg)
	case "ready":
		c.Session.ClearError()
	case "connection_failed":
		c.Session.SetError(errConnFailed)
	default:
		// Unknown event types are ignored by design of the vocabulary.
	}
}

func originAllowed(origin string) bool {
	for _, allowed := range allowedOrigins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// watchdogFire runs the one-shot liveness heuristic: only while the session
// is still active with no error, and never by forcing an unmount.
func (c *Controller) watchdogFire() {
	state := c.Session.Snapshot()
	if !state.Active || state.Err != "" {
		return
	}

	if c.Host.Loaded() {
		if err := c.Host.Ping(); err != nil {
			// A blocked probe still proves a frame is there.
			logger.Debug("frame probe blocked, surface considered loaded", "error", err)
		}
		return
	}

	logger.Warn("no frame context after load deadline")
	c.Session.SetError((&EmbedLoadTimeoutError{}).Error())
}
