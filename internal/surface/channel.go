package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/coder/websocket"

	"github.com/parley-dev/parley/internal/logger"
)

// Event is one inbound message from the embedded surface.
type Event struct {
	Origin  string `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Channel delivers surface events to a subscriber. Subscribe returns an
// unsubscribe function; implementations must survive repeated
// subscribe/unsubscribe cycles so re-mounts never leak listeners.
type Channel interface {
	Subscribe(fn func(Event)) (func(), error)
}

const (
	wsDialTimeout  = 10 * time.Second
	wsReadLimit    = 1 << 20
	maxRedialDelay = 10 * time.Second
)

// WSChannel reads surface events from the provider's event socket, derived
// from the conversation URL (https://host/room -> wss://host/room/events).
// Each subscriber gets its own connection and reader; the connection
// redials with backoff until unsubscribed.
type WSChannel struct {
	eventsURL string
	origin    string
}

// NewWSChannel derives the event socket endpoint for conversationURL.
func NewWSChannel(conversationURL string) (*WSChannel, error) {
	u, err := url.Parse(conversationURL)
	if err != nil {
		return nil, fmt.Errorf("parse conversation URL: %w", err)
	}
	origin := u.Scheme + "://" + u.Host

	u.Scheme = "wss"
	u.Path = u.Path + "/events"
	u.RawQuery = ""
	return &WSChannel{eventsURL: u.String(), origin: origin}, nil
}

func (c *WSChannel) Subscribe(fn func(Event)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	go c.readLoop(ctx, fn)
	return cancel, nil
}

func (c *WSChannel) readLoop(ctx context.Context, fn func(Event)) {
	bo := newBackoff(time.Second, maxRedialDelay)
	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.serveOnce(ctx, fn); err != nil && ctx.Err() == nil {
			delay := bo.next()
			logger.Debug("event socket disconnected", "error", err, "redial_in", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		bo.reset()
	}
}

func (c *WSChannel) serveOnce(ctx context.Context, fn func(Event)) error {
	dialCtx, cancel := context.WithTimeout(ctx, wsDialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.eventsURL, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "unsubscribed")
	conn.SetReadLimit(wsReadLimit)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Debug("dropping undecodable surface event", "error", err)
			continue
		}
		ev.Origin = c.origin
		fn(ev)
	}
}
