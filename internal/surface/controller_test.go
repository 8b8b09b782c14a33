package surface

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley/internal/session"
)

type fakeSession struct {
	mu       sync.Mutex
	state    session.State
	endCalls int
}

func (f *fakeSession) EndLocal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endCalls++
	f.state = session.State{}
}

func (f *fakeSession) SetError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Err = msg
}

func (f *fakeSession) ClearError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Err = ""
}

func (f *fakeSession) Snapshot() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type fakeHost struct {
	attached *Frame
	events   FrameEvents
	attaches int
	clears   int
	pingErr  error
}

func (f *fakeHost) Attach(frame Frame, events FrameEvents) error {
	f.attached = &frame
	f.events = events
	f.attaches++
	return nil
}

func (f *fakeHost) Clear() {
	f.attached = nil
	f.clears++
}

func (f *fakeHost) Loaded() bool { return f.attached != nil }
func (f *fakeHost) Ping() error  { return f.pingErr }

type scriptedChannel struct {
	mu      sync.Mutex
	handler func(Event)
	subs    int
	unsubs  int
}

func (s *scriptedChannel) Subscribe(fn func(Event)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
	s.subs++
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubs++
		s.handler = nil
	}, nil
}

func (s *scriptedChannel) emit(ev Event) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}

func newTestController(t *testing.T) (*Controller, *fakeHost, *fakeSession, *scriptedChannel) {
	t.Helper()
	host := &fakeHost{}
	sess := &fakeSession{}
	channel := &scriptedChannel{}
	c := New(host, sess)
	c.NewChannel = func(string) (Channel, error) { return channel, nil }
	t.Cleanup(c.ReleaseAll)
	return c, host, sess, channel
}

func TestMountRejectsInvalidURL(t *testing.T) {
	c, host, _, _ := newTestController(t)

	for _, bad := range []string{"", "http://insecure.example/room", "ftp://x"} {
		err := c.Mount(context.Background(), bad)
		var invalid *InvalidEmbedURLError
		require.ErrorAs(t, err, &invalid, "url %q", bad)
	}
	assert.Zero(t, host.attaches, "invalid URLs must not touch the host")
	assert.Zero(t, host.clears)
}

func TestMountAttachesFrameWithCapabilities(t *testing.T) {
	c, host, _, channel := newTestController(t)

	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

	require.NotNil(t, host.attached)
	assert.Equal(t, "https://tavus.daily.co/room1", host.attached.URL)
	assert.Contains(t, host.attached.Allow, "camera")
	assert.Contains(t, host.attached.Allow, "microphone")
	assert.Equal(t, 1, channel.subs)
}

func TestForeignOriginIgnored(t *testing.T) {
	c, _, sess, channel := newTestController(t)
	sess.state = session.State{Active: true, ConversationID: "c1"}
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

	channel.emit(Event{Origin: "https://evil.example", Type: "conversation_ended"})
	channel.emit(Event{Origin: "https://evil.example", Type: "error", Message: "pwn"})

	assert.Zero(t, sess.endCalls, "foreign origins are dropped silently")
	assert.Empty(t, sess.Snapshot().Err)
}

func TestConversationEndedResetsSession(t *testing.T) {
	c, _, sess, channel := newTestController(t)
	sess.state = session.State{Active: true, ConversationID: "c1"}
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

	channel.emit(Event{Origin: "https://tavus.daily.co", Type: "conversation_ended"})
	assert.Equal(t, 1, sess.endCalls)
}

func TestErrorEventMessages(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"plain message passes through", "camera denied", "camera denied"},
		{"empty message gets default", "", "Video interface error occurred"},
		{"connection refused maps to network guidance", "Connection refused by host", errConnRefused},
		{"media domain maps to network guidance", "could not reach x.daily.co", errConnRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, sess, channel := newTestController(t)
			require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

			channel.emit(Event{Origin: "https://app.daily.co", Type: "error", Message: tt.message})
			assert.Equal(t, tt.want, sess.Snapshot().Err)
		})
	}
}

func TestReadyClearsError(t *testing.T) {
	c, _, sess, channel := newTestController(t)
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))
	sess.SetError("previous trouble")

	channel.emit(Event{Origin: "https://tavus.daily.co", Type: "ready"})
	assert.Empty(t, sess.Snapshot().Err)
}

func TestConnectionFailedSetsFixedMessage(t *testing.T) {
	c, _, sess, channel := newTestController(t)
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

	channel.emit(Event{Origin: "https://tavusapi.com", Type: "connection_failed"})
	assert.Equal(t, errConnFailed, sess.Snapshot().Err)
}

func TestUnknownEventTypeIgnored(t *testing.T) {
	c, _, sess, channel := newTestController(t)
	sess.state = session.State{Active: true}
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

	channel.emit(Event{Origin: "https://tavus.daily.co", Type: "participant_joined"})
	assert.Empty(t, sess.Snapshot().Err)
	assert.Zero(t, sess.endCalls)
}

func TestRemountReplacesSubscription(t *testing.T) {
	c, host, _, channel := newTestController(t)

	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room2"))

	assert.Equal(t, 2, channel.subs)
	assert.Equal(t, 1, channel.unsubs, "previous listener must be removed on re-mount")
	assert.Equal(t, "https://tavus.daily.co/room2", host.attached.URL)
}

func TestUnmountReleasesEverything(t *testing.T) {
	c, host, _, channel := newTestController(t)
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

	c.Unmount()

	assert.Equal(t, 1, channel.unsubs)
	assert.Nil(t, host.attached)
}

func TestReleaseAllIsIdempotent(t *testing.T) {
	c, _, _, channel := newTestController(t)
	require.NoError(t, c.Mount(context.Background(), "https://tavus.daily.co/room1"))

	c.ReleaseAll()
	c.ReleaseAll()
	assert.Equal(t, 1, channel.unsubs)
}

func TestWatchdogSetsSlowLoadError(t *testing.T) {
	c, host, sess, _ := newTestController(t)
	sess.state = session.State{Active: true}
	host.attached = nil

	c.watchdogFire()
	assert.Equal(t, (&EmbedLoadTimeoutError{}).Error(), sess.Snapshot().Err)
}

func TestWatchdogBlockedPingCountsAsLoaded(t *testing.T) {
	c, host, sess, _ := newTestController(t)
	sess.state = session.State{Active: true}
	host.attached = &Frame{URL: "https://tavus.daily.co/room1"}
	host.pingErr = ErrPingBlocked

	c.watchdogFire()
	assert.Empty(t, sess.Snapshot().Err, "blocked probe is evidence of a loaded frame")
}

func TestWatchdogNoopWhenIdleOrErrored(t *testing.T) {
	c, _, sess, _ := newTestController(t)

	sess.state = session.State{Active: false}
	c.watchdogFire()
	assert.Empty(t, sess.Snapshot().Err)

	sess.state = session.State{Active: true, Err: "existing"}
	c.watchdogFire()
	assert.Equal(t, "existing", sess.Snapshot().Err, "watchdog never overwrites an existing error")
}
