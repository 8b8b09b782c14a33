package surface

import "time"

// backoff is the reconnect delay schedule for the event channel.
type backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max}
}

func (b *backoff) next() time.Duration {
	d := b.base << b.attempt
	if d > b.max {
		d = b.max
	}
	b.attempt++
	return d
}

func (b *backoff) reset() {
	b.attempt = 0
}
