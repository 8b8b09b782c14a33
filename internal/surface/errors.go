package surface

import "fmt"

// InvalidEmbedURLError is returned before any host mutation when the
// conversation URL is unusable for embedding.
type InvalidEmbedURLError struct {
	URL string
}

func (e *InvalidEmbedURLError) Error() string {
	return fmt.Sprintf("invalid conversation URL %q: a non-empty https URL is required", e.URL)
}

// EmbedLoadTimeoutError is the watchdog's diagnosis when no frame context
// exists after the load deadline. It is surfaced as a session error, never
// as a forced unmount.
type EmbedLoadTimeoutError struct{}

func (e *EmbedLoadTimeoutError) Error() string {
	return "Video interface is taking longer than expected to load. This may be due to network issues or the conversation may not be ready. Please try again."
}
