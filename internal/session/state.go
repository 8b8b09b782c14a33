// Package session owns the single active-session state and orchestrates the
// create, join, end and delete flows against the provider.
package session

// State is a snapshot of the active-session state. Active and Loading are
// never both true; ConversationID is set iff a session is active or a
// remote end/delete for it is in flight. Err is an empty string when no
// error overlay is set.
type State struct {
	Active          bool
	Loading         bool
	Err             string
	ConversationID  string
	ConversationURL string
}
