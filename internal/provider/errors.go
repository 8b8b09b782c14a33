package provider

import "fmt"

// MissingCredentialsError is returned before any network call when the
// credentials needed for an operation are absent. The Reason is user-facing
// and intentionally distinct from network failure messages.
type MissingCredentialsError struct {
	Reason string
}

func (e *MissingCredentialsError) Error() string {
	return e.Reason
}

// ConnectionError covers transport failures and non-2xx provider responses.
// Status is 0 when the request never reached the provider.
type ConnectionError struct {
	Status  int
	Message string
}

func (e *ConnectionError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("connection failed: %s", e.Message)
	}
	return fmt.Sprintf("API error: %d - %s", e.Status, e.Message)
}

// MalformedResponseError means the provider answered 2xx but no known
// response shape matched the body.
type MalformedResponseError struct {
	Hint string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("unrecognized response shape: %s", e.Hint)
}

// NotFoundError is returned when a get-by-id yields no usable record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("conversation %s not found", e.ID)
}

// EndUnsupportedError means neither the dedicated end action nor a status
// update is supported; the provider may only offer permanent deletion.
type EndUnsupportedError struct {
	Status  int
	Message string
}

func (e *EndUnsupportedError) Error() string {
	return fmt.Sprintf("failed to end conversation: %d - %s (this provider may only support permanent deletion)", e.Status, e.Message)
}

// DeleteError is returned when the irreversible delete call fails.
type DeleteError struct {
	Status  int
	Message string
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete conversation: %d - %s", e.Status, e.Message)
}
