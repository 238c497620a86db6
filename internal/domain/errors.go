/**
 * @description
 * This file defines the typed errors the service layer returns to the API boundary.
 * Instead of exception-style control flow, each operation returns an error whose
 * concrete type tells the boundary which transport status to use: NotFoundError maps
 * to 404 with its message intact, InternalError maps to 500 with the cause discarded
 * unless a collaborator message was deliberately preserved.
 */

package domain

// NotFoundError indicates a lookup miss. Its message is user-facing and includes the
// queried key, e.g. "Customer with id 123 doesn't exist". It is the only error type
// allowed to cross the API boundary with its message intact.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// InternalError is the normalized failure for everything that is not a lookup miss
// or a validation problem. Message is usually empty; the loyalty aggregation path
// preserves the collaborator's message text when available.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	if e.Message == "" {
		return "internal server error"
	}
	return e.Message
}
