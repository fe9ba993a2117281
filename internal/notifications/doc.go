// Package notifications delivers run outcomes via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers notify unconditionally. Delivery failures are returned to the
// caller, which logs them; a notification never changes a run's result.
package notifications
