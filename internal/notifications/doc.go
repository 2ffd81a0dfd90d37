// Package notifications publishes workflow events to an ntfy topic.
//
// Events are delivered best effort. Publishing failures are reported to the
// caller but never block or fail the pipeline stage that raised them. When no
// topic is configured every publish is a no-op.
package notifications
