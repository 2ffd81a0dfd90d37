// Package workflow advances queue items through the analysis pipeline.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into the registered stage handlers (probe, extract, analyze, evaluate,
// render) while capturing progress and failure metadata. It also aggregates
// queue stats, calls stage health checks, and emits queue-level notifications
// when processing starts or completes.
//
// Stages run in a single lane: an item moves probing -> extracting ->
// analyzing -> evaluating -> rendering, and the manager owns every status
// transition. Handlers only fill in domain fields and progress; a handler
// returning a validation-class error routes the item to manual review instead
// of failed.
package workflow
