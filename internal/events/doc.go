// Package events defines the versioned event envelope shared by every
// producer and subscriber of the task-management event taxonomy.
//
// An Envelope carries one Payload. The set of payloads is closed: each event
// Type has exactly one payload struct, and the envelope's type is always
// derived from the payload so the two can never disagree. Envelopes are
// routed to broker topics by the prefix of their type:
//   - task.*         -> task-events
//   - reminder.*     -> reminder-events
//   - notification.* -> notification-events
package events
