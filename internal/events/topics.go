package events

// Broker topics grouping related event types.
const (
	TopicTaskEvents         = "task-events"
	TopicReminderEvents     = "reminder-events"
	TopicNotificationEvents = "notification-events"
)

// DefaultTopic receives envelopes whose type prefix is not recognised.
const DefaultTopic = TopicTaskEvents

// TopicFor resolves the topic for an event type from its prefix. The second
// return value is false when the prefix is unknown and DefaultTopic was used.
func TopicFor(t Type) (string, bool) {
	switch t.Prefix() {
	case "task":
		return TopicTaskEvents, true
	case "reminder":
		return TopicReminderEvents, true
	case "notification":
		return TopicNotificationEvents, true
	default:
		return DefaultTopic, false
	}
}
