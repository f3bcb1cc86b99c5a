// Package fanout pushes message-store change events to live client
// subscriptions, enriching inserts with the viewer's translation.
package fanout

// EventType identifies a change to a conversation's message set.
type EventType string

const (
	MessageInserted     EventType = "message_inserted"
	MessageDeleted      EventType = "message_deleted"
	ConversationDeleted EventType = "conversation_deleted"
)

// Event is a raw change notification published by the services after a
// successful mutation. Insert events carry only the message ID; the
// subscription fetches the full row so every viewer sees current state.
type Event struct {
	Type           EventType
	ConversationID string
	MessageID      string
	SenderID       string
}
