package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-reminders/internal/domain"
)

// Envelope is a versioned event record. ID and Time are fixed when the
// envelope is built; retries of the same envelope resend both unchanged.
type Envelope struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	SpecVersion     string    `json:"specversion"`
	Type            Type      `json:"type"`
	DataContentType string    `json:"datacontenttype"`
	DataSchema      *string   `json:"dataschema,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	Time            time.Time `json:"time"`
	Data            Payload   `json:"data"`
}

// Option customizes an envelope during construction.
type Option func(*Envelope)

// WithID overrides the generated envelope ID.
func WithID(id string) Option {
	return func(e *Envelope) {
		e.ID = id
	}
}

// WithTime overrides the construction timestamp. It is stored in UTC.
func WithTime(t time.Time) Option {
	return func(e *Envelope) {
		e.Time = t
	}
}

// WithSubject sets the subject of the event within its source.
func WithSubject(subject string) Option {
	return func(e *Envelope) {
		e.Subject = subject
	}
}

// WithDataSchema sets the URI of the schema the payload adheres to.
func WithDataSchema(uri string) Option {
	return func(e *Envelope) {
		e.DataSchema = &uri
	}
}

// New builds an envelope around payload. The envelope type is taken from the
// payload, and an ID and timestamp are generated unless supplied via options.
// It returns a *ValidationError if the source or payload is invalid.
func New(source string, payload Payload, opts ...Option) (*Envelope, error) {
	if payload == nil {
		return nil, invalid("data", "is required")
	}
	if source == "" {
		return nil, invalid("source", "is required")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	e := &Envelope{
		Source:          source,
		SpecVersion:     SpecVersion,
		Type:            payload.EventType(),
		DataContentType: DataContentType,
		Data:            payload,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Time = e.Time.UTC()

	return e, nil
}

// NewReminderFired builds the reminder.fired envelope for r. The channel list
// falls back to the domain default when the reminder has none.
func NewReminderFired(source string, r *domain.Reminder, firedAt time.Time, opts ...Option) (*Envelope, error) {
	if r == nil {
		return nil, invalid("reminder", "is required")
	}
	payload := ReminderFired{
		ReminderID:           r.ID,
		TaskID:               r.TaskID,
		UserID:               r.UserID,
		FiredAt:              firedAt.UTC(),
		ScheduledTime:        r.ScheduledTime.UTC(),
		NotificationChannels: r.Channels(),
	}
	opts = append([]Option{WithSubject(fmt.Sprintf("reminder/%s", r.ID))}, opts...)
	return New(source, payload, opts...)
}

// Marshal serializes the envelope to its JSON wire form.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope %s: %w", e.ID, err)
	}
	return data, nil
}

// Decode parses a serialized envelope, selecting the payload struct from the
// envelope type. Unknown types and invalid payloads yield a *ValidationError.
func Decode(data []byte) (*Envelope, error) {
	var raw struct {
		ID              string          `json:"id"`
		Source          string          `json:"source"`
		SpecVersion     string          `json:"specversion"`
		Type            Type            `json:"type"`
		DataContentType string          `json:"datacontenttype"`
		DataSchema      *string         `json:"dataschema"`
		Subject         string          `json:"subject"`
		Time            time.Time       `json:"time"`
		Data            json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if raw.ID == "" {
		return nil, invalid("id", "is required")
	}
	if raw.SpecVersion != SpecVersion {
		return nil, invalid("specversion", fmt.Sprintf("must be %q", SpecVersion))
	}

	payload, err := decodePayload(raw.Type, raw.Data)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithID(raw.ID), WithTime(raw.Time), WithSubject(raw.Subject)}
	if raw.DataSchema != nil {
		opts = append(opts, WithDataSchema(*raw.DataSchema))
	}
	e, err := New(raw.Source, payload, opts...)
	if err != nil {
		return nil, err
	}
	if raw.DataContentType != "" {
		e.DataContentType = raw.DataContentType
	}
	return e, nil
}

func decodePayload(t Type, data json.RawMessage) (Payload, error) {
	if len(data) == 0 {
		return nil, invalid("data", "is required")
	}

	var (
		payload Payload
		err     error
	)
	switch t {
	case TypeTaskCreated:
		payload, err = unmarshalAs[TaskCreated](data)
	case TypeTaskUpdated:
		payload, err = unmarshalAs[TaskUpdated](data)
	case TypeTaskDeleted:
		payload, err = unmarshalAs[TaskDeleted](data)
	case TypeReminderScheduled:
		payload, err = unmarshalAs[ReminderScheduled](data)
	case TypeReminderFired:
		payload, err = unmarshalAs[ReminderFired](data)
	case TypeReminderCancelled:
		payload, err = unmarshalAs[ReminderCancelled](data)
	case TypeNotificationSent:
		payload, err = unmarshalAs[NotificationSent](data)
	default:
		return nil, invalid("type", fmt.Sprintf("unknown event type %q", t))
	}
	if err != nil {
		return nil, invalid("data", err.Error())
	}
	return payload, nil
}

func unmarshalAs[T Payload](data json.RawMessage) (Payload, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}
