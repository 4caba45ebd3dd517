package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event. A nil actor means the
// processor or a scheduled job.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version     int             `json:"version"`
	EventID     string          `json:"eventId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Actor       *ActorRef       `json:"actor,omitempty"`
	SourceEvent string          `json:"sourceEvent,omitempty"`
	Data        json.RawMessage `json:"data"`
}
