package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. End users are identified by
// telegram id, operators by their admin username.
type ActorRef struct {
	AccountID *int64 `json:"accountId,omitempty"`
	Admin     string `json:"admin,omitempty"`
	Role      string `json:"role,omitempty"`
}

// AccountActor builds an ActorRef for an end user.
func AccountActor(accountID int64) *ActorRef {
	id := accountID
	return &ActorRef{AccountID: &id, Role: "user"}
}

// AdminActor builds an ActorRef for an operator.
func AdminActor(username string) *ActorRef {
	return &ActorRef{Admin: username, Role: "admin"}
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
