package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskConversationUpsert = "conversations.upsert"

// ConversationUpsertPayload is one provider conversation event reduced to
// what the conversation directory stores.
type ConversationUpsertPayload struct {
	EventID        string    `json:"eventId"`
	ChatID         string    `json:"chatId"`
	ContactID      string    `json:"contactId"`
	ContactName    string    `json:"contactName,omitempty"`
	ContactPhone   string    `json:"contactPhone,omitempty"`
	ChannelID      string    `json:"channelId,omitempty"`
	OrganizationID string    `json:"organizationId,omitempty"`
	EventAt        time.Time `json:"eventAt"`
}

func NewConversationUpsertTask(payload ConversationUpsertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConversationUpsert, data), nil
}

func ParseConversationUpsertPayload(task *asynq.Task) (ConversationUpsertPayload, error) {
	var payload ConversationUpsertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ConversationUpsertPayload{}, err
	}
	return payload, nil
}
