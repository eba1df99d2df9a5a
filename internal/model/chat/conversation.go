package chat

import "time"

// DefaultLanguage is recorded for every conversation. Detection is not implemented.
const DefaultLanguage = "en"

// TurnMessages is how many messages one exchange adds to a conversation.
const TurnMessages = 2

// Conversation summarizes one visitor session identified by a client-supplied id.
type Conversation struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenantId"`
	MessageCount     int       `json:"messageCount"`
	StartedAt        time.Time `json:"startedAt"`
	EndedAt          time.Time `json:"endedAt"`
	LanguageDetected string    `json:"languageDetected"`
}
