package tenant

import "time"

// Default widget look applied when a tenant omits customization fields.
const (
	DefaultPrimaryColor   = "#4F46E5"
	DefaultWelcomeMessage = "Hi there! How can I help you today?"
)

// Customization controls how the embeddable widget looks for a tenant.
type Customization struct {
	PrimaryColor   string `json:"primaryColor"`
	AccentColor    string `json:"accentColor,omitempty"`
	WelcomeMessage string `json:"welcomeMessage"`
}

// WithDefaults fills the fields a tenant left blank.
func (c Customization) WithDefaults() Customization {
	if c.PrimaryColor == "" {
		c.PrimaryColor = DefaultPrimaryColor
	}
	if c.WelcomeMessage == "" {
		c.WelcomeMessage = DefaultWelcomeMessage
	}
	return c
}

// Config is the full profile of a registered business.
type Config struct {
	ID            string        `json:"id"`
	ClientName    string        `json:"clientName"`
	BusinessName  string        `json:"businessName"`
	BusinessInfo  string        `json:"businessInfo"`
	KnowledgeBase string        `json:"knowledgeBase"`
	Customization Customization `json:"customization"`
	CreatedAt     time.Time     `json:"createdAt"`
	Active        bool          `json:"active"`
}

// Summary is the part of a Config that is safe to list to admins.
type Summary struct {
	ID           string    `json:"id"`
	ClientName   string    `json:"clientName"`
	BusinessName string    `json:"businessName"`
	CreatedAt    time.Time `json:"createdAt"`
	Active       bool      `json:"active"`
}

// Summary strips the prompt material from the config.
func (c Config) Summary() Summary {
	return Summary{
		ID:           c.ID,
		ClientName:   c.ClientName,
		BusinessName: c.BusinessName,
		CreatedAt:    c.CreatedAt,
		Active:       c.Active,
	}
}

// CreateInput is what an admin submits to register a tenant.
// Missing fields are stored as empty strings; nothing is validated.
type CreateInput struct {
	ClientName    string         `json:"clientName"`
	BusinessName  string         `json:"businessName"`
	BusinessInfo  string         `json:"businessInfo"`
	KnowledgeBase string         `json:"knowledgeBase"`
	Customization *Customization `json:"customization,omitempty"`
}
