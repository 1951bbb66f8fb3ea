package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// Config is the full configuration surface of the bot, loaded from
// environment variables once at startup and passed by reference into
// every component constructor.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Database
	UseMemoryStore bool   `env:"USE_MEMORY_STORE" envDefault:"false"`
	DBHost         string `env:"DB_HOST" envDefault:"localhost"`
	DBPort         string `env:"DB_PORT" envDefault:"5432"`
	DBUser         string `env:"DB_USER" envDefault:"postgres"`
	DBPass         string `env:"DB_PASS"`
	DBName         string `env:"DB_NAME" envDefault:"chatbot"`

	// Twilio WhatsApp
	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM"`

	// Hosted model
	OpenAIAPIKey      string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string  `env:"OPENAI_BASE_URL"`
	OpenAIModel       string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIMaxTokens   int     `env:"OPENAI_MAX_TOKENS" envDefault:"500"`
	OpenAITemperature float32 `env:"OPENAI_TEMPERATURE" envDefault:"0.3"`

	// Languages
	DefaultLanguage    string   `env:"DEFAULT_LANGUAGE" envDefault:"fr"`
	SupportedLanguages []string `env:"SUPPORTED_LANGUAGES" envSeparator:"," envDefault:"fr,en"`

	// Conversation pipeline
	MaxConversationSeconds    int      `env:"MAX_CONVERSATION_DURATION" envDefault:"3600"`
	SessionTTLSeconds         int      `env:"SESSION_TTL" envDefault:"3600"`
	IntentConfidenceThreshold float64  `env:"INTENT_CONFIDENCE_THRESHOLD" envDefault:"0.5"`
	KBConfidenceThreshold     float64  `env:"KB_CONFIDENCE_THRESHOLD" envDefault:"0.4"`
	HandoffKeywords           []string `env:"HANDOFF_KEYWORDS" envSeparator:"," envDefault:"agent,human,humain,conseiller,advisor"`

	// Tickets
	TicketAutoAssign         bool   `env:"TICKET_AUTO_ASSIGN" envDefault:"false"`
	TicketDefaultAgent       string `env:"TICKET_DEFAULT_AGENT" envDefault:"support"`
	EscalationTimeoutSeconds int    `env:"TICKET_ESCALATION_TIMEOUT" envDefault:"1800"`

	// Cache TTLs (minutes)
	IntentCacheTTLMinutes int `env:"INTENT_CACHE_TTL" envDefault:"30"`
	SearchCacheTTLMinutes int `env:"SEARCH_CACHE_TTL" envDefault:"30"`
	TicketCacheTTLMinutes int `env:"TICKET_CACHE_TTL" envDefault:"5"`
}

// New parses configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) MaxConversationDuration() time.Duration {
	return time.Duration(c.MaxConversationSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) EscalationTimeout() time.Duration {
	return time.Duration(c.EscalationTimeoutSeconds) * time.Second
}

func (c *Config) IntentCacheTTL() time.Duration {
	return time.Duration(c.IntentCacheTTLMinutes) * time.Minute
}

func (c *Config) SearchCacheTTL() time.Duration {
	return time.Duration(c.SearchCacheTTLMinutes) * time.Minute
}

func (c *Config) TicketCacheTTL() time.Duration {
	return time.Duration(c.TicketCacheTTLMinutes) * time.Minute
}

// IsSupported reports whether lang is in the supported language list.
func (c *Config) IsSupported(lang string) bool {
	for _, l := range c.SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
