package config

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	// BaseURL is the public site origin used for redirects.
	BaseURL string `mapstructure:"base_url"`
}

type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	PublishableKey string `mapstructure:"publishable_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
}

type CoinbaseConfig struct {
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	APIURL        string `mapstructure:"api_url"`
}

type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	// From is the sender of customer confirmations, AdminFrom of admin alerts.
	From            string   `mapstructure:"from"`
	AdminFrom       string   `mapstructure:"admin_from"`
	AdminRecipients []string `mapstructure:"admin_recipients"`
	AdminPortalURL  string   `mapstructure:"admin_portal_url"`
}

// Configured reports whether emails can be sent at all.
func (c EmailConfig) Configured() bool {
	return c.ResendAPIKey != ""
}
