package wyze

// Config holds Wyze account credentials and API tuning.
type Config struct {
	// Email is the Wyze account email.
	Email string `mapstructure:"email" default:""`
	// Password is the Wyze account password.
	Password string `mapstructure:"password" default:""`
	// KeyID identifies the developer API key.
	KeyID string `mapstructure:"key_id" default:""`
	// APIKey is the developer API key secret.
	APIKey string `mapstructure:"api_key" default:""`
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.wyzecam.com"`
	// APIDelaySeconds is the fixed pacing delay before each mutating
	// lock call.
	APIDelaySeconds int `mapstructure:"api_delay_seconds" default:"5"`
}
