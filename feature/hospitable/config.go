package hospitable

// Config holds credentials and tuning for the Hospitable API client.
type Config struct {
	// Email is the account login email.
	Email string `mapstructure:"email" default:""`
	// Password is the account password.
	Password string `mapstructure:"password" default:""`
	// Token seeds the client with a previously issued bearer token.
	// Optional; the client logs in when the token is missing or expiring.
	Token string `mapstructure:"token" default:""`
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.hospitable.com/v1"`
	// LookaheadDays is how far ahead reservations are fetched.
	LookaheadDays int `mapstructure:"lookahead_days" default:"7"`
}
