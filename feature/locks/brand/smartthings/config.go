package smartthings

// Config holds the SmartThings personal access token and API tuning.
type Config struct {
	// Token is a personal access token with device read/execute scopes.
	Token string `mapstructure:"token" default:""`
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.smartthings.com/v1"`
	// APIDelaySeconds is the wait after a refresh command before the
	// device status is read, and the pacing delay before mutations.
	APIDelaySeconds int `mapstructure:"api_delay_seconds" default:"2"`
}
