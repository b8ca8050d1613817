package locks

import (
	"time"

	"lock-sync/core/reconcile"
)

// Config holds sync-run tuning shared by every property.
type Config struct {
	// CheckInOffsetHours shifts code activation relative to check-in.
	// Negative values open the lock early.
	CheckInOffsetHours int `mapstructure:"check_in_offset_hours" default:"0"`
	// CheckOutOffsetHours shifts code expiry relative to check-out.
	CheckOutOffsetHours int `mapstructure:"check_out_offset_hours" default:"0"`
	// SettleDelaySeconds is the wait between a vendor write and the
	// read that verifies it.
	SettleDelaySeconds int `mapstructure:"settle_delay_seconds" default:"5"`
	// CreateAttempts is the attempt budget for creating one code.
	CreateAttempts int `mapstructure:"create_attempts" default:"3"`
	// VerifyAttempts is the read budget for verifying one create attempt.
	VerifyAttempts int `mapstructure:"verify_attempts" default:"3"`
	// Timezone is the IANA zone reservations are interpreted in.
	Timezone string `mapstructure:"timezone" default:"UTC"`
	// NonProd restricts runs to TestPropertyName.
	NonProd bool `mapstructure:"non_prod" default:"false"`
	// TestPropertyName is the only property processed when NonProd is set.
	TestPropertyName string `mapstructure:"test_property_name" default:""`
}

// EngineConfig translates run tuning into engine constants.
func (c Config) EngineConfig() reconcile.Config {
	return reconcile.Config{
		CheckInOffset:  time.Duration(c.CheckInOffsetHours) * time.Hour,
		CheckOutOffset: time.Duration(c.CheckOutOffsetHours) * time.Hour,
		SettleDelay:    time.Duration(c.SettleDelaySeconds) * time.Second,
		CreateAttempts: c.CreateAttempts,
		VerifyAttempts: c.VerifyAttempts,
	}
}
