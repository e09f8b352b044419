package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// envConfig is an intermediate DTO for the environment overlay. All fields
// are pointers so an unset variable stays nil and does not clobber a default
// already present in Config.
type envConfig struct {
	HTTPAddr    *string `env:"APP_ADDR, noinit"`
	BaseURL     *string `env:"BASE_URL, noinit"`
	AdminToken  *string `env:"ADMIN_TOKEN, noinit"`
	DatabaseDSN *string `env:"DATABASE_DSN, noinit"`

	HotspotLoginURL *string `env:"HOTSPOT_LOGIN_URL, noinit"`
	HotspotDst      *string `env:"HOTSPOT_DST, noinit"`

	RouterOSAddress     *string        `env:"MT_ADDR, noinit"`
	RouterOSUsername    *string        `env:"MT_USERNAME, noinit"`
	RouterOSPassword    *string        `env:"MT_PASSWORD, noinit"`
	RouterOSUseTLS      *bool          `env:"MT_USE_TLS, noinit"`
	RouterOSDialTimeout *time.Duration `env:"MT_DIAL_TIMEOUT, noinit"`

	HotspotServer            *string `env:"MT_HOTSPOT_SERVER, noinit"`
	ProfileName              *string `env:"MT_HOTSPOT_PROFILE, noinit"`
	ProfileSessionTimeout    *string `env:"MT_SESSION_TIMEOUT, noinit"`
	ProfileIdleTimeout       *string `env:"MT_IDLE_TIMEOUT, noinit"`
	ProfileSharedUsers       *string `env:"MT_SHARED_USERS, noinit"`
	ProfileStatusAutorefresh *string `env:"MT_STATUS_AUTOREFRESH, noinit"`
	UptimeLimit              *string `env:"MT_LIMIT_UPTIME, noinit"`

	IssueAttempts  *int `env:"ISSUE_ATTEMPTS, noinit"`
	UsernameLength *int `env:"USERNAME_LENGTH, noinit"`
	PasswordLength *int `env:"PASSWORD_LENGTH, noinit"`
}

// parseEnv overlays environment variables onto the provided Config.
// Malformed values (e.g. a non-integer ISSUE_ATTEMPTS) cause a panic, the
// same hard failure the flag layer produces.
func parseEnv(config *Config) {
	e := &envConfig{}
	if err := envconfig.Process(context.Background(), e); err != nil {
		panic(err)
	}

	setIf(&config.HTTPAddr, e.HTTPAddr)
	setIf(&config.BaseURL, e.BaseURL)
	setIf(&config.AdminToken, e.AdminToken)
	setIf(&config.DatabaseDSN, e.DatabaseDSN)

	setIf(&config.HotspotLoginURL, e.HotspotLoginURL)
	setIf(&config.HotspotDst, e.HotspotDst)

	setIf(&config.RouterOSAddress, e.RouterOSAddress)
	setIf(&config.RouterOSUsername, e.RouterOSUsername)
	setIf(&config.RouterOSPassword, e.RouterOSPassword)
	setIf(&config.RouterOSUseTLS, e.RouterOSUseTLS)
	setIf(&config.RouterOSDialTimeout, e.RouterOSDialTimeout)

	setIf(&config.HotspotServer, e.HotspotServer)
	setIf(&config.ProfileName, e.ProfileName)
	setIf(&config.ProfileSessionTimeout, e.ProfileSessionTimeout)
	setIf(&config.ProfileIdleTimeout, e.ProfileIdleTimeout)
	setIf(&config.ProfileSharedUsers, e.ProfileSharedUsers)
	setIf(&config.ProfileStatusAutorefresh, e.ProfileStatusAutorefresh)
	setIf(&config.UptimeLimit, e.UptimeLimit)

	setIf(&config.IssueAttempts, e.IssueAttempts)
	setIf(&config.UsernameLength, e.UsernameLength)
	setIf(&config.PasswordLength, e.PasswordLength)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
