// Package provisioning talks to the RouterOS management API of the network
// access controller. It ensures the hotspot user profile exists and creates
// one hotspot account per voucher.
//
// The RouterOS API has no conditional "create if absent" verb, so both
// operations are a two-step lookup-before-create protocol inside a single
// session. Every logical operation dials a fresh session and closes it on all
// exit paths; nothing is pooled and no state survives between calls.
package provisioning

import (
	"context"
	"time"
)

// Provisioner is the device-facing contract consumed by the service layer.
type Provisioner interface {
	// EnsureUserProfile creates the named access-policy profile on the device
	// unless it already exists. Safe to repeat with an identical policy.
	EnsureUserProfile(ctx context.Context) error

	// EnsureHotspotAccount creates a hotspot account for username unless one
	// already exists. Safe to repeat for the same username.
	EnsureHotspotAccount(ctx context.Context, username, password string) error
}

// ProfilePolicy enumerates the recognized fields of the hotspot user profile.
// Values are RouterOS duration/count words ("1h", "5m", "1").
type ProfilePolicy struct {
	Name              string
	SessionTimeout    string
	IdleTimeout       string
	SharedUsers       string
	StatusAutorefresh string
}

// Config holds the device endpoint, credentials, and the account policy
// applied to created hotspot users.
type Config struct {
	Address     string
	Username    string
	Password    string
	UseTLS      bool
	DialTimeout time.Duration

	HotspotServer string
	Profile       ProfilePolicy
	UptimeLimit   string
}
