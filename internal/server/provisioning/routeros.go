package provisioning

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/go-routeros/routeros"

	"github.com/dmitrijs2005/wifivoucher/internal/common"
	"github.com/dmitrijs2005/wifivoucher/internal/logging"
)

// apiConn is the part of *routeros.Client the provisioner uses. Tests
// substitute a fake through the newSession seam.
type apiConn interface {
	Run(sentence ...string) (*routeros.Reply, error)
	Close()
}

// newSession dials the device, performs the API login, and returns a live
// session. Seam variable so tests can inject a fake connection.
var newSession = func(cfg *Config) (apiConn, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	var conn net.Conn
	var err error
	if cfg.UseTLS {
		// RouterOS ships a self-signed certificate.
		conn, err = tls.DialWithDialer(dialer, "tcp", cfg.Address, &tls.Config{InsecureSkipVerify: true})
	} else {
		conn, err = dialer.Dial("tcp", cfg.Address)
	}
	if err != nil {
		return nil, err
	}

	client, err := routeros.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := client.Login(cfg.Username, cfg.Password); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// Client implements Provisioner over the RouterOS API.
type Client struct {
	cfg    *Config
	logger logging.Logger
}

// NewClient constructs a RouterOS provisioning client.
func NewClient(cfg *Config, l logging.Logger) *Client {
	return &Client{cfg: cfg, logger: l.With("module", "provisioning")}
}

func (c *Client) EnsureUserProfile(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorProvisioning, err)
	}

	conn, err := newSession(c.cfg)
	if err != nil {
		return fmt.Errorf("%w: connect to %s: %v", common.ErrorProvisioning, c.cfg.Address, err)
	}
	defer conn.Close()

	reply, err := conn.Run("/ip/hotspot/user/profile/print", "?name="+c.cfg.Profile.Name)
	if err != nil {
		return fmt.Errorf("%w: query user profile: %v", common.ErrorProvisioning, err)
	}
	if len(reply.Re) > 0 {
		return nil
	}

	c.logger.Info(ctx, "creating hotspot user profile", "profile", c.cfg.Profile.Name)

	_, err = conn.Run("/ip/hotspot/user/profile/add",
		"=name="+c.cfg.Profile.Name,
		"=session-timeout="+c.cfg.Profile.SessionTimeout,
		"=idle-timeout="+c.cfg.Profile.IdleTimeout,
		"=shared-users="+c.cfg.Profile.SharedUsers,
		"=status-autorefresh="+c.cfg.Profile.StatusAutorefresh,
	)
	if err != nil {
		return fmt.Errorf("%w: create user profile: %v", common.ErrorProvisioning, err)
	}

	return nil
}

func (c *Client) EnsureHotspotAccount(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorProvisioning, err)
	}

	conn, err := newSession(c.cfg)
	if err != nil {
		return fmt.Errorf("%w: connect to %s: %v", common.ErrorProvisioning, c.cfg.Address, err)
	}
	defer conn.Close()

	reply, err := conn.Run("/ip/hotspot/user/print", "?name="+username)
	if err != nil {
		return fmt.Errorf("%w: query hotspot user: %v", common.ErrorProvisioning, err)
	}
	if len(reply.Re) > 0 {
		return nil
	}

	c.logger.Info(ctx, "creating hotspot account", "username", username)

	_, err = conn.Run("/ip/hotspot/user/add",
		"=server="+c.cfg.HotspotServer,
		"=name="+username,
		"=password="+password,
		"=profile="+c.cfg.Profile.Name,
		"=limit-uptime="+c.cfg.UptimeLimit,
	)
	if err != nil {
		return fmt.Errorf("%w: create hotspot user: %v", common.ErrorProvisioning, err)
	}

	return nil
}
