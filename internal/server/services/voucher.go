// Package services contains server-side business logic. This file implements
// VoucherService, which orchestrates voucher issuance (generate, persist,
// provision on the device) and redemption.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wifivoucher/internal/common"
	"github.com/dmitrijs2005/wifivoucher/internal/logging"
	"github.com/dmitrijs2005/wifivoucher/internal/qr"
	"github.com/dmitrijs2005/wifivoucher/internal/server/config"
	"github.com/dmitrijs2005/wifivoucher/internal/server/credentials"
	"github.com/dmitrijs2005/wifivoucher/internal/server/metrics"
	"github.com/dmitrijs2005/wifivoucher/internal/server/models"
	"github.com/dmitrijs2005/wifivoucher/internal/server/provisioning"
	"github.com/dmitrijs2005/wifivoucher/internal/server/repositories/repomanager"
)

// DefaultListLimit is the listing size when the caller does not ask for one.
const DefaultListLimit = 50

// maxListLimit caps operator listings.
const maxListLimit = 500

// RedemptionView is what the redemption page needs. For a used voucher only
// Used is set; otherwise it carries the captive-portal login-flow data.
type RedemptionView struct {
	Used            bool
	HotspotLoginURL string
	Dst             string
	Username        string
	Password        string
	Token           string
}

// QRView bundles a voucher's login URL with its QR rendering.
type QRView struct {
	Token    string
	LoginURL string
	DataURI  string
}

// VoucherService provides the voucher lifecycle:
//   - Issue: create a unique voucher and lazily provision it on the device
//   - Redeem: read-only login-flow view for the end user
//   - ConfirmRedeemed: consume the voucher exactly once
type VoucherService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	generator   *credentials.Generator
	provisioner provisioning.Provisioner
	logger      logging.Logger

	baseURL         string
	hotspotLoginURL string
	hotspotDst      string
	issueAttempts   int
}

// NewVoucherService constructs a VoucherService using repositories, the
// credential generator, the device client, and server config.
func NewVoucherService(db *sql.DB, m repomanager.RepositoryManager, g *credentials.Generator,
	p provisioning.Provisioner, l logging.Logger, cfg *config.Config) *VoucherService {
	return &VoucherService{
		db:              db,
		repomanager:     m,
		generator:       g,
		provisioner:     p,
		logger:          l.With("module", "voucher_service"),
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		hotspotLoginURL: cfg.HotspotLoginURL,
		hotspotDst:      cfg.HotspotDst,
		issueAttempts:   cfg.IssueAttempts,
	}
}

// Issue creates a new voucher and tries to provision it on the device.
//
// Credential generation retries on uniqueness collisions up to the configured
// attempt budget; exhaustion returns common.ErrorIssuanceExhausted with no row
// written. The row commits before any device call, so a slow or dead device
// never blocks other issuance.
//
// When provisioning fails the persisted voucher is returned together with the
// error: the row and the device account are independent resources, and the
// account can be created later via EnsureProvisioned.
func (s *VoucherService) Issue(ctx context.Context) (*models.Voucher, error) {
	start := time.Now()
	result := "failed"
	defer func() {
		metrics.RecordIssueDuration(result, time.Since(start).Seconds())
	}()

	repo := s.repomanager.Vouchers(s.db)

	var voucher *models.Voucher
	for attempt := 0; attempt < s.issueAttempts; attempt++ {
		candidate, err := s.newCandidate()
		if err != nil {
			return nil, err
		}

		created, err := repo.Create(ctx, candidate)
		if err != nil {
			if errors.Is(err, common.ErrorCollision) {
				s.logger.Warn(ctx, "credential collision, regenerating", "attempt", attempt+1)
				continue
			}
			return nil, err
		}

		voucher = created
		break
	}

	if voucher == nil {
		result = "exhausted"
		return nil, common.ErrorIssuanceExhausted
	}

	s.logger.Info(ctx, "voucher issued", "id", voucher.ID, "username", voucher.Username)

	if err := s.EnsureProvisioned(ctx, voucher); err != nil {
		result = "provisioning_failed"
		s.logger.Error(ctx, "provisioning failed, voucher kept", "id", voucher.ID, "error", err.Error())
		return voucher, err
	}

	result = "success"
	return voucher, nil
}

// EnsureProvisioned creates the matching device account for a voucher unless
// it is already provisioned. Already-provisioned vouchers produce zero device
// calls. On success the voucher is marked provisioned in the store and the
// passed struct is updated in place.
func (s *VoucherService) EnsureProvisioned(ctx context.Context, voucher *models.Voucher) error {
	if voucher.Provisioned {
		return nil
	}

	if err := s.provisioner.EnsureUserProfile(ctx); err != nil {
		metrics.RecordProvisioning("failed")
		return err
	}
	if err := s.provisioner.EnsureHotspotAccount(ctx, voucher.Username, voucher.Password); err != nil {
		metrics.RecordProvisioning("failed")
		return err
	}

	repo := s.repomanager.Vouchers(s.db)
	changed, err := repo.MarkProvisioned(ctx, voucher.ID)
	if err != nil {
		return fmt.Errorf("error marking voucher provisioned: %w", err)
	}
	voucher.Provisioned = true

	if changed {
		metrics.RecordProvisioning("created")
	} else {
		metrics.RecordProvisioning("skipped")
	}
	return nil
}

// Redeem returns the login-flow view for a token without consuming the
// voucher, so the page survives reloads and back-navigation. A used voucher
// yields the "already used" view; an unknown token yields ErrorNotFound.
//
// Provisioning state is deliberately not checked here: a voucher whose device
// account failed to materialize still renders, as a manual fallback path.
func (s *VoucherService) Redeem(ctx context.Context, token string) (*RedemptionView, error) {
	repo := s.repomanager.Vouchers(s.db)

	voucher, err := repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if voucher.Used {
		return &RedemptionView{Used: true}, nil
	}

	return &RedemptionView{
		HotspotLoginURL: s.hotspotLoginURL,
		Dst:             s.hotspotDst,
		Username:        voucher.Username,
		Password:        voucher.Password,
		Token:           voucher.Token,
	}, nil
}

// ConfirmRedeemed consumes the voucher for the given token. The first call
// flips used and stamps used_at; replays are no-op successes.
func (s *VoucherService) ConfirmRedeemed(ctx context.Context, token string) error {
	repo := s.repomanager.Vouchers(s.db)

	voucher, err := repo.FindByToken(ctx, token)
	if err != nil {
		return err
	}

	changed, err := repo.MarkUsed(ctx, voucher.ID)
	if err != nil {
		return fmt.Errorf("error marking voucher used: %w", err)
	}

	if changed {
		metrics.RecordRedemption("consumed")
		s.logger.Info(ctx, "voucher redeemed", "id", voucher.ID)
	} else {
		metrics.RecordRedemption("replay")
	}
	return nil
}

// ListRecent returns up to limit vouchers, newest first, for operator review.
func (s *VoucherService) ListRecent(ctx context.Context, limit int) ([]*models.Voucher, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	repo := s.repomanager.Vouchers(s.db)
	return repo.ListRecent(ctx, limit)
}

// QR returns the login URL of the voucher with the given token together with
// a QR rendering of it as a PNG data URI.
func (s *VoucherService) QR(ctx context.Context, token string) (*QRView, error) {
	repo := s.repomanager.Vouchers(s.db)

	voucher, err := repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	dataURI, err := qr.EncodeDataURI(voucher.LoginURL)
	if err != nil {
		return nil, err
	}

	return &QRView{Token: voucher.Token, LoginURL: voucher.LoginURL, DataURI: dataURI}, nil
}

// newCandidate draws a fresh credential set and derives the login URL.
func (s *VoucherService) newCandidate() (*models.Voucher, error) {
	token, err := s.generator.Token()
	if err != nil {
		return nil, err
	}
	username, err := s.generator.Username()
	if err != nil {
		return nil, err
	}
	password, err := s.generator.Password()
	if err != nil {
		return nil, err
	}

	return &models.Voucher{
		Token:    token,
		Username: username,
		Password: password,
		LoginURL: s.baseURL + "/v/" + token,
	}, nil
}
