package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/wifivoucher/internal/common"
	"github.com/dmitrijs2005/wifivoucher/internal/server/models"
)

type voucherResponse struct {
	ID                int64      `json:"id"`
	Token             string     `json:"token"`
	Username          string     `json:"username"`
	Password          string     `json:"password"`
	LoginURL          string     `json:"login_url"`
	CreatedAt         time.Time  `json:"created_at"`
	Provisioned       bool       `json:"provisioned"`
	Used              bool       `json:"used"`
	UsedAt            *time.Time `json:"used_at,omitempty"`
	ProvisioningError string     `json:"provisioning_error,omitempty"`
}

func toVoucherResponse(v *models.Voucher) *voucherResponse {
	return &voucherResponse{
		ID:          v.ID,
		Token:       v.Token,
		Username:    v.Username,
		Password:    v.Password,
		LoginURL:    v.LoginURL,
		CreatedAt:   v.CreatedAt,
		Provisioned: v.Provisioned,
		Used:        v.Used,
		UsedAt:      v.UsedAt,
	}
}

// handleIssue creates a voucher. Provisioning failure still yields 201: the
// voucher exists and is redeemable, the device account just has to be created
// later, so the response carries the row plus the provisioning error.
func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	voucher, err := s.vouchers.Issue(r.Context())

	if err != nil && voucher == nil {
		s.logger.Error(r.Context(), "issue failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := toVoucherResponse(voucher)
	if err != nil {
		resp.ProvisioningError = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := s.vouchers.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error(r.Context(), "list failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]*voucherResponse, 0, len(list))
	for _, v := range list {
		resp = append(resp, toVoucherResponse(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"vouchers": resp})
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	view, err := s.vouchers.QR(r.Context(), r.PathValue("token"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "voucher not found")
			return
		}
		s.logger.Error(r.Context(), "qr failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":           view.Token,
		"qr_url":          view.LoginURL,
		"qrcode_data_uri": view.DataURI,
	})
}

// handleRedeem returns the login-flow data for a token without consuming the
// voucher. A used voucher gets the "already used" view with status 200 - it
// is a defined outcome, not an error.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	view, err := s.vouchers.Redeem(r.Context(), r.PathValue("token"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "voucher not found")
			return
		}
		s.logger.Error(r.Context(), "redeem failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if view.Used {
		writeJSON(w, http.StatusOK, map[string]any{"used": true})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"used":              false,
		"hotspot_login_url": view.HotspotLoginURL,
		"dst":               view.Dst,
		"username":          view.Username,
		"password":          view.Password,
		"token":             view.Token,
	})
}

// handleMarkUsed consumes the voucher. Replays succeed with the same body.
func (s *Server) handleMarkUsed(w http.ResponseWriter, r *http.Request) {
	err := s.vouchers.ConfirmRedeemed(r.Context(), r.PathValue("token"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "voucher not found")
			return
		}
		s.logger.Error(r.Context(), "mark-used failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealthDB(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "postgres unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "postgres": "connected"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
