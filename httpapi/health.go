package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/relaykit/core/smtp"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	SMTP   *smtpVerification `json:"smtp,omitempty"`
}

type smtpVerification struct {
	Status     string `json:"status"`
	TLSMode    string `json:"tls_mode,omitempty"`
	AuthMethod string `json:"auth_method,omitempty"`
	Category   string `json:"category,omitempty"`
	Error      string `json:"error,omitempty"`
}

// handleHealth reports dependency health. With ?verify=smtp it additionally
// connects to the relay and authenticates without sending a message,
// proving the stored credentials end to end.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	healthy := true

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			healthy = false
			continue
		}
		resp.Checks[name] = "ok"
	}

	if r.URL.Query().Get("verify") == "smtp" {
		resp.SMTP = h.verifySMTP(ctx)
		if resp.SMTP.Status != "ok" {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *Handler) verifySMTP(ctx context.Context) *smtpVerification {
	ctx, cancel := context.WithTimeout(ctx, h.verifyWait)
	defer cancel()

	cfg, err := h.source.SMTPConfig(ctx)
	if err != nil {
		return &smtpVerification{Status: "failed", Error: err.Error()}
	}

	res, err := h.sender.Verify(ctx, cfg)
	if err != nil {
		cls := smtp.Classify(err)
		return &smtpVerification{
			Status:   "failed",
			TLSMode:  string(res.TLSMode),
			Category: string(cls.Category),
			Error:    err.Error(),
		}
	}

	return &smtpVerification{
		Status:     "ok",
		TLSMode:    string(res.TLSMode),
		AuthMethod: res.AuthMethod,
	}
}
