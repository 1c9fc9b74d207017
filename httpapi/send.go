package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/relaykit/core/mail"
	"github.com/dmitrymomot/relaykit/core/smtp"
	"github.com/dmitrymomot/relaykit/core/template"
	"github.com/dmitrymomot/relaykit/pkg/ratelimiter"
)

type sendRequest struct {
	To          string            `json:"to"`
	Subject     string            `json:"subject,omitempty"`
	Text        string            `json:"text,omitempty"`
	HTML        string            `json:"html,omitempty"`
	TemplateKey string            `json:"template_key,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
}

type sendResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	TLSMode       string `json:"tls_mode"`
	AuthMethod    string `json:"auth_method"`
	Attempts      int    `json:"attempts"`
	ElapsedMS     int64  `json:"elapsed_ms"`
	LastReplyCode int    `json:"last_reply_code"`
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.To = strings.TrimSpace(req.To)
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "recipient is required")
		return
	}

	ctx := r.Context()

	if h.suppression != nil {
		suppressed, err := h.suppression.IsSuppressed(ctx, req.To)
		if err != nil {
			h.log.ErrorContext(ctx, "suppression check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "suppression list unavailable")
			return
		}
		if suppressed {
			writeError(w, http.StatusUnprocessableEntity, "recipient is suppressed")
			return
		}
	}

	if h.limiter != nil {
		if err := h.limiter.Allow(req.To); err != nil {
			if errors.Is(err, ratelimiter.ErrInvalidRecipient) {
				writeError(w, http.StatusBadRequest, "invalid recipient address")
				return
			}
			writeError(w, http.StatusTooManyRequests, "send rate exceeded, retry later")
			return
		}
	}

	msg, err := h.buildMessage(r, req)
	if err != nil {
		switch {
		case errors.Is(err, template.ErrTemplateNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, template.ErrMissingVariable), errors.Is(err, template.ErrInvalidKey):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	cfg, err := h.source.SMTPConfig(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "no relay configuration available", "error", err)
		writeError(w, http.StatusServiceUnavailable, "relay configuration unavailable")
		return
	}

	res, err := h.sender.Send(ctx, cfg, msg)
	if err != nil {
		cls := smtp.Classify(err)
		status := http.StatusBadGateway
		if cls.Transient {
			status = http.StatusGatewayTimeout
		}
		if errors.Is(err, mail.ErrInvalidMessage) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{
			Error:      err.Error(),
			Category:   string(cls.Category),
			Suggestion: cls.Suggestion,
		})
		return
	}

	writeJSON(w, http.StatusOK, sendResponse{
		ID:            res.ID,
		Status:        "delivered",
		TLSMode:       string(res.TLSMode),
		AuthMethod:    res.AuthMethod,
		Attempts:      res.Attempts,
		ElapsedMS:     res.Elapsed.Milliseconds(),
		LastReplyCode: res.LastReplyCode,
	})
}

// buildMessage assembles the outgoing message either from a stored template
// or from the literal subject and bodies on the request. A request subject
// overrides the template's.
func (h *Handler) buildMessage(r *http.Request, req sendRequest) (mail.Message, error) {
	msg := mail.Message{
		From:    h.defaultFrom,
		To:      req.To,
		Subject: req.Subject,
		Text:    req.Text,
		HTML:    req.HTML,
	}

	if req.TemplateKey == "" {
		return msg, nil
	}
	if h.templates == nil {
		return mail.Message{}, errors.New("template sends are not configured")
	}

	tpl, err := h.templates.Resolve(r.Context(), req.TemplateKey, req.Variables)
	if err != nil {
		return mail.Message{}, err
	}

	if msg.Subject == "" {
		msg.Subject = tpl.Subject
	}
	msg.Text = tpl.Text
	msg.HTML = tpl.HTML
	return msg, nil
}
