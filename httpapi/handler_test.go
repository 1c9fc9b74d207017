package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relaykit/core/delivery"
	"github.com/dmitrymomot/relaykit/core/mail"
	"github.com/dmitrymomot/relaykit/core/smtp"
	"github.com/dmitrymomot/relaykit/core/template"
	"github.com/dmitrymomot/relaykit/httpapi"
	"github.com/dmitrymomot/relaykit/pkg/ratelimiter"
)

type stubSender struct {
	sendRes   delivery.Result
	sendErr   error
	verifyRes delivery.Result
	verifyErr error

	lastMsg mail.Message
	sends   int
}

func (s *stubSender) Send(_ context.Context, _ smtp.Config, msg mail.Message) (delivery.Result, error) {
	s.sends++
	s.lastMsg = msg
	return s.sendRes, s.sendErr
}

func (s *stubSender) Verify(context.Context, smtp.Config) (delivery.Result, error) {
	return s.verifyRes, s.verifyErr
}

func staticSource(cfg smtp.Config) delivery.ConfigSource {
	return delivery.SourceFunc(func(context.Context) (smtp.Config, error) {
		return cfg, nil
	})
}

func validConfig() smtp.Config {
	return smtp.Config{Host: "smtp.example.com", Port: 587, Username: "u@example.com", Password: "p"}
}

type stubSuppression struct {
	suppressed map[string]bool
	err        error
}

func (s stubSuppression) IsSuppressed(_ context.Context, recipient string) (bool, error) {
	return s.suppressed[recipient], s.err
}

func postSend(t *testing.T, h http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/send", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleSend_Success(t *testing.T) {
	t.Parallel()

	sender := &stubSender{
		sendRes: delivery.Result{
			ID:            "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			TLSMode:       smtp.TLSModeSTARTTLS,
			AuthMethod:    smtp.AuthMethodPlain,
			Attempts:      1,
			Elapsed:       120 * time.Millisecond,
			LastReplyCode: 250,
		},
	}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com")

	w := postSend(t, h.Router(), map[string]any{
		"to":      "user@example.com",
		"subject": "Hi",
		"text":    "Hello!",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "delivered", resp["status"])
	assert.Equal(t, "starttls", resp["tls_mode"])
	assert.Equal(t, "PLAIN", resp["auth_method"])
	assert.EqualValues(t, 250, resp["last_reply_code"])

	assert.Equal(t, "noreply@example.com", sender.lastMsg.From)
	assert.Equal(t, "user@example.com", sender.lastMsg.To)
}

func TestHandleSend_InvalidPayload(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com").Router()

	req := httptest.NewRequest(http.MethodPost, "/send", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postSend(t, h, map[string]any{"subject": "no recipient"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, sender.sends)
}

func TestHandleSend_SuppressedRecipient(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com",
		httpapi.WithSuppression(stubSuppression{suppressed: map[string]bool{"user@example.com": true}}),
	).Router()

	w := postSend(t, h, map[string]any{"to": "user@example.com", "subject": "s", "text": "b"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, sender.sends, "suppressed recipients never reach the relay")

	w = postSend(t, h, map[string]any{"to": "other@example.com", "subject": "s", "text": "b"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleSend_RateLimited(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	limiter := ratelimiter.New(ratelimiter.WithGlobalRate(1, 1))
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com",
		httpapi.WithRateLimiter(limiter),
	).Router()

	w := postSend(t, h, map[string]any{"to": "user@example.com", "subject": "s", "text": "b"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postSend(t, h, map[string]any{"to": "user@example.com", "subject": "s", "text": "b"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHandleSend_ClassifiedFailure(t *testing.T) {
	t.Parallel()

	sender := &stubSender{sendErr: smtp.ErrAuthFailed}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com").Router()

	w := postSend(t, h, map[string]any{"to": "user@example.com", "subject": "s", "text": "b"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "auth", resp["category"])
	assert.Contains(t, resp["suggestion"], "App Password")
}

func TestHandleSend_TransientFailureMapsTo504(t *testing.T) {
	t.Parallel()

	sender := &stubSender{sendErr: smtp.ErrConnectionDropped}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com").Router()

	w := postSend(t, h, map[string]any{"to": "user@example.com", "subject": "s", "text": "b"})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestHandleSend_TemplateResolution(t *testing.T) {
	t.Parallel()

	store := tplStore{
		"welcome": {Key: "welcome", Subject: "Welcome, {{name}}!", Text: "Hello {{name}}\r\n"},
	}
	sender := &stubSender{}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com",
		httpapi.WithTemplates(template.NewResolver(store, template.WithStrictMode(true))),
	).Router()

	w := postSend(t, h, map[string]any{
		"to":           "user@example.com",
		"template_key": "welcome",
		"variables":    map[string]string{"name": "Ada"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome, Ada!", sender.lastMsg.Subject)
	assert.Equal(t, "Hello Ada\r\n", sender.lastMsg.Text)

	w = postSend(t, h, map[string]any{"to": "user@example.com", "template_key": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postSend(t, h, map[string]any{"to": "user@example.com", "template_key": "welcome"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "strict mode rejects unresolved variables")
}

type tplStore map[string]template.Template

func (s tplStore) GetTemplate(_ context.Context, key string) (template.Template, error) {
	tpl, ok := s[key]
	if !ok {
		return template.Template{}, template.ErrTemplateNotFound
	}
	return tpl, nil
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com",
		httpapi.WithHealthcheck("postgres", func(context.Context) error { return nil }),
		httpapi.WithHealthcheck("redis", func(context.Context) error { return nil }),
	).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHandleHealth_DegradedDependency(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com",
		httpapi.WithHealthcheck("postgres", func(context.Context) error { return errors.New("down") }),
	).Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleHealth_VerifySMTP(t *testing.T) {
	t.Parallel()

	sender := &stubSender{
		verifyRes: delivery.Result{TLSMode: smtp.TLSModeSTARTTLS, AuthMethod: smtp.AuthMethodLogin},
	}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com").Router()

	req := httptest.NewRequest(http.MethodGet, "/health?verify=smtp", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		SMTP struct {
			Status     string `json:"status"`
			TLSMode    string `json:"tls_mode"`
			AuthMethod string `json:"auth_method"`
		} `json:"smtp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.SMTP.Status)
	assert.Equal(t, "starttls", resp.SMTP.TLSMode)
	assert.Equal(t, "LOGIN", resp.SMTP.AuthMethod)
}

func TestHandleHealth_VerifySMTPFailure(t *testing.T) {
	t.Parallel()

	sender := &stubSender{verifyErr: smtp.ErrAuthFailed}
	h := httpapi.NewHandler(sender, staticSource(validConfig()), "noreply@example.com").Router()

	req := httptest.NewRequest(http.MethodGet, "/health?verify=smtp", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp struct {
		SMTP struct {
			Status   string `json:"status"`
			Category string `json:"category"`
		} `json:"smtp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.SMTP.Status)
	assert.Equal(t, "auth", resp.SMTP.Category)
}
