package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBase64(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func authedRequest(t *testing.T, opts WebhookAuthOptions, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	var captured []byte
	next := func(w http.ResponseWriter, r *http.Request) {
		b := make([]byte, len(body)+1)
		n, _ := r.Body.Read(b)
		captured = b[:n]
		w.WriteHeader(http.StatusOK)
	}

	r := httptest.NewRequest(http.MethodPost, "/webhooks/test", strings.NewReader(body))
	if signature != "" {
		r.Header.Set(opts.Header, signature)
	}
	w := httptest.NewRecorder()
	webhookAuth(opts, next)(w, r)

	if w.Code == http.StatusOK {
		// The handler must see the same raw bytes the signature covered.
		require.Equal(t, body, string(captured))
	}
	return w
}

func TestWebhookAuthShopifyValidSignature(t *testing.T) {
	body := `{"id":42}`
	opts := WebhookAuthOptions{
		Secret: "shh",
		Header: shopifyHmacHeader,
		Verify: verifyShopifyHmac,
	}

	w := authedRequest(t, opts, body, signBase64("shh", []byte(body)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAuthShopifyRejectsBadSignature(t *testing.T) {
	body := `{"id":42}`
	opts := WebhookAuthOptions{
		Secret: "shh",
		Header: shopifyHmacHeader,
		Verify: verifyShopifyHmac,
	}

	w := authedRequest(t, opts, body, signBase64("wrong-secret", []byte(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_signature")
}

func TestWebhookAuthShopifyRejectsMissingSignature(t *testing.T) {
	opts := WebhookAuthOptions{
		Secret: "shh",
		Header: shopifyHmacHeader,
		Verify: verifyShopifyHmac,
	}

	w := authedRequest(t, opts, `{"id":42}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAuthShopifyRejectsTamperedBody(t *testing.T) {
	opts := WebhookAuthOptions{
		Secret: "shh",
		Header: shopifyHmacHeader,
		Verify: verifyShopifyHmac,
	}

	sig := signBase64("shh", []byte(`{"id":42}`))
	w := authedRequest(t, opts, `{"id":43}`, sig)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAuthRechargeValidSignature(t *testing.T) {
	body := `{"charge":{"id":7}}`
	opts := WebhookAuthOptions{
		Secret: "billing-secret",
		Header: rechargeHmacHeader,
		Verify: verifyRechargeHmac,
	}

	w := authedRequest(t, opts, body, signHex("billing-secret", []byte(body)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAuthRechargeRejectsBase64Signature(t *testing.T) {
	// The billing provider signs with hex; a base64 digest must not pass.
	body := `{"charge":{"id":7}}`
	opts := WebhookAuthOptions{
		Secret: "billing-secret",
		Header: rechargeHmacHeader,
		Verify: verifyRechargeHmac,
	}

	w := authedRequest(t, opts, body, signBase64("billing-secret", []byte(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAuthEmptySecretSkipsVerification(t *testing.T) {
	opts := WebhookAuthOptions{
		Secret: "",
		Header: shopifyHmacHeader,
		Verify: verifyShopifyHmac,
	}

	w := authedRequest(t, opts, `{"id":42}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookAuthOversizeBody(t *testing.T) {
	body := strings.Repeat("a", 100)
	opts := WebhookAuthOptions{
		Secret:       "shh",
		Header:       shopifyHmacHeader,
		Verify:       verifyShopifyHmac,
		MaxBodyBytes: 10,
	}

	w := authedRequest(t, opts, body, signBase64("shh", []byte(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "body_too_large")
}
