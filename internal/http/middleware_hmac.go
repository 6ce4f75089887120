package httpx

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
)

// Provider webhook signature headers.
const (
	shopifyHmacHeader  = "X-Shopify-Hmac-Sha256"
	rechargeHmacHeader = "X-Recharge-Hmac-Sha256"
)

// maxBodyReader wraps the request body so oversized payloads fail the read
// instead of exhausting memory.
func maxBodyReader(w http.ResponseWriter, r *http.Request, limit int64) io.ReadCloser {
	if limit <= 0 {
		return r.Body
	}
	return http.MaxBytesReader(w, r.Body, limit)
}

// readRawBody consumes the request body up to limit bytes and rewinds it so
// downstream handlers can decode it again. HMAC verification must cover the
// raw bytes exactly as delivered.
func readRawBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(maxBodyReader(w, r, limit))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func computeHmacSHA256(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// verifyShopifyHmac checks the platform's base64-encoded HMAC-SHA256 of the
// raw body.
func verifyShopifyHmac(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	return hmac.Equal(got, computeHmacSHA256(secret, body))
}

// verifyRechargeHmac checks the billing provider's hex-encoded HMAC-SHA256 of
// the raw body.
func verifyRechargeHmac(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	want := hex.EncodeToString(computeHmacSHA256(secret, body))
	return subtle.ConstantTimeCompare([]byte(header), []byte(want)) == 1
}

// WebhookAuthOptions configures the signature-verification middleware.
type WebhookAuthOptions struct {
	Secret       string
	Header       string
	Verify       func(secret string, body []byte, header string) bool
	MaxBodyBytes int64
}

// webhookAuth wraps a webhook handler with raw-body signature verification.
// An empty secret disables verification, which is only acceptable in dev.
func webhookAuth(opts WebhookAuthOptions, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readRawBody(w, r, opts.MaxBodyBytes)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusRequestEntityTooLarge,
				ErrCode: "body_too_large",
				Err:     errors.New("request body exceeds limit"),
			})
			return
		}

		if opts.Secret != "" && !opts.Verify(opts.Secret, body, r.Header.Get(opts.Header)) {
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: "invalid_signature",
				Err:     errors.New("webhook signature verification failed"),
			})
			return
		}
		next(w, r)
	}
}
