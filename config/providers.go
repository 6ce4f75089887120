package config

import "time"

// RechargeConfig contains billing provider (Recharge) configuration.
type RechargeConfig struct {
	// APIBase is the base URL for the Recharge REST API.
	APIBase string `env:"API_BASE" envDefault:"https://api.rechargeapps.com"`

	// APIToken authenticates outbound API calls.
	APIToken string `env:"API_TOKEN"`

	// WebhookSecret verifies inbound webhook signatures
	// (hex SHA-256 over secret + raw body).
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// RequestTimeout bounds a single API call made by the worker.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// ShopifyConfig contains commerce platform (Shopify) configuration.
type ShopifyConfig struct {
	// ShopDomain is the myshopify domain of the store (e.g. "example.myshopify.com").
	ShopDomain string `env:"SHOP_DOMAIN"`

	// WebhookSecret verifies inbound webhook signatures
	// (base64 HMAC-SHA256 over the raw body).
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

// DeliveryConfig contains delivery calendar configuration.
type DeliveryConfig struct {
	// Timezone is the IANA timezone the delivery calendar operates in.
	// Date-only comparisons are normalized against this zone.
	Timezone string `env:"DELIVERY_TZ" envDefault:"Pacific/Auckland"`
}

// Sanitize applies guardrails to delivery configuration values.
func (d *DeliveryConfig) Sanitize() {
	if d.Timezone == "" {
		d.Timezone = "Pacific/Auckland"
	}
}
