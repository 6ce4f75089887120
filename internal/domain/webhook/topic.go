// Package webhook normalizes heterogeneous inbound webhook payloads into
// canonical event records.
//
// Two upstream systems deliver webhooks: the commerce platform (Shopify) and
// the billing provider (Recharge). The same topic family can carry
// structurally different payloads depending on which system emitted it, so
// normalization is keyed on (topic, source) rather than topic alone.
package webhook

import (
	"errors"
	"fmt"
	"strings"
)

// Source identifies the system that emitted a webhook.
type Source string

const (
	// SourcePlatform is the commerce platform (Shopify).
	SourcePlatform Source = "shopify"
	// SourceBilling is the billing provider (Recharge).
	SourceBilling Source = "recharge"
)

// Valid returns true if the Source is a known envelope key.
func (s Source) Valid() bool {
	return s == SourcePlatform || s == SourceBilling
}

// Topic is the human-readable topic label delivered with a webhook,
// e.g. "charge/deleted" or "orders/create".
type Topic string

// Topics handled by the reconciliation core.
const (
	TopicChargeDeleted       Topic = "charge/deleted"
	TopicChargeCreated       Topic = "charge/created"
	TopicChargeUpcoming      Topic = "charge/upcoming"
	TopicOrderCreated        Topic = "orders/create"
	TopicOrderUpdated        Topic = "orders/updated"
	TopicOrderProcessed      Topic = "order/processed"
	TopicSubscriptionCreated Topic = "subscription/created"
	TopicSubscriptionUpdated Topic = "subscription/updated"
	TopicProductCreated      Topic = "products/create"
	TopicProductUpdated      Topic = "products/update"
	TopicAsyncBatch          Topic = "async_batch/processed"
)

// Valid returns true if the Topic is one of the declared constants. Family
// resolution is deliberately looser (prefix rules, so a provider can add
// sibling topics without breaking normalization); registration is not.
func (t Topic) Valid() bool {
	switch t {
	case TopicChargeDeleted, TopicChargeCreated, TopicChargeUpcoming,
		TopicOrderCreated, TopicOrderUpdated, TopicOrderProcessed,
		TopicSubscriptionCreated, TopicSubscriptionUpdated,
		TopicProductCreated, TopicProductUpdated, TopicAsyncBatch:
		return true
	}
	return false
}

// Family is the payload-shape family a topic resolves to. It doubles as the
// meta key of the normalized event (the display grouping key).
type Family string

const (
	FamilyOrder        Family = "order"
	FamilyCharge       Family = "charge"
	FamilySubscription Family = "subscription"
	FamilyProduct      Family = "product"
	FamilyAsyncBatch   Family = "async_batch"
)

// ErrUnknownTopic is returned when a topic resolves to no declared family.
var ErrUnknownTopic = errors.New("unknown webhook topic")

// Family resolves a topic to its payload family. Precedence mirrors the
// dispatch order of the system: the exact charge/deleted match is checked
// before any prefix rule, then product, order, charge, subscription, and
// async batch prefixes.
func (t Topic) Family() (Family, error) {
	s := string(t)
	switch {
	case t == TopicChargeDeleted:
		return FamilyCharge, nil
	case strings.HasPrefix(s, "product"):
		return FamilyProduct, nil
	case strings.HasPrefix(s, "order"):
		return FamilyOrder, nil
	case strings.HasPrefix(s, "charge"):
		return FamilyCharge, nil
	case strings.HasPrefix(s, "subscription"):
		return FamilySubscription, nil
	case strings.HasPrefix(s, "async"):
		return FamilyAsyncBatch, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTopic, s)
	}
}
