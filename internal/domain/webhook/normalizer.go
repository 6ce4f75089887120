package webhook

import (
	"encoding/json"
	"fmt"
)

// Event is the canonical record produced from a raw webhook body. It is
// transient: produced and consumed within a single webhook-processing call
// and persisted only as an audit side effect. Control flow (pending-update
// correlation) reads the typed payloads directly, not this record.
type Event struct {
	Topic  Topic          `json:"topic"`
	Source Source         `json:"source"`
	Meta   map[Family]any `json:"meta"`
}

// OrderMeta is the normalized digest of an order payload, from either source.
type OrderMeta struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number,omitempty"`
	CustomerID int64      `json:"customer_id,omitempty"`
	Email      string     `json:"email,omitempty"`
	Boxes      BoxSummary `json:"boxes"`
}

// ChargeMeta is the normalized digest of a billing charge payload.
type ChargeMeta struct {
	ID          int64      `json:"id"`
	CustomerID  int64      `json:"customer_id,omitempty"`
	AddressID   int64      `json:"address_id,omitempty"`
	ScheduledAt string     `json:"scheduled_at,omitempty"`
	Status      string     `json:"status,omitempty"`
	Boxes       BoxSummary `json:"boxes"`
}

// SubscriptionMeta is the normalized digest of a subscription payload.
type SubscriptionMeta struct {
	ID                    int64             `json:"id"`
	CustomerID            int64             `json:"customer_id,omitempty"`
	AddressID             int64             `json:"address_id,omitempty"`
	NextChargeScheduledAt string            `json:"next_charge_scheduled_at,omitempty"`
	Properties            map[string]string `json:"properties,omitempty"`
}

// ProductMeta is the normalized digest of a catalog product payload.
type ProductMeta struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
	Tags  string `json:"tags,omitempty"`
}

// AsyncBatchMeta is the normalized digest of an async batch status payload.
type AsyncBatchMeta struct {
	ID        int64  `json:"id"`
	BatchType string `json:"batch_type,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Normalize parses a raw webhook body into a canonical Event. It is pure and
// total over the declared topic families: any declared (topic, source) pair
// with a parseable body yields an event, and an undeclared topic returns
// ErrUnknownTopic.
func Normalize(topic Topic, source Source, raw []byte) (*Event, error) {
	family, err := topic.Family()
	if err != nil {
		return nil, err
	}

	var meta any
	switch family {
	case FamilyOrder:
		meta, err = normalizeOrder(source, raw)
	case FamilyCharge:
		meta, err = normalizeCharge(raw)
	case FamilySubscription:
		meta, err = normalizeSubscription(raw)
	case FamilyProduct:
		meta, err = normalizeProduct(raw)
	case FamilyAsyncBatch:
		meta, err = normalizeAsyncBatch(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", family, err)
	}

	return &Event{
		Topic:  topic,
		Source: source,
		Meta:   map[Family]any{family: meta},
	}, nil
}

// Order returns the normalized order digest when this event carries one.
func (e *Event) Order() (OrderMeta, bool) {
	m, ok := e.Meta[FamilyOrder].(OrderMeta)
	return m, ok
}

// Charge returns the normalized charge digest when this event carries one.
func (e *Event) Charge() (ChargeMeta, bool) {
	m, ok := e.Meta[FamilyCharge].(ChargeMeta)
	return m, ok
}

// Subscription returns the normalized subscription digest when this event carries one.
func (e *Event) Subscription() (SubscriptionMeta, bool) {
	m, ok := e.Meta[FamilySubscription].(SubscriptionMeta)
	return m, ok
}

// Product returns the normalized product digest when this event carries one.
func (e *Event) Product() (ProductMeta, bool) {
	m, ok := e.Meta[FamilyProduct].(ProductMeta)
	return m, ok
}

// AsyncBatch returns the normalized batch digest when this event carries one.
func (e *Event) AsyncBatch() (AsyncBatchMeta, bool) {
	m, ok := e.Meta[FamilyAsyncBatch].(AsyncBatchMeta)
	return m, ok
}

// unwrap returns the payload under key when the body arrived as an envelope
// ({"order": {...}}), falling back to the body itself for the bare form.
// Both forms must normalize identically.
func unwrap(raw []byte, key string) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	inner, ok := envelope[key]
	if !ok || len(inner) == 0 || inner[0] != '{' {
		return raw
	}
	return inner
}

// platformOrder is the commerce platform's order shape.
type platformOrder struct {
	ID          int64  `json:"id"`
	OrderNumber int64  `json:"order_number"`
	Email       string `json:"email"`
	Customer    struct {
		ID int64 `json:"id"`
	} `json:"customer"`
	LineItems []LineItem `json:"line_items"`
}

// billingOrder is the billing provider's order shape. The same topic prefix
// carries a structurally different payload than the platform's.
type billingOrder struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	Email      string     `json:"email"`
	LineItems  []LineItem `json:"line_items"`
}

func normalizeOrder(source Source, raw []byte) (OrderMeta, error) {
	body := unwrap(raw, string(FamilyOrder))

	if source == SourcePlatform {
		var o platformOrder
		if err := json.Unmarshal(body, &o); err != nil {
			return OrderMeta{}, fmt.Errorf("decode platform order: %w", err)
		}
		return OrderMeta{
			ID:         o.ID,
			Number:     fmt.Sprintf("%d", o.OrderNumber),
			CustomerID: o.Customer.ID,
			Email:      o.Email,
			Boxes:      SummarizeBoxItems(o.LineItems),
		}, nil
	}

	var o billingOrder
	if err := json.Unmarshal(body, &o); err != nil {
		return OrderMeta{}, fmt.Errorf("decode billing order: %w", err)
	}
	return OrderMeta{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Email:      o.Email,
		Boxes:      SummarizeBoxItems(o.LineItems),
	}, nil
}

type billingCharge struct {
	ID          int64      `json:"id"`
	CustomerID  int64      `json:"customer_id"`
	AddressID   int64      `json:"address_id"`
	ScheduledAt string     `json:"scheduled_at"`
	Status      string     `json:"status"`
	LineItems   []LineItem `json:"line_items"`
}

func normalizeCharge(raw []byte) (ChargeMeta, error) {
	body := unwrap(raw, string(FamilyCharge))

	var c billingCharge
	if err := json.Unmarshal(body, &c); err != nil {
		return ChargeMeta{}, fmt.Errorf("decode charge: %w", err)
	}
	return ChargeMeta{
		ID:          c.ID,
		CustomerID:  c.CustomerID,
		AddressID:   c.AddressID,
		ScheduledAt: c.ScheduledAt,
		Status:      c.Status,
		Boxes:       SummarizeBoxItems(c.LineItems),
	}, nil
}

type billingSubscription struct {
	ID                    int64      `json:"id"`
	CustomerID            int64      `json:"customer_id"`
	AddressID             int64      `json:"address_id"`
	NextChargeScheduledAt string     `json:"next_charge_scheduled_at"`
	Properties            []Property `json:"properties"`
}

func normalizeSubscription(raw []byte) (SubscriptionMeta, error) {
	body := unwrap(raw, string(FamilySubscription))

	var s billingSubscription
	if err := json.Unmarshal(body, &s); err != nil {
		return SubscriptionMeta{}, fmt.Errorf("decode subscription: %w", err)
	}
	return SubscriptionMeta{
		ID:                    s.ID,
		CustomerID:            s.CustomerID,
		AddressID:             s.AddressID,
		NextChargeScheduledAt: s.NextChargeScheduledAt,
		Properties:            FlattenProperties(s.Properties),
	}, nil
}

type platformProduct struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Tags  string `json:"tags"`
}

func normalizeProduct(raw []byte) (ProductMeta, error) {
	body := unwrap(raw, string(FamilyProduct))

	var p platformProduct
	if err := json.Unmarshal(body, &p); err != nil {
		return ProductMeta{}, fmt.Errorf("decode product: %w", err)
	}
	return ProductMeta{ID: p.ID, Title: p.Title, Tags: p.Tags}, nil
}

type billingAsyncBatch struct {
	ID        int64  `json:"id"`
	BatchType string `json:"batch_type"`
	Status    string `json:"status"`
}

func normalizeAsyncBatch(raw []byte) (AsyncBatchMeta, error) {
	body := unwrap(raw, string(FamilyAsyncBatch))

	var b billingAsyncBatch
	if err := json.Unmarshal(body, &b); err != nil {
		return AsyncBatchMeta{}, fmt.Errorf("decode async batch: %w", err)
	}
	return AsyncBatchMeta{ID: b.ID, BatchType: b.BatchType, Status: b.Status}, nil
}
