package webhook

import "encoding/json"

// Names of the line-item properties the reconciliation engine cares about.
const (
	PropIncluding         = "Including"
	PropDeliveryDate      = "Delivery Date"
	PropBoxSubscriptionID = "box_subscription_id"
	PropPurchaseItemID    = "purchase_item_id"
)

// Property is a single name/value pair attached to a line item. Values may be
// null on the wire; flattening coerces null to the empty string.
type Property struct {
	Name  string      `json:"name"`
	Value *FlexString `json:"value"`
}

// FlexString unmarshals a JSON string or number into a string. Provider
// payloads are inconsistent about quoting identifiers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// LineItem is the shared slice of order/charge/subscription line items the
// normalizer reads: a title plus an ordered property list.
type LineItem struct {
	Title      string     `json:"title"`
	Properties []Property `json:"properties"`
}

// FlattenProperties converts an ordered property list into a name -> value
// mapping. Null values become empty strings; on duplicate names the last
// value in encountered order wins.
func FlattenProperties(props []Property) map[string]string {
	out := make(map[string]string, len(props))
	for _, p := range props {
		if p.Value == nil {
			out[p.Name] = ""
			continue
		}
		out[p.Name] = string(*p.Value)
	}
	return out
}

// BoxSummary is the digest of box-bearing line items in a payload.
type BoxSummary struct {
	// Titles are the distinct box titles, in encountered order.
	Titles []string `json:"titles"`
	// SubscriptionIDs are the distinct box_subscription_id / purchase_item_id
	// property values found on box items.
	SubscriptionIDs []string `json:"subscription_ids"`
	// DeliverAt is the Delivery Date property of the box items; when several
	// items carry one, the last in encountered order wins.
	DeliverAt string `json:"deliver_at,omitempty"`
}

// SummarizeBoxItems identifies box line items (those carrying an "Including"
// property) and digests their titles, subscription identifiers, and delivery
// date.
func SummarizeBoxItems(items []LineItem) BoxSummary {
	var summary BoxSummary
	seenTitles := make(map[string]struct{})
	seenIDs := make(map[string]struct{})

	for _, item := range items {
		props := FlattenProperties(item.Properties)
		if _, isBox := props[PropIncluding]; !isBox {
			continue
		}

		if _, dup := seenTitles[item.Title]; !dup && item.Title != "" {
			seenTitles[item.Title] = struct{}{}
			summary.Titles = append(summary.Titles, item.Title)
		}

		for _, key := range []string{PropBoxSubscriptionID, PropPurchaseItemID} {
			id, ok := props[key]
			if !ok || id == "" {
				continue
			}
			if _, dup := seenIDs[id]; !dup {
				seenIDs[id] = struct{}{}
				summary.SubscriptionIDs = append(summary.SubscriptionIDs, id)
			}
		}

		if deliverAt, ok := props[PropDeliveryDate]; ok {
			summary.DeliverAt = deliverAt
		}
	}
	return summary
}
