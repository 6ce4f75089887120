package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// RechargeQuery describes a single billing-provider API call to be executed
// asynchronously by the job worker. It is the payload of a recharge_query job.
type RechargeQuery struct {
	Method string            `json:"method"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
	Body   json.RawMessage   `json:"body,omitempty"`
}

// Validate validates the RechargeQuery fields.
func (q *RechargeQuery) Validate() error {
	switch strings.ToUpper(q.Method) {
	case "GET", "POST", "PUT", "DELETE":
	default:
		return errors.New("method must be one of GET, POST, PUT, DELETE")
	}
	if q.Path == "" || !strings.HasPrefix(q.Path, "/") {
		return errors.New("path is required and must start with /")
	}
	return nil
}
