package contract

import (
	"encoding/json"
	"errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// NullableBool tells an absent field apart from an explicit null.
type NullableBool struct {
	Set   bool
	Value *bool
}

func (n *NullableBool) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}

	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.New("expected a boolean or null")
	}
	n.Value = &v
	return nil
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}
