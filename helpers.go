package freeathome

import (
	"encoding/json"
	"fmt"
)

// unmarshalResponse unmarshals JSON data with consistent error formatting.
// This helper reduces boilerplate across all API response parsing.
func unmarshalResponse[T any](data []byte, resourceName string) (*T, error) {
	var resp T
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v (body: %s)",
			ErrInvalidAPIResponse, resourceName, err, truncatePreview(data))
	}
	return &resp, nil
}

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// sysAPEntry extracts the per-SysAP body from a response envelope keyed by
// system identifier.
func (c *Client) sysAPEntry(data []byte, resourceName string) (json.RawMessage, error) {
	envelope, err := unmarshalResponse[map[string]json.RawMessage](data, resourceName)
	if err != nil {
		return nil, err
	}

	entry, ok := (*envelope)[c.sysAPUUID]
	if !ok {
		return nil, fmt.Errorf("%w: %s response has no entry for sysap %s",
			ErrInvalidAPIResponse, resourceName, c.sysAPUUID)
	}

	return entry, nil
}
