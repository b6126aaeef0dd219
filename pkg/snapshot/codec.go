package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// formatSchema describes the wire shape of a snapshot. Decoding validates
// against it before unmarshalling so a truncated or hand-edited export fails
// with a shape error instead of silently dropping collections.
const formatSchema = `{
	"type": "object",
	"required": [
		"metadata",
		"beans", "grinders", "brewers", "water_profiles",
		"recipes", "folders", "tags",
		"folder_memberships", "tag_memberships"
	],
	"properties": {
		"metadata": {
			"type": "object",
			"required": ["version", "exported_at", "owner_id", "total_items"],
			"properties": {
				"version": {"type": "string"},
				"exported_at": {"type": "string"},
				"owner_id": {"type": "string"},
				"total_items": {"type": "integer"}
			}
		},
		"beans": {"type": "array"},
		"grinders": {"type": "array"},
		"brewers": {"type": "array"},
		"water_profiles": {"type": "array"},
		"recipes": {"type": "array"},
		"folders": {"type": "array"},
		"tags": {"type": "array"},
		"folder_memberships": {"type": "array"},
		"tag_memberships": {"type": "array"}
	}
}`

// Encode serializes a snapshot to its portable JSON form.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return data, nil
}

// Decode parses a snapshot from its JSON form, validating the overall shape
// first. Format version compatibility is checked separately by Validate so
// restore can report it as a structured result.
func Decode(data []byte) (*Snapshot, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(formatSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate snapshot: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrMissingCollection, strings.Join(details, "; "))
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &s, nil
}
