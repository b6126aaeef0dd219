package persistence

import (
	"encoding/json"
	"fmt"
)

// Encode converts a typed model into a stored document via its JSON form.
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	return doc, nil
}

// Decode converts a stored document back into a typed model.
func Decode[T any](doc Document) (*T, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	return out, nil
}

// DecodeAll converts a document slice into typed models, preserving order.
func DecodeAll[T any](docs []Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))

	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}
