// internal/catalog/static.go
package catalog

import (
	"context"
	_ "embed"
)

//go:embed sample_envelope.json
var sampleEnvelope []byte

// StaticSource serves a fixed envelope per product id and an empty one for
// any other id. It backs local runs when no options backend is configured.
type StaticSource struct {
	envelopes map[string][]byte
}

func NewStaticSource(envelopes map[string][]byte) *StaticSource {
	return &StaticSource{envelopes: envelopes}
}

// NewSampleSource serves the bundled sample catalog for productID.
func NewSampleSource(productID string) *StaticSource {
	return NewStaticSource(map[string][]byte{productID: sampleEnvelope})
}

func (s *StaticSource) Fetch(ctx context.Context, productID, selectedOptions string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if body, ok := s.envelopes[productID]; ok {
		return body, nil
	}
	return []byte(`{}`), nil
}
