package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPISource []byte

// loadOpenAPI parses and validates the embedded API description and returns
// it rendered as JSON.
func loadOpenAPI(ctx context.Context) (*openapi3.T, []byte, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(openAPISource)
	if err != nil {
		return nil, nil, fmt.Errorf("server: load openapi: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, nil, fmt.Errorf("server: validate openapi: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("server: encode openapi: %w", err)
	}
	return doc, data, nil
}
