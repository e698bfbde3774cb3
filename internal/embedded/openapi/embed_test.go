package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecJSON(t *testing.T) {
	data, err := SpecJSON()
	require.NoError(t, err)

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Contains(t, doc.Paths["/sync/{category}"], "post")
	assert.Contains(t, doc.Paths["/sync/runs"], "get")
	assert.Contains(t, doc.Paths, "/health")
}
