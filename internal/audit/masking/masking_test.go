package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("AB12"))
	assert.Equal(t, "****T123", MaskSecret("TEST123"))
}

func TestMaskMetadataOnlyMasksSensitiveKeys(t *testing.T) {
	email := "raphael@example.com"
	out := MaskMetadata(map[string]any{
		"badge_uid": "TEST123",
		"email":     &email,
		"name":      "Raphael",
		"nested":    map[string]any{"badge_uid": "BLOCK999"},
		"":          "dropped",
	})

	assert.Equal(t, "****T123", out["badge_uid"])
	assert.Equal(t, "****.com", out["email"])
	assert.Equal(t, "Raphael", out["name"])
	assert.Equal(t, map[string]any{"badge_uid": "****K999"}, out["nested"])
	assert.NotContains(t, out, "")
	assert.Nil(t, MaskMetadata(nil))
}
