package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "putu-ayu", Slugify("Putu Ayu"))
	assert.Equal(t, "made-co", Slugify("  Made & Co.  "))
	assert.Equal(t, "wayan-123", Slugify("Wayan 123!"))
}

func TestUniqueSlugDiffersPerCall(t *testing.T) {
	a := UniqueSlug("Putu Ayu")
	b := UniqueSlug("Putu Ayu")

	assert.True(t, strings.HasPrefix(a, "putu-ayu-"))
	assert.NotEqual(t, a, b, "two guests with the same name get distinct slugs")
}
