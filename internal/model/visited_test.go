package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "foo.com", NormalizeURL("https://www.Foo.com/"))
	assert.Equal(t, "foo.com", NormalizeURL("http://foo.com"))
	assert.Equal(t, "foo.com/contact", NormalizeURL("https://foo.com/contact/"))
	assert.Equal(t, "foo.com", NormalizeURL("  FOO.com  "))
	assert.Equal(t, "", NormalizeURL(""))
}

func TestNormalizeURL_SameKeyForVariants(t *testing.T) {
	variants := []string{
		"https://www.Foo.com/",
		"http://foo.com",
		"foo.com/",
		"WWW.FOO.COM",
	}
	for _, v := range variants {
		assert.Equal(t, "foo.com", NormalizeURL(v), v)
	}
}

func TestSiteOutcomeTerminal(t *testing.T) {
	assert.False(t, OutcomeVisiting.Terminal())
	assert.True(t, OutcomeFormSubmitted.Terminal())
	assert.True(t, OutcomeFormFailed.Terminal())
	assert.True(t, OutcomeVisited.Terminal())
}
