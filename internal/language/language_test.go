package language_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatnslate/internal/language"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want language.Code
	}{
		{"en", "en"},
		{"ES", "es"},
		{" fr ", "fr"},
		{"en-US", "en"},
		{"pt_BR", "pt"},
		{"zh-Hans", "zh"},
		{"", "en"},
		{"tlh", "en"},
		{"xx-YY", "en"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, language.Normalize(c.in), "input %q", c.in)
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, language.IsSupported("en"))
	assert.True(t, language.IsSupported("pa"))
	assert.False(t, language.IsSupported("EN"))
	assert.False(t, language.IsSupported("xx"))
	assert.False(t, language.IsSupported(""))
}

func TestName(t *testing.T) {
	assert.Equal(t, "Spanish", language.Name("es"))
	assert.Equal(t, "zz", language.Name("zz"))
}
