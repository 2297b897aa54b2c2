package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatSVG, "SVG": FormatSVG, " svgz ": FormatSVGZ, "pdf": FormatPDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("png")
	assert.ErrorContains(t, err, "png")
	assert.Equal(t, ".svgz", FormatSVGZ.Ext())
}
