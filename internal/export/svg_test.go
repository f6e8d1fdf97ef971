package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePath(t *testing.T) {
	var b strings.Builder
	opts := DefaultPathOptions()
	require.NoError(t, WritePath(&b, []float64{0, 1, 1}, []float64{0, 0, 1}, opts))

	svg := b.String()
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="480"`)
	assert.Contains(t, svg, `d="M`)
	assert.Equal(t, 2, strings.Count(svg, " L"))
	assert.Contains(t, svg, "<circle")
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
}

func TestWritePathRejectsBadInput(t *testing.T) {
	var b strings.Builder
	assert.Error(t, WritePath(&b, []float64{0}, []float64{0}, DefaultPathOptions()))
	assert.Error(t, WritePath(&b, []float64{0, 1}, []float64{0}, DefaultPathOptions()))
	assert.Empty(t, b.String())
}
