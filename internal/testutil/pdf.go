package testutil

import (
	"bytes"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/require"
)

// PageSizes reads a PDF back and returns each page's MediaBox width and
// height, in page order.
func PageSizes(t testing.TB, data []byte) [][2]float64 {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var sizes [][2]float64
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		box := page.V.Key("MediaBox")
		if box.IsNull() {
			box = page.V.Key("Parent").Key("MediaBox")
		}
		require.Equal(t, 4, box.Len(), "page %d MediaBox", i)
		sizes = append(sizes, [2]float64{box.Index(2).Float64(), box.Index(3).Float64()})
	}
	return sizes
}
