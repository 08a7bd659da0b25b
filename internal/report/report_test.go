package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRatio(t *testing.T) {
	tests := []struct {
		name     string
		original int64
		final    int64
		expected Ratio
		text     string
	}{
		{name: "smaller", original: 1000, final: 575, expected: Ratio{Percent: 42.5, Valid: true}, text: "42.5% smaller"},
		{name: "rounded", original: 3, final: 1, expected: Ratio{Percent: 66.7, Valid: true}, text: "66.7% smaller"},
		{name: "unchanged", original: 100, final: 100, expected: Ratio{Percent: 0, Valid: true}, text: "0.0% smaller"},
		{name: "increase", original: 100, final: 112, expected: Ratio{Percent: -12, Valid: true}, text: "12.0% larger"},
		{name: "no input", original: 0, final: 50, expected: Ratio{}, text: "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio := NewRatio(tt.original, tt.final)
			assert.Equal(t, tt.expected, ratio)
			assert.Equal(t, tt.text, ratio.String())
		})
	}
}

func TestRatio_IncreaseIsNotAnError(t *testing.T) {
	r := Calculate([]int64{100}, 250, []ImageMeta{{Format: "PNG", Width: 1, Height: 1, Bytes: 100}})
	assert.True(t, r.Ratio.Valid)
	assert.True(t, r.Ratio.Increase())
	assert.Equal(t, -150.0, r.Ratio.Percent)
}

func TestRatio_JSON(t *testing.T) {
	data, err := json.Marshal(Ratio{Percent: 12.5, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(data))

	data, err = json.Marshal(Ratio{})
	require.NoError(t, err)
	assert.Equal(t, `"n/a"`, string(data))

	var r Ratio
	require.NoError(t, json.Unmarshal([]byte(`"n/a"`), &r))
	assert.False(t, r.Valid)
	require.NoError(t, json.Unmarshal([]byte(`-3.2`), &r))
	assert.Equal(t, Ratio{Percent: -3.2, Valid: true}, r)
	assert.Error(t, json.Unmarshal([]byte(`"lots"`), &r))
}

func TestCalculate_SumsRawSizes(t *testing.T) {
	meta := []ImageMeta{
		{Format: "PNG", Width: 10, Height: 10, Bytes: 200000},
		{Format: "PNG", Width: 20, Height: 10, Bytes: 300000},
		{Format: "PNG", Width: 30, Height: 10, Bytes: 100000},
	}
	r := Calculate([]int64{200000, 300000, 100000}, 150000, meta)

	assert.Equal(t, int64(600000), r.OriginalTotalBytes)
	assert.Equal(t, 3, r.ImageCount)
	assert.Equal(t, 75.0, r.Ratio.Percent)
	assert.Equal(t, meta, r.PerImage)

	_, single := r.Single()
	assert.False(t, single)
}

func TestSummary(t *testing.T) {
	t.Run("single image", func(t *testing.T) {
		r := Calculate([]int64{2048}, 1024, []ImageMeta{{Format: "JPEG", Width: 800, Height: 600, Bytes: 2048}})
		assert.Equal(t,
			"Image: JPEG 800x600\nOriginal: 2.00 KB\nPDF: 1.00 KB\nCompression: 50.0% smaller",
			r.Summary())
	})

	t.Run("multiple images", func(t *testing.T) {
		r := Calculate([]int64{512, 1536}, 4096, []ImageMeta{
			{Format: "PNG", Width: 4, Height: 3, Bytes: 512},
			{Format: "BMP", Width: 2, Height: 2, Bytes: 1536},
		})
		assert.Equal(t,
			"Images: 2\n  1. PNG 4x3, 512 B\n  2. BMP 2x2, 1.50 KB\nTotal original: 2.00 KB\nPDF: 4.00 KB\nCompression: 100.0% larger",
			r.Summary())
	})
}
