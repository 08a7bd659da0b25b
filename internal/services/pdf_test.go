package services

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagepress/internal/app/concurrency"
	"imagepress/internal/common"
	"imagepress/internal/compression"
	"imagepress/internal/testutil"
)

func newTestPDFService() *PDFService {
	return NewPDFService(compression.NewCompressor(nil), concurrency.NewWorkerPool(4, nil), nil)
}

func TestAssemble_EmptyInput(t *testing.T) {
	_, err := newTestPDFService().Assemble(context.Background(), nil, 85)
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestAssemble_PageOrderAndSize(t *testing.T) {
	dims := [][2]int{{40, 30}, {20, 60}, {50, 50}, {70, 10}}
	var images []image.Image
	for i, d := range dims {
		images = append(images, testutil.Noise(d[0], d[1], int64(i)))
	}

	data, err := newTestPDFService().Assemble(context.Background(), images, 85)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	sizes := testutil.PageSizes(t, data)
	require.Len(t, sizes, len(dims))
	for i, d := range dims {
		assert.InDelta(t, float64(d[0]), sizes[i][0], 0.01, "page %d width", i+1)
		assert.InDelta(t, float64(d[1]), sizes[i][1], 0.01, "page %d height", i+1)
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	images := []image.Image{testutil.Gradient(32, 32), testutil.Noise(16, 24, 5)}
	s := newTestPDFService()

	first, err := s.Assemble(context.Background(), images, 70)
	require.NoError(t, err)
	second, err := s.Assemble(context.Background(), images, 70)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssemble_Qualities(t *testing.T) {
	images := []image.Image{testutil.Noise(64, 64, 9)}
	s := newTestPDFService()

	tests := []struct {
		name    string
		quality int
	}{
		{name: "floor", quality: 0},
		{name: "low", quality: 70},
		{name: "lossless ceiling", quality: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := s.Assemble(context.Background(), images, tt.quality)
			require.NoError(t, err)
			assert.Len(t, testutil.PageSizes(t, data), 1)
		})
	}
}

func TestAssemble_LowerQualityIsSmaller(t *testing.T) {
	images := []image.Image{testutil.Noise(128, 128, 2)}
	s := newTestPDFService()

	high, err := s.Assemble(context.Background(), images, 95)
	require.NoError(t, err)
	low, err := s.Assemble(context.Background(), images, 70)
	require.NoError(t, err)

	assert.Less(t, len(low), len(high))
}

func TestAssemble_InvalidQuality(t *testing.T) {
	_, err := newTestPDFService().Assemble(context.Background(), []image.Image{testutil.Gradient(4, 4)}, 150)
	assert.ErrorIs(t, err, common.ErrAssembly)
	assert.Equal(t, common.KindAssembly, common.KindOf(err))
}

func TestAssemble_EmptyImage(t *testing.T) {
	_, err := newTestPDFService().Assemble(context.Background(), []image.Image{image.NewNRGBA(image.Rect(0, 0, 0, 0))}, 85)
	assert.ErrorIs(t, err, common.ErrAssembly)
}
