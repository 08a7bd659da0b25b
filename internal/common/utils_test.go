package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	uuid1 := GenerateUUID()
	uuid2 := GenerateUUID()

	require.NotEmpty(t, uuid1)
	require.NotEmpty(t, uuid2)
	assert.NotEqual(t, uuid1, uuid2)

	_, err := uuid.Parse(uuid1)
	assert.NoError(t, err)
	_, err = uuid.Parse(uuid2)
	assert.NoError(t, err)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		in       int64
		expected string
	}{
		{name: "zero", in: 0, expected: "0 B"},
		{name: "bytes", in: 512, expected: "512 B"},
		{name: "just under a kilobyte", in: 1023, expected: "1023 B"},
		{name: "kilobytes", in: 1536, expected: "1.50 KB"},
		{name: "megabytes", in: 5 * 1024 * 1024, expected: "5.00 MB"},
		{name: "gigabytes", in: 3 * 1024 * 1024 * 1024, expected: "3.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBytes(tt.in))
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{name: "nil", err: nil, expected: KindNone},
		{name: "unsupported", err: ErrUnsupportedFormat, expected: KindUnsupportedFormat},
		{name: "wrapped corrupt", err: fmt.Errorf("decode png: %w", ErrCorruptData), expected: KindCorruptData},
		{name: "no pending", err: NewConversionError("convert", "42", ErrNoPendingImages), expected: KindNoPendingImages},
		{name: "empty input", err: ErrEmptyInput, expected: KindEmptyInput},
		{name: "assembly", err: ErrAssembly, expected: KindAssembly},
		{name: "invalid level", err: ErrInvalidCompressionLevel, expected: KindInvalidLevel},
		{name: "unknown", err: errors.New("disk on fire"), expected: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestConversionError(t *testing.T) {
	err := NewConversionError("add", "alice", ErrCorruptData)

	assert.Equal(t, "add failed for user alice: image data could not be decoded", err.Error())
	assert.ErrorIs(t, err, ErrCorruptData)
	assert.Equal(t, KindCorruptData, err.Kind())

	anonymous := NewConversionError("assemble", "", ErrAssembly)
	assert.Equal(t, "assemble failed: pdf assembly failed", anonymous.Error())
}
