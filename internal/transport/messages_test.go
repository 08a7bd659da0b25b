package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"imagepress/internal/common"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		header   string
		expected Language
	}{
		{header: "", expected: English},
		{header: "en-US", expected: English},
		{header: "de", expected: German},
		{header: "fa", expected: Persian},
		{header: "ja-JP", expected: English},
		{header: "not a language tag;;", expected: English},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLanguage(tt.header))
		})
	}
}

func TestLocalizedMessage(t *testing.T) {
	kinds := []common.ErrorKind{
		common.KindUnsupportedFormat,
		common.KindCorruptData,
		common.KindNoPendingImages,
		common.KindInvalidLevel,
		common.KindAssembly,
	}

	for _, lang := range supported {
		for _, kind := range kinds {
			assert.NotEmpty(t, LocalizedMessage(kind, lang), "%s/%s", lang, kind)
		}
		assert.NotEqual(t,
			LocalizedMessage(common.KindUnsupportedFormat, lang),
			LocalizedMessage(common.KindCorruptData, lang))
	}

	assert.NotEqual(t, LocalizedMessage(common.KindCorruptData, English), LocalizedMessage(common.KindCorruptData, Persian))
	assert.Equal(t, Message(common.KindEmptyInput), Message(common.KindNoPendingImages))
	assert.Equal(t, Message(common.KindAssembly), LocalizedMessage(common.KindInternal, English))
	assert.Equal(t, Message(common.KindInvalidLevel), LocalizedMessage(common.KindInvalidLevel, Language("xx")))
}
