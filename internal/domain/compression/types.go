package compression

import (
	"fmt"
	"strings"

	"imagepress/internal/common"
)

// Level is one of the named quality presets a session can select.
type Level int

const (
	Medium Level = iota
	High
	Low
)

// DefaultLevel is assumed when a session never picked one.
const DefaultLevel = Medium

// LosslessQuality selects a lossless page encoding instead of DCT.
const LosslessQuality = 100

// Levels returns every level, best quality first.
func Levels() []Level {
	return []Level{High, Medium, Low}
}

// Quality returns the lossy encoding factor for the level.
func (l Level) Quality() int {
	switch l {
	case High:
		return 95
	case Low:
		return 70
	default:
		return 85
	}
}

func (l Level) String() string {
	switch l {
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return "medium"
	}
}

// Title is the human-readable label, e.g. "High Quality (95%)".
func (l Level) Title() string {
	name := l.String()
	return fmt.Sprintf("%s%s Quality (%d%%)", strings.ToUpper(name[:1]), name[1:], l.Quality())
}

// Valid reports whether l is one of the declared levels.
func (l Level) Valid() bool {
	return l == High || l == Medium || l == Low
}

// ParseLevel accepts "high", "medium" or "low" in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High, nil
	case "medium":
		return Medium, nil
	case "low":
		return Low, nil
	default:
		return DefaultLevel, fmt.Errorf("%w: %q", common.ErrInvalidCompressionLevel, s)
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Encoding names the image filter used for an embedded page.
type Encoding string

const (
	EncodingJPEG Encoding = "JPG"
	EncodingPNG  Encoding = "PNG"
)

// EncodedPage is one re-encoded image ready for embedding.
type EncodedPage struct {
	Data     []byte
	Encoding Encoding
	Width    int
	Height   int
}

// Size returns the encoded byte length.
func (p EncodedPage) Size() int {
	return len(p.Data)
}
