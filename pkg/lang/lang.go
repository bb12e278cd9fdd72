// Package lang detects the language of extracted article text. The result
// is recorded on the article row as metadata for reports; it never feeds
// into matching decisions.
package lang

import (
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
)

// detectionSample bounds how much text is fed to the detector; a few
// paragraphs is plenty for a confident call on news copy.
const detectionSample = 2000

// Detector wraps a lingua detector built for the languages the configured
// news sources realistically publish in.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a Detector. Construction is relatively expensive, so
// callers should build one per run and reuse it.
func NewDetector() *Detector {
	languages := []lingua.Language{
		lingua.English,
		lingua.Chinese,
		lingua.Japanese,
		lingua.Spanish,
		lingua.French,
		lingua.German,
		lingua.Portuguese,
		lingua.Russian,
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code for text, or "" when the
// detector has no confident answer.
func (d *Detector) Detect(text string) string {
	if len(text) > detectionSample {
		cut := detectionSample
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(language.IsoCode639_1().String())
}
