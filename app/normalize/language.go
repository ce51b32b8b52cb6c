package normalize

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

// rtlLanguages are tagged direction "rtl" for downstream rendering.
var rtlLanguages = map[string]bool{
	"ar": true,
	"he": true,
	"fa": true,
	"ur": true,
}

// detectorLanguages is the candidate set for statistical detection.
// Restricting the set keeps the model footprint bounded and detection
// accuracy high for the sources this system actually polls.
var detectorLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.German,
	lingua.French,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Russian,
	lingua.Ukrainian,
	lingua.Turkish,
	lingua.Arabic,
	lingua.Hebrew,
	lingua.Persian,
	lingua.Urdu,
	lingua.Hindi,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
}

var (
	linguaOnce     sync.Once
	linguaDetector lingua.LanguageDetector
)

func statisticalDetector() lingua.LanguageDetector {
	linguaOnce.Do(func() {
		linguaDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectorLanguages...).
			Build()
	})
	return linguaDetector
}

// DetectLanguage returns the ISO 639-1 code for the given text, or
// "unknown". A unicode-script fast path decides unambiguous scripts
// (kana, hangul, pure han, hebrew, thai, greek) without touching the
// statistical detector; everything else falls through to lingua.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return LanguageUnknown
	}

	if lang := scriptLanguage(text); lang != "" {
		return lang
	}

	if lang, ok := statisticalDetector().DetectLanguageOf(text); ok {
		return strings.ToLower(lang.IsoCode639_1().String())
	}

	return LanguageUnknown
}

// scriptLanguage maps a decisive predominant script to a language code.
// Returns "" when the script is absent or ambiguous: Latin, Cyrillic
// and Devanagari cover many languages each, and Arabic script spans
// Arabic, Persian and Urdu, so those go to the statistical detector.
func scriptLanguage(text string) string {
	var han, hira, kata, hangul, hebrew, thai, greek, total int

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++

		switch {
		case unicode.In(r, unicode.Hiragana):
			hira++
		case unicode.In(r, unicode.Katakana):
			kata++
		case unicode.In(r, unicode.Hangul):
			hangul++
		case unicode.In(r, unicode.Han):
			han++
		case unicode.In(r, unicode.Hebrew):
			hebrew++
		case unicode.In(r, unicode.Thai):
			thai++
		case unicode.In(r, unicode.Greek):
			greek++
		}
	}

	if total == 0 {
		return ""
	}

	// Kana is decisive for Japanese even in Han-heavy text.
	if hira > 0 || kata > 0 {
		return "ja"
	}

	// Other scripts are decisive only when they dominate the letters.
	half := total / 2
	switch {
	case hangul > half:
		return "ko"
	case han > half:
		return "zh"
	case hebrew > half:
		return "he"
	case thai > half:
		return "th"
	case greek > half:
		return "el"
	}

	return ""
}

// DirectionFor returns the text direction tag for a language code.
func DirectionFor(lang string) string {
	if rtlLanguages[lang] {
		return DirectionRTL
	}
	return DirectionLTR
}
