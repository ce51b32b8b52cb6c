package normalize

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/gojp/kana"
	"github.com/mozillazg/go-pinyin"
	hangul "github.com/suapapa/go_hangul"
	"golang.org/x/text/width"
)

// cjkLanguages receive segmentation and romanization.
var cjkLanguages = map[string]bool{
	"zh": true,
	"ja": true,
	"ko": true,
}

// ScriptHandling produces additive metadata for CJK text: UAX #29 word
// segmentation over title+content and a romanized form of the title.
// Never mutates the inputs.
func ScriptHandling(lang, title, content string) *ScriptMetadata {
	if !cjkLanguages[lang] {
		return nil
	}

	text := title
	if content != "" {
		text = title + " " + content
	}

	return &ScriptMetadata{
		SegmentedTokens: Segment(text),
		Romanization:    Romanize(lang, title),
	}
}

// Segment splits text into word/morpheme-level tokens. Fullwidth forms
// are folded before segmentation so ASCII embedded in CJK text tokenizes
// consistently.
func Segment(text string) []string {
	folded := width.Fold.String(text)

	var tokens []string
	iter := words.FromString(folded)
	for iter.Next() {
		token := strings.TrimSpace(iter.Value())
		if token == "" || !containsLetterOrDigit(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func containsLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// Romanize produces a best-effort Latin rendering of CJK text. Runs of
// untranslatable characters pass through unchanged.
func Romanize(lang, text string) string {
	switch lang {
	case "zh":
		return romanizeChinese(text)
	case "ja":
		return romanizeJapanese(text)
	case "ko":
		return romanizeKorean(text)
	default:
		return ""
	}
}

var pinyinArgs = pinyin.NewArgs()

func romanizeChinese(text string) string {
	var parts []string
	for _, token := range Segment(text) {
		syllables := pinyin.LazyPinyin(token, pinyinArgs)
		if len(syllables) == 0 {
			parts = append(parts, token)
			continue
		}
		parts = append(parts, strings.Join(syllables, ""))
	}
	return strings.Join(parts, " ")
}

// romanizeJapanese converts kana runs with the romaji table and falls
// back to the Mandarin reading for kanji runs, which have no reading
// without a dictionary. Runs are kept whole so digraphs like きょ
// romanize correctly.
func romanizeJapanese(text string) string {
	var b strings.Builder
	var run []rune
	runIsHan := false

	flush := func() {
		if len(run) == 0 {
			return
		}
		s := string(run)
		if runIsHan {
			if syllables := pinyin.LazyPinyin(s, pinyinArgs); len(syllables) > 0 {
				s = strings.Join(syllables, "")
			}
			b.WriteString(s)
		} else {
			b.WriteString(kana.KanaToRomaji(s))
		}
		run = run[:0]
	}

	for _, r := range text {
		isHan := unicode.In(r, unicode.Han)
		if isHan != runIsHan {
			flush()
			runIsHan = isHan
		}
		run = append(run, r)
	}
	flush()

	return strings.TrimSpace(b.String())
}

func romanizeKorean(text string) string {
	var b strings.Builder
	for _, r := range text {
		if !hangul.IsHangul(r) {
			b.WriteRune(r)
			continue
		}
		lead, vowel, tail := hangul.SplitCompat(r)
		b.WriteString(leadRoman[lead])
		b.WriteString(vowelRoman[vowel])
		if tail != 0 {
			b.WriteString(tailRoman[tail])
		}
	}
	return strings.TrimSpace(b.String())
}

// Revised Romanization tables keyed by compatibility jamo.
var leadRoman = map[rune]string{
	'ㄱ': "g", 'ㄲ': "kk", 'ㄴ': "n", 'ㄷ': "d", 'ㄸ': "tt",
	'ㄹ': "r", 'ㅁ': "m", 'ㅂ': "b", 'ㅃ': "pp", 'ㅅ': "s",
	'ㅆ': "ss", 'ㅇ': "", 'ㅈ': "j", 'ㅉ': "jj", 'ㅊ': "ch",
	'ㅋ': "k", 'ㅌ': "t", 'ㅍ': "p", 'ㅎ': "h",
}

var vowelRoman = map[rune]string{
	'ㅏ': "a", 'ㅐ': "ae", 'ㅑ': "ya", 'ㅒ': "yae", 'ㅓ': "eo",
	'ㅔ': "e", 'ㅕ': "yeo", 'ㅖ': "ye", 'ㅗ': "o", 'ㅘ': "wa",
	'ㅙ': "wae", 'ㅚ': "oe", 'ㅛ': "yo", 'ㅜ': "u", 'ㅝ': "wo",
	'ㅞ': "we", 'ㅟ': "wi", 'ㅠ': "yu", 'ㅡ': "eu", 'ㅢ': "ui",
	'ㅣ': "i",
}

var tailRoman = map[rune]string{
	'ㄱ': "k", 'ㄲ': "k", 'ㄳ': "k", 'ㄴ': "n", 'ㄵ': "n",
	'ㄶ': "n", 'ㄷ': "t", 'ㄹ': "l", 'ㄺ': "k", 'ㄻ': "m",
	'ㄼ': "l", 'ㄽ': "l", 'ㄾ': "l", 'ㄿ': "p", 'ㅀ': "l",
	'ㅁ': "m", 'ㅂ': "p", 'ㅄ': "p", 'ㅅ': "t", 'ㅆ': "t",
	'ㅇ': "ng", 'ㅈ': "t", 'ㅊ': "t", 'ㅋ': "k", 'ㅌ': "t",
	'ㅍ': "p", 'ㅎ': "t",
}
