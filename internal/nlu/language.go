package nlu

import (
	"strings"
	"unicode"
)

// DefaultLanguage is the primary locale used whenever a language is unknown.
const DefaultLanguage = "ko"

// DetectLanguage guesses the utterance language from its script. Hangul
// wins over everything else because mixed Korean/English commands
// ("Chrome 열어줘") are the common case.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultLanguage
	}

	var hangul, han, kana, latin bool
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r):
			hangul = true
		case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			kana = true
		case unicode.Is(unicode.Han, r):
			han = true
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin = true
		}
	}

	lower := strings.ToLower(text)
	switch {
	case hangul:
		return "ko"
	case kana:
		return "ja"
	case han:
		return "zh"
	case strings.ContainsAny(lower, "ñ¿¡"):
		return "es"
	case strings.ContainsAny(lower, "ßäö"):
		return "de"
	case strings.ContainsAny(lower, "àâçèêëîïôùûÿ"):
		return "fr"
	case strings.ContainsAny(lower, "áéíóú"):
		return "es"
	case latin:
		return "en"
	default:
		return DefaultLanguage
	}
}

// ResolveLanguage returns lang unless it is empty or "auto", in which case
// the language is detected from text.
func ResolveLanguage(lang, text string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || lang == "auto" {
		return DetectLanguage(text)
	}
	return lang
}
