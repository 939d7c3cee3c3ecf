package tts

import "strings"

var voices = map[string]string{
	"ko": "ko",
	"en": "en-us",
}

// Voice maps a reply language to an espeak-ng voice; unknown languages
// fall back to English.
func Voice(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if base, _, ok := strings.Cut(lang, "-"); ok {
		lang = base
	}
	if v, ok := voices[lang]; ok {
		return v
	}
	return voices["en"]
}
