package nlu

import (
	"regexp"
	"strings"
)

var (
	clickWords   = regexp.MustCompile(`(?i)클릭\S*|click|눌러\S*|버튼|해줘|해주세요|please`)
	searchWords  = regexp.MustCompile(`(?i)검색\S*|search|구글\S*|google|해줘|해주세요|please`)
	openWords    = regexp.MustCompile(`(?i)열어\S*|open|해줘|해주세요|please`)
	mentionRe    = regexp.MustCompile(`(?i)^\s*@(outlook|slack|notion|trello)\b`)
	asciiWordRe  = regexp.MustCompile(`^[a-z' -]+$`)
	questionREs  = compileQuestionWords()
	collapseWsRe = regexp.MustCompile(`\s+`)
)

type questionMatcher struct {
	words []string
	res   []*regexp.Regexp
}

func compileQuestionWords() map[string]questionMatcher {
	out := make(map[string]questionMatcher, len(questionWords))
	for lang, words := range questionWords {
		var m questionMatcher
		for _, w := range words {
			if asciiWordRe.MatchString(w) {
				m.res = append(m.res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
			} else {
				m.words = append(m.words, w)
			}
		}
		out[lang] = m
	}
	return out
}

// IsQuestion reports whether text reads like an informational request in
// lang. Latin-script words match whole words only so "show" is not "how".
func IsQuestion(text, lang string) bool {
	m, ok := questionREs[lang]
	if !ok {
		return IsQuestion(text, DefaultLanguage) || IsQuestion(text, "en")
	}
	lower := strings.ToLower(text)
	for _, w := range m.words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	for _, re := range m.res {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func residual(re *regexp.Regexp, text string) string {
	return strings.TrimSpace(collapseWsRe.ReplaceAllString(re.ReplaceAllString(text, ""), " "))
}

// Fallback classifies text by keyword matching. Rules are tried in a fixed
// order and the first match wins.
func Fallback(text, lang string) Intent {
	lower := strings.ToLower(text)

	if m := mentionRe.FindStringSubmatch(text); m != nil {
		action := Action(strings.ToLower(m[1]))
		if action == "outlook" {
			action = ActionOutlookCalendar
		}
		return Intent{
			Action:      action,
			Target:      strings.ToLower(m[1]),
			Parameters:  Params{},
			Confidence:  0.8,
			Explanation: "explicit @" + strings.ToLower(m[1]) + " mention",
		}
	}

	switch {
	case containsAny(lower, "chrome", "크롬", "인터넷", "internet"):
		return openIntent("Chrome", 0.9, "Chrome 브라우저 열기")

	case containsAny(lower, "설정", "settings", "맥북 설정", "macbook"):
		return openIntent("시스템 설정", 0.9, "시스템 설정 열기")

	case containsAny(lower, "photo booth", "photobooth", "포토부스", "카메라 앱", "사진 촬영"):
		return openIntent("Photo Booth", 0.9, "Photo Booth 앱 열기")
	}

	if containsAny(lower, "클릭", "click", "눌러", "버튼") {
		target := residual(clickWords, text)
		if containsAny(strings.ToLower(target), "카메라", "camera", "사진") {
			return Intent{Action: ActionClick, Target: "camera", Parameters: Params{}, Confidence: 0.8, Explanation: "카메라 버튼 클릭"}
		}
		if target != "" {
			return Intent{Action: ActionClick, Target: target, Parameters: Params{}, Confidence: 0.7, Explanation: target + " 클릭"}
		}
	}

	if containsAny(lower, "검색", "search", "구글", "google") {
		if query := residual(searchWords, text); query != "" {
			return Intent{
				Action:      ActionSearch,
				Target:      "Google",
				Parameters:  Params{"query": query},
				Confidence:  0.8,
				Explanation: `"` + query + `" 검색`,
			}
		}
	}

	if containsAny(lower, "열어", "open") {
		if target := residual(openWords, text); target != "" {
			return openIntent(target, 0.7, target+" 열기")
		}
	}

	if containsAny(lower, "전화", "call", "phone") {
		return Intent{Action: ActionCall, Target: "전화", Parameters: Params{}, Confidence: 0.8, Explanation: "전화 앱 열기"}
	}

	if containsAny(lower, "메시지", "message", "문자") {
		return Intent{Action: ActionMessage, Target: "메시지", Parameters: Params{}, Confidence: 0.8, Explanation: "메시지 앱 열기"}
	}

	if IsQuestion(text, lang) {
		return askIntent(text, 0.6)
	}

	return Intent{
		Action:      ActionUnknown,
		Parameters:  Params{},
		Confidence:  0.1,
		Explanation: "알 수 없는 명령",
	}
}

func openIntent(target string, confidence float64, why string) Intent {
	return Intent{
		Action:      ActionOpen,
		Target:      target,
		Parameters:  Params{},
		Confidence:  confidence,
		Explanation: why,
	}
}

func askIntent(text string, confidence float64) Intent {
	return Intent{
		Action:      ActionAISearch,
		Target:      "ai",
		Parameters:  Params{"query": text},
		Confidence:  confidence,
		Explanation: "question heuristic",
	}
}
