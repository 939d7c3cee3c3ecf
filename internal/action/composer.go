package action

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	"deskvox/internal/llm"
	"deskvox/internal/nlu"
)

const (
	composeTemperature = 0.7
	composeMaxTokens   = 100
)

var composerPrompts = map[string]string{
	"ko": `당신은 친근하고 도움이 되는 AI 개인 비서입니다.
사용자의 명령을 실행한 후 자연스럽고 친근한 한국어로 한 문장으로 응답해주세요.

응답 스타일:
- 친근하고 따뜻한 톤
- 이모지는 적절히, 과하지 않게
- 명령 실행 완료를 자연스럽게 알림

예시:
- "네, 설정을 열어드릴게요! 🖥️"
- "좋아요! Chrome 브라우저를 열었습니다 🌐"
- "알겠어요! '나이아가라 폭포'를 검색해드릴게요 🔍"`,

	"en": `You are a friendly and helpful AI personal assistant.
After executing the user's command, reply with one natural, friendly sentence in English.

Response style:
- Friendly and warm tone
- Use emojis appropriately, not excessively
- Naturally confirm that the command was carried out

Examples:
- "Sure, I'll open the settings for you! 🖥️"
- "Great! I've opened Chrome browser 🌐"
- "Got it! I'll search for 'Niagara Falls' for you 🔍"`,
}

// fallbackReplies is keyed by language, action and lower-cased target;
// "default" covers any other target of that action.
var fallbackReplies = map[string]map[nlu.Action]map[string]string{
	"ko": {
		nlu.ActionOpen: {
			"settings":        "네, 설정을 열어드릴게요! 🖥️",
			"system settings": "네, 설정을 열어드릴게요! 🖥️",
			"chrome":          "좋아요! Chrome 브라우저를 열었습니다 🌐",
			"google chrome":   "좋아요! Chrome 브라우저를 열었습니다 🌐",
			"safari":          "알겠어요! Safari 브라우저를 열어드릴게요 🌐",
			"default":         "네, 요청하신 앱을 열어드릴게요! ✨",
		},
		nlu.ActionSearch:          {"default": "네, 검색을 실행해드릴게요! 🔍"},
		nlu.ActionType:            {"default": "알겠어요! 텍스트를 입력해드릴게요 ✍️"},
		nlu.ActionScroll:          {"default": "좋아요! 페이지를 스크롤해드릴게요 📜"},
		nlu.ActionClick:           {"default": "네, 클릭했어요! 👆"},
		nlu.ActionCall:            {"default": "네, 전화를 걸어드릴게요! 📞"},
		nlu.ActionMessage:         {"default": "네, 메시지를 보내드렸어요! 💬"},
		nlu.ActionOutlookCalendar: {"default": "네, 일정을 추가했어요! 📅"},
	},
	"en": {
		nlu.ActionOpen: {
			"settings":        "Sure, I'll open the settings for you! 🖥️",
			"system settings": "Sure, I'll open the settings for you! 🖥️",
			"chrome":          "Great! I've opened Chrome browser 🌐",
			"google chrome":   "Great! I've opened Chrome browser 🌐",
			"safari":          "Got it! I'll open Safari browser for you 🌐",
			"default":         "Sure, I'll open the requested app for you! ✨",
		},
		nlu.ActionSearch:          {"default": "Sure, I'll perform the search for you! 🔍"},
		nlu.ActionType:            {"default": "Got it! I'll type the text for you ✍️"},
		nlu.ActionScroll:          {"default": "Great! I'll scroll the page for you 📜"},
		nlu.ActionClick:           {"default": "Done, I clicked it! 👆"},
		nlu.ActionCall:            {"default": "Sure, calling now! 📞"},
		nlu.ActionMessage:         {"default": "Your message is on its way! 💬"},
		nlu.ActionOutlookCalendar: {"default": "The event is on your calendar! 📅"},
	},
}

var genericReplies = map[string]string{
	"ko": "네, 명령을 실행해드릴게요! ✨",
	"en": "Sure, I'll execute the command for you! ✨",
}

// Composer phrases a finished action as a short conversational reply.
type Composer struct {
	svc llm.Service
}

func NewComposer(svc llm.Service) *Composer {
	return &Composer{svc: svc}
}

// Compose never fails: without a service or on any error it answers from
// the fallback table.
func (c *Composer) Compose(ctx context.Context, in nlu.Intent, res Result, lang string) string {
	if c == nil || c.svc == nil {
		return FallbackReply(in, lang)
	}

	prompt, ok := composerPrompts[lang]
	if !ok {
		prompt = composerPrompts[nlu.DefaultLanguage]
	}

	reply, err := c.svc.Complete(ctx, llm.Request{
		System:      prompt,
		User:        describe(in, res),
		Temperature: composeTemperature,
		MaxTokens:   composeMaxTokens,
	})
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		log.Warn("Composer fell back to template", "action", in.Action, "err", err)
		return FallbackReply(in, lang)
	}
	return reply
}

func describe(in nlu.Intent, res Result) string {
	command := in.OriginalCommand
	if command == "" {
		command = "알 수 없는 명령"
	}
	target := in.Target
	if target == "" {
		target = "없음"
	}
	params, _ := json.Marshal(in.Parameters)
	if in.Parameters == nil {
		params = []byte("{}")
	}
	outcome := "성공"
	if !res.Success {
		outcome = "실패"
	}
	return fmt.Sprintf("사용자 명령: %s\n실행된 액션: %s\n대상: %s\n매개변수: %s\n실행 결과: %s\n\n위 정보를 바탕으로 자연스러운 대화형 응답을 생성해주세요.",
		command, in.Action, target, params, outcome)
}

// FallbackReply looks up (action, target), then the action's default, then
// a generic phrase.
func FallbackReply(in nlu.Intent, lang string) string {
	table, ok := fallbackReplies[lang]
	if !ok {
		table = fallbackReplies[nlu.DefaultLanguage]
	}
	generic, ok := genericReplies[lang]
	if !ok {
		generic = genericReplies[nlu.DefaultLanguage]
	}

	byTarget, ok := table[in.Action]
	if !ok {
		return generic
	}
	if s, ok := byTarget[strings.ToLower(in.Target)]; ok {
		return s
	}
	return byTarget["default"]
}
