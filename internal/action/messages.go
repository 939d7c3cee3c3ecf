package action

import (
	"fmt"

	"deskvox/internal/nlu"
)

type msgKey int

const (
	msgNotUnderstood msgKey = iota
	msgFailed
	msgSearchError
	msgTabNotFound
	msgTabError
	msgCalendarUnparsed
	msgCalendarFailed
	msgCalendarCreated
	msgNotImplemented
	msgClicked
	msgClickSimulated
	msgTyped
	msgScrolled
	msgFileDone
	msgSystemDone
	msgSystemUnsupported
	msgOpenFailed
	msgSearchFailed
	msgCalled
	msgMessaged
	msgMessageFailed
)

var messages = map[string]map[msgKey]string{
	"ko": {
		msgNotUnderstood:     "죄송해요! 명령을 정확히 이해하지 못했어요. 다시 한번 말씀해주시겠어요? 🤔",
		msgFailed:            "죄송해요! 명령을 실행하지 못했어요.",
		msgSearchError:       "죄송해요! 검색 중에 오류가 발생했어요. 다시 시도해주세요.",
		msgTabNotFound:       "활성 브라우저 탭을 찾을 수 없습니다. Chrome을 디버그 모드로 실행해주세요: chrome --remote-debugging-port=9222",
		msgTabError:          "페이지 분석 중 오류가 발생했습니다.",
		msgCalendarUnparsed:  "죄송해요! 일정의 날짜, 시간 또는 제목을 이해하지 못했어요. 예: \"@outlook 내일 오전 10시부터 11시까지 팀 미팅\"",
		msgCalendarFailed:    "죄송해요! 일정을 추가하지 못했어요.",
		msgCalendarCreated:   "%s %s-%s \"%s\" 일정을 추가했어요! 📅",
		msgNotImplemented:    "%s 연동은 아직 지원하지 않아요.",
		msgClicked:           "네, %s 버튼을 클릭했습니다! ✨",
		msgClickSimulated:    "%s를 클릭했습니다. (시뮬레이션 - 버튼을 찾을 수 없습니다)",
		msgTyped:             "네, \"%s\"를 입력해드릴게요! ✍️",
		msgScrolled:          "페이지를 %s 방향으로 %s만큼 스크롤했습니다.",
		msgFileDone:          "파일 %s 작업을 수행했습니다.",
		msgSystemDone:        "시스템 %s 작업을 수행했습니다.",
		msgSystemUnsupported: "지원하지 않는 시스템 작업이에요: %s",
		msgOpenFailed:        "죄송해요! %s을(를) 열지 못했어요.",
		msgSearchFailed:      "죄송해요! \"%s\" 검색 페이지를 열지 못했어요.",
		msgCalled:            "%s로 전화를 걸었습니다.",
		msgMessaged:          "%s에게 메시지를 보냈습니다.",
		msgMessageFailed:     "죄송해요! %s에게 메시지를 보내지 못했어요.",
	},
	"en": {
		msgNotUnderstood:     "Sorry! I couldn't understand your command clearly. Could you please repeat it? 🤔",
		msgFailed:            "Sorry! I couldn't carry out that command.",
		msgSearchError:       "Sorry! An error occurred while searching. Please try again.",
		msgTabNotFound:       "Active browser tab not found. Please run Chrome in debug mode: chrome --remote-debugging-port=9222",
		msgTabError:          "An error occurred while analyzing the page.",
		msgCalendarUnparsed:  "Sorry! I didn't understand the date, time or title. Try: \"@outlook tomorrow from 10 AM to 11 AM team meeting\"",
		msgCalendarFailed:    "Sorry! I couldn't add the event.",
		msgCalendarCreated:   "Added \"%[4]s\" on %[1]s from %[2]s to %[3]s! 📅",
		msgNotImplemented:    "The %s integration isn't supported yet.",
		msgClicked:           "Done, I clicked the %s button! ✨",
		msgClickSimulated:    "Clicked %s. (simulated - the button could not be found)",
		msgTyped:             "Sure, I'll type \"%s\" for you! ✍️",
		msgScrolled:          "Scrolled the page %s by %s.",
		msgFileDone:          "Performed the file %s operation.",
		msgSystemDone:        "Performed the system %s operation.",
		msgSystemUnsupported: "That system operation isn't supported: %s",
		msgOpenFailed:        "Sorry! I couldn't open %s.",
		msgSearchFailed:      "Sorry! I couldn't open the search page for \"%s\".",
		msgCalled:            "Calling %s.",
		msgMessaged:          "Sent a message to %s.",
		msgMessageFailed:     "Sorry! I couldn't send the message to %s.",
	},
}

// msg renders a localized message, falling back to the primary locale.
func msg(lang string, key msgKey, args ...any) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[nlu.DefaultLanguage]
	}
	if len(args) == 0 {
		return table[key]
	}
	return fmt.Sprintf(table[key], args...)
}
