package nlu

const responseShape = `{
  "action": "<action>",
  "target": "<target or null>",
  "parameters": {
    "query": "", "text": "", "direction": "", "amount": "",
    "date": "", "startTime": "", "endTime": "", "title": "",
    "platform": "", "channel": ""
  },
  "confidence": 0.95,
  "explanation": "<short reason>"
}`

// classifierPrompts is keyed by language code. Languages missing here fall
// back to DefaultLanguage.
var classifierPrompts = map[string]string{
	"ko": `당신은 사용자의 자연어 명령을 분석하여 컴퓨터 제어 액션으로 변환하는 AI 어시스턴트입니다.
대화하지 말고 JSON 객체 하나만 출력하세요. 마크다운을 쓰지 마세요.

사용 가능한 액션 타입:
1. open: 앱/웹사이트 열기
2. search: 웹 검색 (브라우저에서 검색)
3. ai-search: AI가 직접 답변 제공
4. click: UI 요소 클릭
5. type: 텍스트 입력
6. scroll: 페이지 스크롤
7. call: 전화 걸기
8. message: 메시지 보내기 (카카오톡이면 parameters.platform = "kakao")
9. file: 파일 관리
10. system: 시스템 제어 (sleep, restart, shutdown)
11. tab-analysis: 현재 브라우저 탭 분석
12. outlook-calendar: Outlook 캘린더 일정 추가 (date, startTime, endTime, title)
13. slack / notion / trello: 해당 서비스 연동 요청
14. unknown: 분류할 수 없음

응답 형식 (JSON):
` + responseShape + `

예시:
- "구글에서 나이아가라 폭포 검색해줘" → {"action": "search", "target": "Google", "parameters": {"query": "나이아가라 폭포"}}
- "나이아가라 폭포에 대해 알려줘" → {"action": "ai-search", "target": "ai", "parameters": {"query": "나이아가라 폭포"}}
- "지금 뭐하고 있어?" → {"action": "ai-search", "target": "ai", "parameters": {"query": "지금 뭐하고 있어?"}}
- "오늘 날씨 어때?" → {"action": "ai-search", "target": "ai", "parameters": {"query": "오늘 날씨 어때?"}}
- "Chrome 열어줘" → {"action": "open", "target": "Chrome"}
- "폴더 열어줘" → {"action": "open", "target": "folder"}
- "Final Cut 열어줘" → {"action": "open", "target": "Final Cut Pro"}
- "Photoshop 열어줘" → {"action": "open", "target": "Adobe Photoshop"}
- "설정 열어줘" → {"action": "open", "target": "시스템 설정"}
- "이 페이지를 분석해줘" → {"action": "tab-analysis", "target": "current_tab"}
- "이 뉴스 기사 요약해줘" → {"action": "tab-analysis", "target": "current_tab"}
- "카메라 버튼 눌러줘" → {"action": "click", "target": "camera"}
- "사진 찍기 버튼 클릭해줘" → {"action": "click", "target": "camera"}
- "아래로 스크롤해줘" → {"action": "scroll", "parameters": {"direction": "down", "amount": 3}}
- "010-1234-5678로 전화 걸어줘" → {"action": "call", "target": "010-1234-5678"}
- "카톡으로 엄마한테 곧 도착한다고 보내줘" → {"action": "message", "target": "엄마", "parameters": {"platform": "kakao", "text": "곧 도착해"}}
- "@outlook 내일 오전 10시부터 11시까지 팀 미팅" → {"action": "outlook-calendar", "target": "outlook", "parameters": {"date": "내일", "startTime": "오전 10시", "endTime": "오전 11시", "title": "팀 미팅"}}
- "@slack 개발 채널에 배포 완료라고 보내줘" → {"action": "slack", "target": "slack", "parameters": {"channel": "개발", "text": "배포 완료"}}`,

	"en": `You are an AI assistant that converts the user's natural language command into a computer control action.
Do not converse. Output exactly one JSON object and no markdown.

Available action types:
1. open: open app/website
2. search: web search (open browser)
3. ai-search: answer directly
4. click: click UI element
5. type: text input
6. scroll: page scroll
7. call: make phone call
8. message: send message (parameters.platform = "kakao" for KakaoTalk)
9. file: file management
10. system: system control (sleep, restart, shutdown)
11. tab-analysis: analyze the current browser tab
12. outlook-calendar: add an Outlook calendar event (date, startTime, endTime, title)
13. slack / notion / trello: integration requests
14. unknown: cannot classify

Response format (JSON):
` + responseShape + `

Examples:
- "search for Niagara Falls on Google" → {"action": "search", "target": "Google", "parameters": {"query": "Niagara Falls"}}
- "tell me about Niagara Falls" → {"action": "ai-search", "target": "ai", "parameters": {"query": "Niagara Falls"}}
- "What are you doing?" → {"action": "ai-search", "target": "ai", "parameters": {"query": "What are you doing?"}}
- "How's the weather today?" → {"action": "ai-search", "target": "ai", "parameters": {"query": "How's the weather today?"}}
- "open Chrome" → {"action": "open", "target": "Chrome"}
- "open the folder" → {"action": "open", "target": "folder"}
- "open Photoshop" → {"action": "open", "target": "Adobe Photoshop"}
- "open settings" → {"action": "open", "target": "system settings"}
- "analyze this page" → {"action": "tab-analysis", "target": "current_tab"}
- "summarize this article" → {"action": "tab-analysis", "target": "current_tab"}
- "take a photo" → {"action": "click", "target": "camera"}
- "scroll down" → {"action": "scroll", "parameters": {"direction": "down", "amount": 3}}
- "call 555-0100" → {"action": "call", "target": "555-0100"}
- "@outlook tomorrow from 10 AM to 11 AM team meeting" → {"action": "outlook-calendar", "target": "outlook", "parameters": {"date": "tomorrow", "startTime": "10 AM", "endTime": "11 AM", "title": "team meeting"}}
- "@notion add a page called Ideas" → {"action": "notion", "target": "notion", "parameters": {"title": "Ideas"}}`,

	"zh": `你是一个AI助手，分析用户的自然语言命令并将其转换为计算机控制操作。只输出一个JSON对象。

可用操作类型: open, search, ai-search, click, type, scroll, call, message, file, system, tab-analysis, outlook-calendar, slack, notion, trello, unknown

响应格式 (JSON):
` + responseShape,

	"ja": `あなたは、ユーザーの自然言語コマンドを分析してコンピューター制御アクションに変換するAIアシスタントです。JSONオブジェクトを1つだけ出力してください。

利用可能なアクションタイプ: open, search, ai-search, click, type, scroll, call, message, file, system, tab-analysis, outlook-calendar, slack, notion, trello, unknown

応答形式 (JSON):
` + responseShape,

	"es": `Eres un asistente de IA que convierte los comandos del usuario en acciones de control informático. Devuelve solo un objeto JSON.

Tipos de acción: open, search, ai-search, click, type, scroll, call, message, file, system, tab-analysis, outlook-calendar, slack, notion, trello, unknown

Formato de respuesta (JSON):
` + responseShape,

	"fr": `Vous êtes un assistant IA qui convertit les commandes de l'utilisateur en actions de contrôle informatique. Renvoyez uniquement un objet JSON.

Types d'action : open, search, ai-search, click, type, scroll, call, message, file, system, tab-analysis, outlook-calendar, slack, notion, trello, unknown

Format de réponse (JSON) :
` + responseShape,

	"de": `Sie sind ein KI-Assistent, der Befehle des Benutzers in Computersteuerungsaktionen umwandelt. Geben Sie nur ein JSON-Objekt aus.

Aktionstypen: open, search, ai-search, click, type, scroll, call, message, file, system, tab-analysis, outlook-calendar, slack, notion, trello, unknown

Antwortformat (JSON):
` + responseShape,
}

func classifierPrompt(lang string) string {
	if p, ok := classifierPrompts[lang]; ok {
		return p
	}
	return classifierPrompts[DefaultLanguage]
}

const refinePrompt = `당신은 음성 인식 결과를 개선하는 전문가입니다.
사용자가 실제로 말하려고 했던 내용을 추측하여 정확한 문장으로 수정해주세요.

주요 개선 사항:
1. 발음 오류 수정 (예: "crown" → "chrome", "fermi" → "for me")
2. 문법 오류 수정
3. 맥락에 맞는 단어로 교체
4. 자연스러운 문장으로 완성

예시:
- "Can you open the crown for me?" → "Can you open Chrome for me?"
- "you type NAGARA Fold at Google" → "Can you type Niagara Falls on Google?"
- "나야 갈아 폭풀하고 국물에 검색해줘" → "나이아가라 폭포를 구글에서 검색해줘"
- "tell me about new jin" → "tell me about new jeans"

수정된 문장만 출력하고, 명령의 의도는 유지해주세요.`

// questionWords signal an informational request rather than a command.
var questionWords = map[string][]string{
	"ko": {"?", "알려줘", "알려 줘", "알려주세요", "설명해", "뭐야", "뭐해", "뭐하", "뭔가", "무엇", "누구", "언제", "어디", "어때", "어떻게", "왜", "얼마", "몇", "대해"},
	"en": {"?", "what", "who", "when", "where", "why", "how", "tell me", "explain", "is it", "are you", "can you tell", "do you know"},
	"zh": {"?", "？", "什么", "谁", "哪里", "为什么", "怎么", "吗", "告诉我"},
	"ja": {"?", "？", "何", "誰", "どこ", "なぜ", "どう", "教えて", "ですか"},
	"es": {"?", "¿", "qué", "quién", "cuándo", "dónde", "por qué", "cómo", "dime"},
	"fr": {"?", "quoi", "qui", "quand", "où", "pourquoi", "comment", "dis-moi"},
	"de": {"?", "was", "wer", "wann", "wo", "warum", "wie", "erzähl"},
}
