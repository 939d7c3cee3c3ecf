package action

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"regexp"
	"strings"

	"deskvox/internal/llm"
	"deskvox/internal/nlu"
	"deskvox/internal/osauto"
)

const browserApp = "Google Chrome"

var builtinAliases = map[string]string{
	"chrome":          browserApp,
	"google chrome":   browserApp,
	"크롬":              browserApp,
	"safari":          "Safari",
	"사파리":             "Safari",
	"firefox":         "Firefox",
	"설정":              "System Settings",
	"시스템 설정":          "System Settings",
	"settings":        "System Settings",
	"system settings": "System Settings",
	"finder":          "Finder",
	"folder":          "Finder",
	"folders":         "Finder",
	"메일":              "Mail",
	"mail":            "Mail",
	"메시지":             "Messages",
	"messages":        "Messages",
	"전화":              "FaceTime",
	"facetime":        "FaceTime",
	"카메라":             "Photo Booth",
	"camera":          "Photo Booth",
	"사진":              "Photos",
	"photos":          "Photos",
	"음악":              "Music",
	"music":           "Music",
	"스포티파이":           "Spotify",
	"spotify":         "Spotify",
	"유튜브":             "Safari",
	"youtube":         "Safari",
	"photo booth":     "Photo Booth",
	"photobooth":      "Photo Booth",
	"포토부스":            "Photo Booth",
	"카메라 앱":           "Photo Booth",
	"사진 촬영":           "Photo Booth",
	"capcut":          "CapCut",
	"cap cut":         "CapCut",
	"final cut":       "Final Cut Pro",
	"final cut pro":   "Final Cut Pro",
	"premiere":        "Adobe Premiere Pro",
	"adobe premiere":  "Adobe Premiere Pro",
	"photoshop":       "Adobe Photoshop",
	"adobe photoshop": "Adobe Photoshop",
	"illustrator":     "Adobe Illustrator",
	"figma":           "Figma",
	"notion":          "Notion",
	"slack":           "Slack",
	"discord":         "Discord",
	"zoom":            "Zoom",
	"teams":           "Microsoft Teams",
	"microsoft teams": "Microsoft Teams",
	"카카오톡":            "KakaoTalk",
	"카톡":              "KakaoTalk",
	"kakaotalk":       "KakaoTalk",
}

func mergeAliases(extra map[string]string) map[string]string {
	out := make(map[string]string, len(builtinAliases)+len(extra))
	for k, v := range builtinAliases {
		out[k] = v
	}
	for k, v := range extra {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// resolveApp maps a spoken app name onto the application to launch. Names
// without an alias are launched as spoken.
func (d *Dispatcher) resolveApp(target string) string {
	if app, found := d.aliases[strings.ToLower(strings.TrimSpace(target))]; found {
		return app
	}
	return strings.TrimSpace(target)
}

func (d *Dispatcher) open(ctx context.Context, in nlu.Intent, lang string) Result {
	if in.Target == "" {
		return fail(in, msg(lang, msgNotUnderstood), errors.New("open: no target"))
	}
	app := d.resolveApp(in.Target)

	var (
		out osauto.Output
		err error
	)
	if app == browserApp {
		out, err = d.desk.OpenBrowserTab(ctx, app)
	} else {
		out, err = d.desk.LaunchApp(ctx, app)
	}
	if err != nil {
		log.Error("Launch failed", "app", app, "err", err, "output", out.Text())
		return fail(in, msg(lang, msgOpenFailed, in.Target), fmt.Errorf("open %s: %w", app, err))
	}

	r := ok(in, FallbackReply(in, lang))
	r.Details = map[string]string{"app": app}
	return r
}

func searchQuery(in nlu.Intent) string {
	if q := strings.TrimSpace(in.Param("query")); q != "" {
		return q
	}
	return strings.TrimSpace(in.Target)
}

func (d *Dispatcher) search(ctx context.Context, in nlu.Intent, lang string) Result {
	query := searchQuery(in)
	if query == "" {
		return fail(in, msg(lang, msgNotUnderstood), errors.New("search: empty query"))
	}
	u := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if out, err := d.desk.OpenURI(ctx, u); err != nil {
		log.Error("Search failed", "query", query, "err", err, "output", out.Text())
		r := fail(in, msg(lang, msgSearchFailed, query), err)
		r.Query = query
		return r
	}
	r := ok(in, FallbackReply(in, lang))
	r.Query = query
	r.Details = map[string]string{"url": u}
	return r
}

const (
	aiSearchTemperature = 0.7
	aiSearchMaxTokens   = 800
)

var aiSearchPrompts = map[string]string{
	"ko": `당신은 친근하고 도움이 되는 AI 개인 비서입니다.
사용자가 검색 요청을 하고 있습니다. 정확하고 유용한 정보를 제공해주세요.

답변 스타일:
- 친근하고 따뜻한 톤
- 이모지 적절히 사용
- 구체적이고 정확한 정보 제공
- 구조화된 답변 (단락, 불릿포인트 활용)

HTML 형식으로 답변해주세요:
- 단락은 <p> 태그로 감싸주세요
- 중요한 포인트는 <ul><li> 태그로 불릿포인트를 만들어주세요
- 강조할 내용은 <strong> 태그를 사용해주세요

확실하지 않은 정보는 솔직하게 말해주세요.`,

	"en": `You are a friendly and helpful AI personal assistant.
The user is asking for information. Please provide accurate and useful information.

Response style:
- Friendly and warm tone
- Use emojis appropriately
- Provide specific and accurate information
- Structured responses (paragraphs, bullet points)

Please respond in HTML format:
- Wrap paragraphs with <p> tags
- Use <ul><li> tags for bullet points on important points
- Use <strong> tags for emphasis

Be honest if you're not sure about something.`,
}

func (d *Dispatcher) aiSearch(ctx context.Context, in nlu.Intent, lang string) Result {
	query := strings.TrimSpace(in.Param("query"))
	if query == "" {
		query = strings.TrimSpace(in.OriginalCommand)
	}
	if d.llm == nil {
		r := fail(in, msg(lang, msgSearchError), llm.ErrNoCredential)
		r.Query = query
		return r
	}

	prompt, found := aiSearchPrompts[lang]
	if !found {
		prompt = aiSearchPrompts[nlu.DefaultLanguage]
	}
	answer, err := d.llm.Complete(ctx, llm.Request{
		System:      prompt,
		User:        query,
		Temperature: aiSearchTemperature,
		MaxTokens:   aiSearchMaxTokens,
	})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		log.Error("AI search failed", "query", query, "err", err)
		r := fail(in, msg(lang, msgSearchError), err)
		r.Query = query
		return r
	}

	r := ok(in, FormatHTML(answer))
	r.Query = query
	r.IsAISearch = true
	return r
}

var cameraWords = []string{"camera", "카메라", "사진", "photo"}

func isCameraTarget(target string) bool {
	t := strings.ToLower(target)
	for _, w := range cameraWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) clickStrategies(target string) []Strategy {
	button := func(app, name string) Strategy {
		return Strategy{Name: "button " + name, Run: func(ctx context.Context) (string, error) {
			out, err := d.desk.ClickButton(ctx, app, name)
			return out.Text(), err
		}}
	}
	scan := func(app string, keywords ...string) Strategy {
		return Strategy{Name: "keyword scan", Run: func(ctx context.Context) (string, error) {
			out, err := d.desk.ClickButtonContaining(ctx, app, keywords...)
			return out.Text(), err
		}}
	}

	if isCameraTarget(target) {
		const app = "Photo Booth"
		return []Strategy{
			button(app, "Take Photo"),
			button(app, "Take Picture"),
			button(app, "Camera"),
			button(app, "Photo"),
			scan(app, "Photo", "Camera", "Take"),
		}
	}
	if target == "" {
		return nil
	}
	return []Strategy{scan("", target)}
}

// click never reports failure: when no control could be pressed the result
// is a success flagged as simulated.
func (d *Dispatcher) click(ctx context.Context, in nlu.Intent, lang string) Result {
	name := displayTarget(in.Target, lang)

	win, err := runChain(ctx, d.clickStrategies(in.Target))
	if err != nil {
		log.Warn("Click fell back to simulation", "target", in.Target, "err", err)
		r := ok(in, msg(lang, msgClickSimulated, name))
		r.Simulated = true
		r.Details = map[string]string{"attempts": err.Error()}
		return r
	}

	r := ok(in, msg(lang, msgClicked, name))
	r.Details = map[string]string{"strategy": win.Name}
	return r
}

func (d *Dispatcher) typeText(_ context.Context, in nlu.Intent, lang string) Result {
	text := in.Param("text")
	if text == "" {
		text = in.Target
	}
	r := ok(in, msg(lang, msgTyped, text))
	r.Details = map[string]string{"text": text}
	return r
}

var defaultScrollAmount = map[string]string{"ko": "한 화면", "en": "one screen"}

func (d *Dispatcher) scroll(_ context.Context, in nlu.Intent, lang string) Result {
	direction := in.Param("direction")
	if direction == "" {
		direction = "down"
	}
	amount := in.Param("amount")
	if amount == "" {
		amount = defaultScrollAmount[lang]
		if amount == "" {
			amount = defaultScrollAmount[nlu.DefaultLanguage]
		}
	}
	r := ok(in, msg(lang, msgScrolled, direction, amount))
	r.Details = map[string]string{"direction": direction, "amount": amount}
	return r
}

func (d *Dispatcher) call(ctx context.Context, in nlu.Intent, lang string) Result {
	if in.Target == "" {
		return fail(in, msg(lang, msgNotUnderstood), errors.New("call: no target"))
	}
	uri := "tel:" + url.PathEscape(strings.ReplaceAll(in.Target, " ", ""))
	if out, err := d.desk.OpenURI(ctx, uri); err != nil {
		log.Error("Call failed", "target", in.Target, "err", err, "output", out.Text())
		return fail(in, msg(lang, msgFailed), err)
	}
	return ok(in, msg(lang, msgCalled, in.Target))
}

var kakaoRe = regexp.MustCompile(`(?i)kakaotalk|kakao|카카오톡|카톡`)

// kakaoContact reports whether the message goes through KakaoTalk and, if
// so, the contact name with any app keyword removed.
func kakaoContact(in nlu.Intent) (string, bool) {
	via := kakaoRe.MatchString(in.Param("platform")) || kakaoRe.MatchString(in.Target)
	target := strings.TrimSpace(kakaoRe.ReplaceAllString(in.Target, ""))
	for _, suffix := range []string{"에게", "한테"} {
		target = strings.TrimSuffix(target, suffix)
	}
	return strings.TrimSpace(target), via
}

func (d *Dispatcher) message(ctx context.Context, in nlu.Intent, lang string) Result {
	text := in.Param("text")
	if contact, viaKakao := kakaoContact(in); viaKakao {
		return d.kakaoMessage(ctx, in, lang, contact, text)
	}
	if in.Target == "" {
		return fail(in, msg(lang, msgNotUnderstood), errors.New("message: no recipient"))
	}

	body := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	uri := "sms:" + in.Target + "&body=" + body
	if out, err := d.desk.OpenURI(ctx, uri); err != nil {
		log.Error("Message failed", "target", in.Target, "err", err, "output", out.Text())
		return fail(in, msg(lang, msgMessageFailed, in.Target), err)
	}
	return ok(in, msg(lang, msgMessaged, in.Target))
}

// kakaoMessage drives KakaoTalk: find the chat by pasting the contact name
// into the search box, open it, paste the text and send. Nothing checks
// that the search landed on the right person.
func (d *Dispatcher) kakaoMessage(ctx context.Context, in nlu.Intent, lang, contact, text string) Result {
	if contact == "" || strings.TrimSpace(text) == "" {
		return fail(in, msg(lang, msgNotUnderstood), errors.New("kakao: missing contact or text"))
	}

	steps := []struct{ name, script string }{
		{"activate", `tell application "KakaoTalk" to activate
delay 1`},
		{"find contact", `set the clipboard to ` + osauto.Quote(contact) + `
tell application "System Events"
	tell process "KakaoTalk"
		keystroke "f" using command down
		delay 0.5
		keystroke "a" using command down
		keystroke "v" using command down
		delay 1
		key code 36
	end tell
end tell
delay 1`},
		{"paste text", `set the clipboard to ` + osauto.Quote(text) + `
tell application "System Events"
	tell process "KakaoTalk"
		keystroke "v" using command down
		delay 0.5
	end tell
end tell`},
		{"send", `tell application "System Events"
	tell process "KakaoTalk" to key code 36
end tell`},
	}
	for _, s := range steps {
		if out, err := d.desk.RunScript(ctx, s.script); err != nil {
			log.Error("KakaoTalk step failed", "step", s.name, "err", err, "output", out.Text())
			return fail(in, msg(lang, msgMessageFailed, contact), fmt.Errorf("kakao %s: %w", s.name, err))
		}
	}

	r := ok(in, msg(lang, msgMessaged, contact))
	r.Details = map[string]string{"platform": "kakaotalk", "contact": contact}
	return r
}

var fileOpWords = map[string]map[string]string{
	"ko": {"open": "열기", "create": "생성", "delete": "삭제", "move": "이동", "copy": "복사"},
}

func (d *Dispatcher) file(_ context.Context, in nlu.Intent, lang string) Result {
	op := strings.ToLower(in.Target)
	word := op
	if w, found := fileOpWords[lang][op]; found {
		word = w
	}
	return ok(in, msg(lang, msgFileDone, word))
}

func (d *Dispatcher) system(ctx context.Context, in nlu.Intent, lang string) Result {
	op := in.Target
	if op == "" {
		op = in.Param("operation")
	}
	out, err := d.desk.System(ctx, op)
	switch {
	case errors.Is(err, osauto.ErrUnsupported):
		return fail(in, msg(lang, msgSystemUnsupported, op), err)
	case err != nil:
		log.Error("System operation failed", "op", op, "err", err, "output", out.Text())
		return fail(in, msg(lang, msgFailed), err)
	}
	return ok(in, msg(lang, msgSystemDone, op))
}

func (d *Dispatcher) notImplemented(name string) handlerFunc {
	return func(_ context.Context, in nlu.Intent, lang string) Result {
		return fail(in, msg(lang, msgNotImplemented, name), fmt.Errorf("%s integration not implemented", strings.ToLower(name)))
	}
}
