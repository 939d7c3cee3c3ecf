package nlu

import (
	"regexp"
)

type correction struct {
	pattern     string
	replacement string
	re          *regexp.Regexp
}

// corrections fixes words the recognizer routinely mishears. Rules run in
// order, each exactly once over the whole text.
var corrections = compileCorrections([][2]string{
	{" and google", " on google"},
	{" and chrome", " on chrome"},
	{" and internet", " on internet"},

	{" word ", " world "},
	{" word.", " world."},
	{" word?", " world?"},

	{" fermi ", " for me "},
	{" fermi.", " for me."},
	{" fermi?", " for me?"},

	{" crown ", " chrome "},
	{" crown.", " chrome."},
	{" crown?", " chrome?"},

	{" setting ", " settings "},
	{" setting.", " settings."},
	{" setting?", " settings?"},

	{" new jin ", " new jeans "},
	{" new jin.", " new jeans."},
	{" new jin?", " new jeans?"},
	{" new jin", " new jeans"},

	{" jean ", " jeans "},
	{" jean.", " jeans."},
	{" jean?", " jeans?"},

	{"국물에", "구글에"},
	{"나야 갈아", "나이아가라"},
	{"크론", "크롬"},
})

func compileCorrections(table [][2]string) []correction {
	out := make([]correction, 0, len(table))
	for _, row := range table {
		out = append(out, correction{
			pattern:     row[0],
			replacement: row[1],
			re:          regexp.MustCompile(`(?i)` + regexp.QuoteMeta(row[0])),
		})
	}
	return out
}

// Normalize applies the correction table to a raw transcript. It never
// fails and never loops: the table is walked once.
func Normalize(text string) string {
	out := text
	for _, c := range corrections {
		out = c.re.ReplaceAllLiteralString(out, c.replacement)
	}
	return out
}
