package extraction

import (
	"regexp"
	"strings"
)

var (
	reNonASCII    = regexp.MustCompile(`[^\x00-\x7F]+`)
	reNewlineRuns = regexp.MustCompile(`\n+`)
	reSpaceRuns   = regexp.MustCompile(`[\t\n\v\f\r \x1c-\x1f]{2,}`)

	charReplacer = strings.NewReplacer("\r", "\n", "\u00a0", " ")
)

// Normalize canonicalises text pulled from a receipt so that the
// classification markers and field patterns see one consistent shape.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}
	text := charReplacer.Replace(raw)
	text = reNonASCII.ReplaceAllString(text, "")
	text = reNewlineRuns.ReplaceAllString(text, "\n")
	text = reSpaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
