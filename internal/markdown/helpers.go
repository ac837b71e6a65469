package markdown

import "strings"

// MaxMessageLength is Telegram's limit for one message, in UTF-16 code units.
// Splitting on runes stays below it for BMP text.
const MaxMessageLength = 4096

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `_*[]()~` + "`" + `>#+-=|{}.!\`

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for i := range len(mdV2SpecialChars) {
		m[mdV2SpecialChars[i]] = true
	}
	return m
}()

func EscapeV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Split cuts text into parts of at most limit runes, preferring line breaks
// and never separating an escape backslash from the character it escapes.
func Split(text string, limit int) []string {
	if limit <= 1 {
		limit = MaxMessageLength
	}

	runes := []rune(text)
	var parts []string

	for len(runes) > limit {
		cut := lastNewline(runes[:limit])
		if cut <= 0 {
			cut = limit
			for cut > 1 && endsWithEscape(runes[:cut]) {
				cut--
			}
		} else {
			cut++
		}

		if part := strings.TrimRight(string(runes[:cut]), "\n"); part != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
	}

	if part := strings.TrimRight(string(runes), "\n"); part != "" {
		parts = append(parts, part)
	}

	return parts
}

func lastNewline(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}

// endsWithEscape reports an odd run of trailing backslashes.
func endsWithEscape(runes []rune) bool {
	n := 0
	for i := len(runes) - 1; i >= 0 && runes[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
