package mailparse

import "strings"

// StripQuote removes the quoted prompt from a reply body. Everything from the
// first line containing marker onward is dropped. When no line contains the
// marker the text is kept whole. CRLF is read as LF while a lone CR is kept.
// Trailing newlines are always trimmed.
func StripQuote(text, marker string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	if marker != "" {
		for i, line := range lines {
			if strings.Contains(line, marker) {
				lines = lines[:i]
				break
			}
		}
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
