package tags

import (
	"bytes"
	"strings"
	"unicode"
)

// Pattern returns the search pattern for a tag whose line starts at offset.
// It is the line with trailing whitespace removed and indentation kept. When
// the line looks like the start of a multi-line header (it ends with an open
// parenthesis, or opens one it never closes) the bare name is used instead.
func Pattern(src []byte, offset int, name string) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	end := len(src)
	if i := bytes.IndexByte(src[offset:], '\n'); i >= 0 {
		end = offset + i
	}

	line := strings.TrimRightFunc(string(src[start:end]), unicode.IsSpace)
	if strings.HasSuffix(line, "(") || (strings.Contains(line, "(") && !strings.Contains(line, ")")) {
		return name
	}
	return line
}
