// Package sanitize cleans user supplied values before they are persisted.
package sanitize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// TextField reduces input to a single line of plain text: invalid UTF-8 is dropped, tags are
// stripped (script and style bodies included), line breaks and runs of whitespace collapse to
// one space, and the result is trimmed.
func TextField(input string) string {
	if input == "" {
		return ""
	}

	valid := strings.ToValidUTF8(input, "")
	if !strings.ContainsAny(valid, "<>") {
		return collapseWhitespace(valid)
	}

	return collapseWhitespace(stripTags(valid))
}

// Paragraphs strips tags like TextField but keeps line structure, so blank-line separated text
// survives. Whitespace inside each line still collapses.
func Paragraphs(input string) string {
	valid := strings.ToValidUTF8(input, "")
	if strings.ContainsAny(valid, "<>") {
		valid = stripTags(valid)
	}

	lines := strings.Split(strings.ReplaceAll(valid, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = collapseWhitespace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripTags(input string) string {
	var (
		builder  strings.Builder
		skipping string
	)

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way keep what was read.
			return builder.String()
		case html.TextToken:
			if skipping == "" {
				builder.Write(tokenizer.Raw())
			}
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); skipping == "" && (tag == "script" || tag == "style") {
				skipping = tag
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == skipping {
				skipping = ""
			}
		}
	}
}

func collapseWhitespace(input string) string {
	return strings.Join(strings.FieldsFunc(input, unicode.IsSpace), " ")
}

// AbsInt converts a stored setting to a non-negative integer the way loosely typed form input
// is usually read: leading whitespace is skipped, the longest leading integer is used, anything
// else yields zero, and negative numbers clamp to zero.
func AbsInt(raw string) int {
	trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(trimmed) && (trimmed[end] == '-' || trimmed[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	value, err := strconv.Atoi(trimmed[:end])
	if err != nil || value < 0 {
		return 0
	}
	return value
}
