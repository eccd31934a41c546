package posts

import "strings"

// TextState is the markup state of the open line of a post.
type TextState struct {
	Line    string
	Quote   bool
	Spoiler bool
}

func (s *TextState) reset() {
	s.Quote = false
	s.Spoiler = false
}

// needsReparse reports whether the line's markup changes with its last
// character: a lone quote marker or a spoiler tag.
func needsReparse(line string) bool {
	return line == ">" || strings.HasSuffix(line, "**")
}

// lastLine returns the text after the last newline of body.
func lastLine(body string) string {
	return body[strings.LastIndexByte(body, '\n')+1:]
}

// replaceLastLine replaces the text after the last newline of body.
func replaceLastLine(body, line string) string {
	return body[:strings.LastIndexByte(body, '\n')+1] + line
}

// dropLastRune removes the last character of s.
func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}
