package edit

// Compute returns the cheapest operation that turns from into to.
func Compute(from, to string) Operation {
	if from == to {
		return Operation{Kind: KindNone}
	}
	o, n := []rune(from), []rune(to)

	switch len(n) - len(o) {
	case 1:
		if string(n[:len(o)]) == from {
			return Append(n[len(n)-1])
		}
	case -1:
		if string(o[:len(n)]) == to {
			return Backspace()
		}
	}

	// First differing rune
	start := 0
	for start < len(o) && start < len(n) && o[start] == n[start] {
		start++
	}

	// Common suffix, not overlapping the common prefix
	maxSuffix := min(len(o), len(n)) - start
	suffix := 0
	for suffix < maxSuffix && o[len(o)-1-suffix] == n[len(n)-1-suffix] {
		suffix++
	}

	length := len(o) - start - suffix
	text := string(n[start : len(n)-suffix])
	if suffix == 0 && text == "" {
		// Pure truncation. Delete through the end of the line, whatever its
		// length is on the receiving side.
		length = ToEnd
	}
	return Replace(start, length, text)
}

// Apply replays op onto line.
func Apply(line string, op Operation) string {
	switch op.Kind {
	case KindAppend:
		return line + string(op.Char)
	case KindBackspace:
		r := []rune(line)
		if len(r) == 0 {
			return line
		}
		return string(r[:len(r)-1])
	case KindSplice:
		return ApplySplice(line, op.Splice)
	default:
		return line
	}
}

// ApplySplice replays a splice onto line. Start and Len are clamped to the
// line, so out of range splices from stale senders never panic.
func ApplySplice(line string, s Splice) string {
	r := []rune(line)
	start := s.Start
	if start < 0 {
		start = 0
	}
	if start > len(r) {
		start = len(r)
	}
	if s.Len < 0 {
		return string(r[:start]) + s.Text
	}
	end := start + s.Len
	if end > len(r) {
		end = len(r)
	}
	return string(r[:start]) + s.Text + string(r[end:])
}
