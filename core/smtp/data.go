package smtp

// DotStuff applies SMTP DATA framing to message bytes: any line beginning
// with '.' gets the dot doubled so the server cannot mistake body content
// for the end-of-data terminator. The input is returned unchanged when no
// line starts with a dot.
func DotStuff(data []byte) []byte {
	count := 0
	atLineStart := true
	for _, b := range data {
		if atLineStart && b == '.' {
			count++
		}
		atLineStart = b == '\n'
	}
	if count == 0 {
		return data
	}

	out := make([]byte, 0, len(data)+count)
	atLineStart = true
	for _, b := range data {
		if atLineStart && b == '.' {
			out = append(out, '.')
		}
		out = append(out, b)
		atLineStart = b == '\n'
	}
	return out
}
