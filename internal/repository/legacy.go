package repository

import "bytes"

var nonFiniteTokens = [][]byte{
	[]byte("-Infinity"),
	[]byte("Infinity"),
	[]byte("NaN"),
}

// ReplaceNonFinite rewrites the bare NaN, Infinity and -Infinity tokens that
// older project files contain for empty spreadsheet cells into null, so the
// document parses as standard JSON. Text inside strings is left alone.
func ReplaceNonFinite(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) && !bytes.Contains(data, []byte("Infinity")) {
		return data
	}

	out := make([]byte, 0, len(data))
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch c {
			case '\\':
				if i+1 < len(data) {
					i++
					out = append(out, data[i])
				}
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if tok := nonFiniteAt(data[i:]); tok != nil {
			out = append(out, "null"...)
			i += len(tok) - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

func nonFiniteAt(rest []byte) []byte {
	for _, tok := range nonFiniteTokens {
		if bytes.HasPrefix(rest, tok) {
			return tok
		}
	}
	return nil
}
