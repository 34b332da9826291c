package parser

import "strings"

// Unescape resolves backslash escapes inside a quoted value so that escaped
// JSON such as {\"k\":\"v\"} becomes {"k":"v"}. Known sequences are \" \\ \/
// \' \n \r \t. Unknown sequences are kept as written. A trailing lone
// backslash is an ErrGrammar.
func Unescape(s string) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}

	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", newError(ErrGrammar, -1, "unterminated escape sequence in %q", s)
		}
		i++
		switch next := s[i]; next {
		case '"', '\\', '/', '\'':
			sb.WriteByte(next)
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(next)
		}
	}

	return sb.String(), nil
}

// Escape is the inverse of Unescape for quotes, backslashes and the
// control characters Unescape understands.
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + len(s)/8)

	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"', '\\', '\'':
			sb.WriteByte('\\')
			sb.WriteByte(ch)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}
