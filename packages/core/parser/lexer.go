package parser

import (
	"strings"
)

const curlKeyword = "curl"

type lexState int

const (
	stateBare lexState = iota
	stateSingle
	stateDouble
)

// word is one shell word after quote removal. raw holds the byte ranges of
// text that came from single quotes, where backslashes were kept as written.
type word struct {
	text    string
	pos     int
	raw     []span
	comment bool
}

// span is a half-open byte range [start, end).
type span [2]int

// Lexer splits a command into shell words. It is a small state machine over
// bytes: bare text, single quotes and double quotes, with escape handling
// done inline per state.
type Lexer struct {
	input string
	pos   int
	state lexState

	buf       strings.Builder
	inWord    bool
	wordStart int
	quoteAt   int
	rawStart  int
	raw       []span

	words []word
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) startWord() {
	if l.inWord {
		return
	}
	l.inWord = true
	l.wordStart = l.pos
}

func (l *Lexer) flush() {
	if !l.inWord {
		return
	}
	l.words = append(l.words, word{
		text: l.buf.String(),
		pos:  l.wordStart,
		raw:  l.raw,
	})
	l.buf.Reset()
	l.inWord = false
	l.raw = nil
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

// continuation returns the length of a backslash-newline sequence at the
// current position, or 0 if there is none.
func (l *Lexer) continuation() int {
	if l.input[l.pos] != '\\' {
		return 0
	}
	switch l.peek(1) {
	case '\n':
		return 2
	case '\r':
		if l.peek(2) == '\n' {
			return 3
		}
		return 2
	}
	return 0
}

func (l *Lexer) readComment() {
	start := l.pos
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		end = len(l.input) - start
	}
	l.words = append(l.words, word{
		text:    strings.TrimRight(l.input[start+1:start+end], "\r"),
		pos:     start,
		comment: true,
	})
	l.pos = start + end
}

func (l *Lexer) stepBare(ch byte) error {
	switch ch {
	case ' ', '\t', '\n', '\r':
		l.flush()
		l.pos++
	case '\\':
		if n := l.continuation(); n > 0 {
			l.flush()
			l.pos += n
			return nil
		}
		if l.pos+1 >= len(l.input) {
			return newError(ErrGrammar, l.pos, "unterminated escape sequence")
		}
		l.startWord()
		l.buf.WriteByte(l.input[l.pos+1])
		l.pos += 2
	case '\'':
		l.startWord()
		l.quoteAt = l.pos
		l.rawStart = l.buf.Len()
		l.state = stateSingle
		l.pos++
	case '"':
		l.startWord()
		l.quoteAt = l.pos
		l.state = stateDouble
		l.pos++
	case '#':
		if !l.inWord {
			l.readComment()
			return nil
		}
		l.buf.WriteByte(ch)
		l.pos++
	default:
		l.startWord()
		l.buf.WriteByte(ch)
		l.pos++
	}
	return nil
}

func (l *Lexer) stepSingle(ch byte) {
	if ch == '\'' {
		if end := l.buf.Len(); end > l.rawStart {
			l.raw = append(l.raw, span{l.rawStart, end})
		}
		l.state = stateBare
	} else {
		l.buf.WriteByte(ch)
	}
	l.pos++
}

func (l *Lexer) stepDouble(ch byte) {
	switch ch {
	case '"':
		l.state = stateBare
		l.pos++
	case '\\':
		if n := l.continuation(); n > 0 {
			l.pos += n
			return
		}
		switch next := l.peek(1); next {
		case '"', '\\', '$', '`':
			l.buf.WriteByte(next)
			l.pos += 2
		default:
			l.buf.WriteByte(ch)
			l.pos++
		}
	default:
		l.buf.WriteByte(ch)
		l.pos++
	}
}

// Words runs the state machine over the whole input.
func (l *Lexer) Words() ([]word, error) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch l.state {
		case stateSingle:
			l.stepSingle(ch)
		case stateDouble:
			l.stepDouble(ch)
		default:
			if err := l.stepBare(ch); err != nil {
				return nil, err
			}
		}
	}

	switch l.state {
	case stateSingle:
		return nil, newError(ErrGrammar, l.quoteAt, "unterminated single quote")
	case stateDouble:
		return nil, newError(ErrGrammar, l.quoteAt, "unterminated double quote")
	}

	l.flush()
	return l.words, nil
}

// Tokenize splits a rendered curl command into flag, positional and comment
// tokens. Comments before the curl keyword are kept as comment tokens; any
// other word before it is an ErrGrammar.
func Tokenize(input string) ([]Token, error) {
	words, err := NewLexer(input).Words()
	if err != nil {
		return nil, err
	}

	var tokens []Token
	i := 0
	for ; i < len(words); i++ {
		w := words[i]
		if w.comment {
			tokens = append(tokens, Token{Kind: TokenComment, Value: w.text, Pos: w.pos})
			continue
		}
		if w.text != curlKeyword {
			return nil, newError(ErrGrammar, w.pos, "expected %q, found %q", curlKeyword, w.text)
		}
		break
	}
	if i == len(words) {
		return nil, newError(ErrGrammar, len(input), "missing %q keyword", curlKeyword)
	}

	ts := &tokenStream{words: words, pos: i + 1, out: tokens}
	if err := ts.run(); err != nil {
		return nil, err
	}
	return ts.out, nil
}

type tokenStream struct {
	words   []word
	pos     int
	out     []Token
	optsEnd bool
}

func (ts *tokenStream) emit(t Token) {
	ts.out = append(ts.out, t)
}

// value takes the word after a flag as its argument. Comments cannot be
// flag values.
func (ts *tokenStream) value(flag string, at int) (word, error) {
	if ts.pos >= len(ts.words) || ts.words[ts.pos].comment {
		return word{}, newError(ErrGrammar, at, "missing value for %s", flag)
	}
	w := ts.words[ts.pos]
	ts.pos++
	return w, nil
}

// shiftSpans rebases spans onto text[offset:].
func shiftSpans(spans []span, offset int) []span {
	var out []span
	for _, s := range spans {
		start, end := max(s[0]-offset, 0), s[1]-offset
		if end > start {
			out = append(out, span{start, end})
		}
	}
	return out
}

func (ts *tokenStream) run() error {
	for ts.pos < len(ts.words) {
		w := ts.words[ts.pos]
		ts.pos++

		switch {
		case w.comment:
			ts.emit(Token{Kind: TokenComment, Value: w.text, Pos: w.pos})
		case ts.optsEnd || !strings.HasPrefix(w.text, "-") || w.text == "-":
			ts.emit(Token{Kind: TokenPositional, Value: w.text, Pos: w.pos})
		case w.text == "--":
			ts.optsEnd = true
		case strings.HasPrefix(w.text, "--"):
			if err := ts.long(w); err != nil {
				return err
			}
		default:
			if err := ts.short(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ts *tokenStream) long(w word) error {
	name, inline, hasInline := strings.Cut(w.text[2:], "=")
	flag := "--" + name
	def := lookupLong(name)

	tok := Token{Kind: TokenFlag, Name: flag, Pos: w.pos, flag: def.id}
	switch {
	case hasInline:
		tok.Value, tok.HasValue = inline, true
		tok.raw = shiftSpans(w.raw, len(flag)+1)
	case def.takesValue:
		v, err := ts.value(flag, w.pos)
		if err != nil {
			return err
		}
		tok.Value, tok.HasValue, tok.raw = v.text, true, v.raw
	}
	ts.emit(tok)
	return nil
}

// short handles -X, -XPOST, -X POST and bundled booleans like -sSLk. A
// value-taking letter consumes the rest of the word, or the next word when
// it is last in the bundle.
func (ts *tokenStream) short(w word) error {
	letters := w.text[1:]
	for j := 0; j < len(letters); j++ {
		c := letters[j]
		flag := "-" + string(c)
		def := lookupShort(c)

		tok := Token{Kind: TokenFlag, Name: flag, Pos: w.pos + 1 + j, flag: def.id}
		if !def.takesValue {
			ts.emit(tok)
			continue
		}

		if rest := letters[j+1:]; rest != "" {
			tok.Value = rest
			tok.raw = shiftSpans(w.raw, j+2)
		} else {
			v, err := ts.value(flag, tok.Pos)
			if err != nil {
				return err
			}
			tok.Value, tok.raw = v.text, v.raw
		}
		tok.HasValue = true
		ts.emit(tok)
		return nil
	}
	return nil
}
