package template

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/curlspec/packages/builtin"
	"github.com/tidwall/gjson"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

type segment struct {
	text   string // literal text, or the trimmed expression
	pos    int
	isExpr bool
}

// Template is a compiled command template. It is immutable and safe to
// execute concurrently.
type Template struct {
	segments []segment
}

// Compile splits src into literal text and placeholder expressions. An
// unclosed {{, a nested {{ or an empty expression is an error. A lone }}
// outside a placeholder is literal text, so JSON bodies render untouched.
func Compile(src string) (*Template, error) {
	t := &Template{}
	i := 0
	for i < len(src) {
		open := strings.Index(src[i:], openDelim)
		if open < 0 {
			t.segments = append(t.segments, segment{text: src[i:], pos: i})
			break
		}
		open += i
		if open > i {
			t.segments = append(t.segments, segment{text: src[i:open], pos: i})
		}

		exprStart := open + len(openDelim)
		end := strings.Index(src[exprStart:], closeDelim)
		if end < 0 {
			return nil, &Error{Pos: open, Reason: "unclosed placeholder"}
		}
		raw := src[exprStart : exprStart+end]
		if nested := strings.Index(raw, openDelim); nested >= 0 {
			return nil, &Error{Pos: exprStart + nested, Reason: "unbalanced placeholder delimiters"}
		}
		expr := strings.TrimSpace(raw)
		if expr == "" {
			return nil, &Error{Pos: open, Reason: "empty placeholder"}
		}

		t.segments = append(t.segments, segment{text: expr, pos: open, isExpr: true})
		i = exprStart + end + len(closeDelim)
	}
	return t, nil
}

// Execute renders the template. funcs may be nil, in which case a default
// registry is created only if the template calls a function.
func (t *Template) Execute(vars map[string]any, funcs *builtin.Registry) (string, error) {
	var sb strings.Builder
	sc := &scope{vars: vars, funcs: funcs}

	for _, seg := range t.segments {
		if !seg.isExpr {
			sb.WriteString(seg.text)
			continue
		}
		v, err := sc.eval(seg)
		if err != nil {
			return "", err
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}

type scope struct {
	vars  map[string]any
	funcs *builtin.Registry

	encoded []byte
	encErr  error
}

func (s *scope) eval(seg segment) (string, error) {
	if name, args, ok := builtin.ParseCall(seg.text); ok {
		return s.call(seg, name, args)
	}
	v, ok, err := s.lookup(seg.text)
	if err != nil {
		return "", &Error{Pos: seg.pos, Expr: seg.text, Reason: err.Error()}
	}
	if !ok {
		return "", &Error{Pos: seg.pos, Expr: seg.text, Reason: "undefined variable"}
	}
	return v, nil
}

func (s *scope) call(seg segment, name string, args []builtin.Arg) (string, error) {
	if s.funcs == nil {
		s.funcs = builtin.NewRegistry()
	}
	values := make([]string, len(args))
	for i, a := range args {
		values[i] = a.Value
		if a.Quoted {
			continue
		}
		if v, ok, _ := s.lookup(a.Value); ok {
			values[i] = v
		}
	}
	out, err := s.funcs.Call(name, values)
	if err != nil {
		return "", &Error{Pos: seg.pos, Expr: seg.text, Reason: err.Error()}
	}
	return out, nil
}

// lookup resolves a top-level key first, then a gjson path over the JSON
// encoding of the context.
func (s *scope) lookup(path string) (string, bool, error) {
	if v, ok := s.vars[path]; ok {
		str, err := stringify(v)
		return str, err == nil, err
	}
	if s.encoded == nil && s.encErr == nil {
		s.encoded, s.encErr = json.Marshal(s.vars)
	}
	if s.encErr != nil {
		return "", false, fmt.Errorf("encoding context: %w", s.encErr)
	}
	res := gjson.GetBytes(s.encoded, path)
	if !res.Exists() {
		return "", false, nil
	}
	return stringifyResult(res), true, nil
}

func stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return stringifyResult(gjson.ParseBytes(data)), nil
}

// stringifyResult renders strings bare, null as empty and everything else
// as compact JSON.
func stringifyResult(res gjson.Result) string {
	switch res.Type {
	case gjson.String:
		return res.Str
	case gjson.Null:
		return ""
	default:
		return res.Raw
	}
}

// Render is the single-shot form: it compiles and executes without caching.
// A nil vars map returns text unchanged without compiling it.
func Render(text string, vars map[string]any) (string, error) {
	if vars == nil {
		return text, nil
	}
	t, err := Compile(text)
	if err != nil {
		return "", err
	}
	return t.Execute(vars, nil)
}
