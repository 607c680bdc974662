package vcd

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
)

// Lexer splits a dump into whitespace-separated words. Identifier codes may
// be any printable string, including ones that look like "#0" or "$a", so
// words are classified by position in Tokenize, not by lexer rule.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Word", Pattern: `[^\s]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// TokenKind tags a classified VCD token.
type TokenKind int

const (
	TokIgnored        TokenKind = iota // $date, $version, $comment, $dumpvars, ...
	TokTimescale                       // Args: the words between $timescale and $end
	TokScope                           // Args: kind, name
	TokUpscope                         //
	TokVar                             // Args: type, size, code, name[, range]
	TokEndDefinitions                  //
	TokCycle                           // Cycle
	TokScalar                          // Value (one of 0 1 x z), Code
	TokVector                          // Value (bits), Code
	TokReal                            // Value (number text), Code
)

var tokenKindNames = [...]string{
	TokIgnored:        "ignored",
	TokTimescale:      "$timescale",
	TokScope:          "$scope",
	TokUpscope:        "$upscope",
	TokVar:            "$var",
	TokEndDefinitions: "$enddefinitions",
	TokCycle:          "cycle",
	TokScalar:         "scalar change",
	TokVector:         "vector change",
	TokReal:           "real change",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Token is one classified element of a dump.
type Token struct {
	Kind  TokenKind
	Line  int
	Args  []string
	Cycle uint64
	Value string
	Code  string
}

// directives whose arguments run up to a closing $end
var blockDirectives = map[string]TokenKind{
	"$timescale":      TokTimescale,
	"$scope":          TokScope,
	"$upscope":        TokUpscope,
	"$var":            TokVar,
	"$enddefinitions": TokEndDefinitions,
	"$date":           TokIgnored,
	"$version":        TokIgnored,
	"$comment":        TokIgnored,
}

// keyword reports whether w is a directive keyword such as "$var".
func keyword(w string) bool {
	if len(w) < 2 || w[0] != '$' {
		return false
	}
	for _, c := range w[1:] {
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

func isEnd(w string) bool {
	return strings.EqualFold(w, "$end")
}

// Tokenize runs the lexical classification pass over a whole dump.
func Tokenize(r io.Reader, source string) ([]Token, error) {
	lex, err := Lexer.Lex(source, r)
	if err != nil {
		return nil, err
	}
	wsType := Lexer.Symbols()["Whitespace"]

	var raw []lexer.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, errors.New(errors.KindParse).Source(source).Cause(err).Build()
		}
		if tok.EOF() {
			break
		}
		if tok.Type == wsType {
			continue
		}
		raw = append(raw, tok)
	}

	fail := func(tok lexer.Token, format string, args ...any) error {
		return errors.New(errors.KindParse).
			Source(source).
			Line(tok.Pos.Line).
			Detail(format, args...).
			Build()
	}

	var out []Token
	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		word := tok.Value

		switch {
		case keyword(word):
			kw := strings.ToLower(word)
			kind, block := blockDirectives[kw]
			if !block {
				// $dumpvars, $dumpall, $dumpon, $dumpoff and their closing $end
				continue
			}

			var args []string
			// type, size and identifier code are taken verbatim
			if kind == TokVar {
				for len(args) < 3 && i+1 < len(raw) {
					i++
					args = append(args, raw[i].Value)
				}
			}
			closed := false
			for i+1 < len(raw) {
				i++
				next := raw[i]
				if isEnd(next.Value) {
					closed = true
					break
				}
				if kind != TokIgnored && keyword(next.Value) {
					return nil, fail(next, "unexpected %s inside %s", next.Value, kw)
				}
				args = append(args, next.Value)
			}
			if !closed {
				return nil, fail(tok, "missing $end for %s", kw)
			}
			out = append(out, Token{Kind: kind, Line: tok.Pos.Line, Args: args})

		case word[0] == '#':
			n, err := strconv.ParseUint(word[1:], 10, 64)
			if err != nil {
				return nil, fail(tok, "invalid cycle marker %q", word)
			}
			out = append(out, Token{Kind: TokCycle, Line: tok.Pos.Line, Cycle: n})

		default:
			switch c := word[0]; c {
			case 'b', 'B', 'r', 'R':
				// the next word is the code, whatever it looks like
				if i+1 >= len(raw) {
					return nil, fail(tok, "missing identifier code after %q", word)
				}
				kind := TokVector
				if c == 'r' || c == 'R' {
					kind = TokReal
				}
				out = append(out, Token{
					Kind:  kind,
					Line:  tok.Pos.Line,
					Value: word[1:],
					Code:  raw[i+1].Value,
				})
				i++
			case '0', '1', 'x', 'X', 'z', 'Z':
				if len(word) < 2 {
					return nil, fail(tok, "missing identifier code after %q", word)
				}
				out = append(out, Token{
					Kind:  TokScalar,
					Line:  tok.Pos.Line,
					Value: strings.ToLower(word[:1]),
					Code:  word[1:],
				})
			default:
				return nil, fail(tok, "unexpected token %q", word)
			}
		}
	}

	return out, nil
}
