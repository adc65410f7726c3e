// Package tokenizer splits QC scripts and SMD sources into line-aware tokens.
//
// Tokens are whitespace delimited. A double-quoted string is one token with
// the quotes removed, braces are tokens of their own, and ";", "#" or "//"
// at the start of a token comment out the rest of the line. A ";" also ends
// the word before it.
package tokenizer

import (
	"errors"
	"fmt"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/pkg/encoding"
)

const (
	tokenWord = iota
	tokenQuoted
	tokenBrace
	tokenNewline
)

// ErrEOF is returned when the input ends while a token is still required.
var ErrEOF = errors.New("unexpected end of file")

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`//[^\n]*`), skip)
	lexer.Add([]byte(`;[^\n]*`), skip)
	lexer.Add([]byte(`#[^\n]*`), skip)
	lexer.Add([]byte(`\n`), token(tokenNewline))
	lexer.Add([]byte(`[ \t\r]+`), skip)
	lexer.Add([]byte(`"[^"\n]*"`), token(tokenQuoted))
	lexer.Add([]byte(`[{}]`), token(tokenBrace))
	lexer.Add([]byte(`[^ \t\r\n";{}]+`), token(tokenWord))
	if err := lexer.Compile(); err != nil {
		panic(fmt.Sprintf("tokenizer: compiling lexer: %v", err))
	}
}

func token(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

type item struct {
	text    string
	line    int
	newline bool
}

// Scanner hands out tokens of one file.
type Scanner struct {
	file  string
	items []item
	pos   int
	last  int
}

// New tokenizes data. Legacy 8-bit text is decoded first.
func New(file string, data []byte) (*Scanner, error) {
	scan, err := lexer.Scanner(encoding.DecodeLegacy(data))
	if err != nil {
		return nil, diag.Malformed(file, 0, "creating scanner: %v", err)
	}

	s := &Scanner{file: file, last: -1}
	for tok, err, eos := scan.Next(); !eos; tok, err, eos = scan.Next() {
		if err != nil {
			var ui *machines.UnconsumedInput
			if errors.As(err, &ui) {
				return nil, diag.Malformed(file, ui.StartLine, "unexpected input: %v", ui)
			}
			return nil, diag.Malformed(file, 0, "%v", err)
		}
		t := tok.(*lexmachine.Token)
		text := t.Value.(string)
		switch t.Type {
		case tokenNewline:
			// Consecutive newlines collapse into one.
			if n := len(s.items); n == 0 || s.items[n-1].newline {
				continue
			}
			s.items = append(s.items, item{line: t.StartLine, newline: true})
		case tokenQuoted:
			s.items = append(s.items, item{text: text[1 : len(text)-1], line: t.StartLine})
		default:
			s.items = append(s.items, item{text: text, line: t.StartLine})
		}
	}
	return s, nil
}

// File returns the name the scanner was created with.
func (s *Scanner) File() string {
	return s.file
}

// Next returns the next token. Unless crossLine is set, reaching the end of
// the current line is an error.
func (s *Scanner) Next(crossLine bool) (string, error) {
	for s.pos < len(s.items) && s.items[s.pos].newline {
		if !crossLine {
			return "", s.Errorf("line %d is incomplete", s.items[s.pos].line)
		}
		s.pos++
	}
	if s.pos >= len(s.items) {
		return "", fmt.Errorf("%w: %w", ErrEOF, s.Errorf("unexpected end of file"))
	}
	s.last = s.pos
	s.pos++
	return s.items[s.last].text, nil
}

// More reports whether another token follows on the current line.
func (s *Scanner) More() bool {
	return s.pos < len(s.items) && !s.items[s.pos].newline
}

// Done reports whether the input is exhausted.
func (s *Scanner) Done() bool {
	for i := s.pos; i < len(s.items); i++ {
		if !s.items[i].newline {
			return false
		}
	}
	return true
}

// Unget pushes the last token back.
func (s *Scanner) Unget() {
	if s.last >= 0 {
		s.pos = s.last
		s.last = -1
	}
}

// SkipLine discards the remaining tokens of the current line.
func (s *Scanner) SkipLine() {
	for s.More() {
		s.pos++
	}
}

// Line returns the line of the last returned token.
func (s *Scanner) Line() int {
	switch {
	case s.last >= 0:
		return s.items[s.last].line
	case s.pos < len(s.items):
		return s.items[s.pos].line
	case len(s.items) > 0:
		return s.items[len(s.items)-1].line
	default:
		return 0
	}
}

// Errorf returns a malformed-input error at the current line.
func (s *Scanner) Errorf(format string, args ...any) *diag.Error {
	return diag.Malformed(s.file, s.Line(), format, args...)
}
