package tokenizer

import (
	"errors"
	"testing"

	"github.com/Faultbox/studiomdl/internal/diag"
)

func collect(t *testing.T, src string) []string {
	t.Helper()
	s, err := New("test.qc", []byte(src))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var out []string
	for !s.Done() {
		tok, err := s.Next(true)
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, tok)
	}
	return out
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"words", "$modelname out.mdl\n", []string{"$modelname", "out.mdl"}},
		{"quoted", `$body "main body" "ref mesh"`, []string{"$body", "main body", "ref mesh"}},
		{"braces", "$sequence idle {\n idle\n}", []string{"$sequence", "idle", "{", "idle", "}"}},
		{"comments", "// header\n$scale 1.0 ; trailing\n# hash\n$gamma 2.2 // more", []string{"$scale", "1.0", "$gamma", "2.2"}},
		{"crlf", "$cd .\r\n$cdtexture ./tex\r\n", []string{"$cd", ".", "$cdtexture", "./tex"}},
		{"number then semicolon", "frame 0 10;comment\n$scale 2", []string{"frame", "0", "10", "$scale", "2"}},
		{"word then semicolon", "idle;x y\nwalk", []string{"idle", "walk"}},
		{"hash inside word", "a#b", []string{"a#b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tt.src)
			if len(got) != len(tt.want) {
				t.Fatalf("tokens = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLineAwareness(t *testing.T) {
	s, err := New("test.qc", []byte("$origin 0 0\n$scale 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if tok, _ := s.Next(true); tok != "$origin" {
		t.Fatalf("first = %q", tok)
	}
	first := s.Line()
	n := 0
	for s.More() {
		if _, err := s.Next(false); err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 2 {
		t.Errorf("args on line = %d, want 2", n)
	}
	_, err = s.Next(false)
	var de *diag.Error
	if !errors.As(err, &de) || de.Kind != diag.KindMalformed {
		t.Fatalf("Next(false) at EOL error = %v, want malformed", err)
	}
	if tok, _ := s.Next(true); tok != "$scale" {
		t.Fatalf("next line = %q", tok)
	}
	if s.Line() <= first {
		t.Errorf("line did not advance: %d <= %d", s.Line(), first)
	}

	s.Unget()
	if tok, _ := s.Next(true); tok != "$scale" {
		t.Errorf("after Unget = %q", tok)
	}
	s.SkipLine()
	if _, err := s.Next(true); !errors.Is(err, ErrEOF) {
		t.Errorf("error at end = %v, want ErrEOF", err)
	}
}

func TestUnterminatedQuote(t *testing.T) {
	if _, err := New("bad.qc", []byte(`$body "oops`)); err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}

func TestLegacyText(t *testing.T) {
	got := collect(t, "$texture caf\xe9.bmp")
	if len(got) != 2 || got[1] != "café.bmp" {
		t.Errorf("tokens = %q", got)
	}
}
