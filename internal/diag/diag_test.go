package diag

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{Malformed("a.qc", 3, "bad %s", "token"), "a.qc:3: bad token"},
		{&Error{Kind: KindMalformed, File: "a.smd", Msg: "x"}, "a.smd: x"},
		{Link("unknown bone %q", "Head"), `unknown bone "Head"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestList(t *testing.T) {
	var l List
	if l.Err() != nil {
		t.Fatal("empty list should be nil")
	}
	l.Add(nil)
	l.Add(Link("first"))
	l.Add(Link("second"))
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	msg := l.Err().Error()
	if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
		t.Errorf("combined error %q missing messages", msg)
	}
	if !IsKind(l.Err(), KindLink) {
		t.Error("IsKind(KindLink) = false")
	}
	if IsKind(l.Err(), KindLimit) {
		t.Error("IsKind(KindLimit) = true")
	}
}

func TestCapacityIsLinkKind(t *testing.T) {
	err := Capacity("too many bones (max %d)", 127)
	if err.Kind != KindLink || err.Error() != "too many bones (max 127)" {
		t.Errorf("Capacity() = %+v", err)
	}
	if IsKind(err, KindLimit) {
		t.Error("capacity error reported as limit")
	}
}

func TestIsKindWrapped(t *testing.T) {
	err := fmt.Errorf("writing: %w", Limit("too big"))
	if !IsKind(err, KindLimit) {
		t.Error("wrapped limit error not detected")
	}
}
