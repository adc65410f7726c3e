package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no script", nil},
		{"wrong extension", []string{"model.smd"}},
		{"two scripts", []string{"a.qc", "b.qc"}},
		{"unknown flag", []string{"-x", "a.qc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(tt.args); code != 1 {
				t.Errorf("run(%v) = %d, want 1", tt.args, code)
			}
		})
	}
}

func TestRunWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studiomdl.yaml")
	if code := run([]string{"-b", "-write-config", path}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("empty config written")
	}
}
