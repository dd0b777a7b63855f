package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vitalics/folio/analytics"
)

func TestToTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my-blog", "My Blog"},
		{"myblog", "Myblog"},
		{"a-b-c", "A B C"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := toTitle(tt.in); got != tt.want {
			t.Errorf("toTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAuthorSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe", "jane-doe"},
		{"Myblog", "myblog"},
		{"Петя", "author"},
	}
	for _, tt := range tests {
		if got := authorSlug(tt.in); got != tt.want {
			t.Errorf("authorSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-site")
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	if err := runNew(io.Discard, dir, "Jane Doe", now); err != nil {
		t.Fatalf("runNew: %v", err)
	}

	for _, f := range []string{
		"config.yaml",
		"content/blog/hello-world.md",
		"content/authors/jane-doe.md",
		"content/projects/folio.md",
		"public/.gitkeep",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}

	cfg, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cfg), "name: My Site") {
		t.Errorf("config.yaml missing site name:\n%s", cfg)
	}

	post, err := os.ReadFile(filepath.Join(dir, "content/blog/hello-world.md"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"date: 2025-01-02", "authors: [jane-doe]"} {
		if !strings.Contains(string(post), want) {
			t.Errorf("hello-world.md missing %q", want)
		}
	}
}

func TestRunNewExistingDir(t *testing.T) {
	dir := t.TempDir()
	if err := runNew(io.Discard, dir, "", time.Now()); err == nil {
		t.Fatal("expected error for existing directory")
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := out.String(), "folio dev\n"; got != want {
		t.Errorf("version output = %q, want %q", got, want)
	}
}

func TestPrintStats(t *testing.T) {
	s := &analytics.Stats{
		Period:     "week",
		TotalViews: 42,
		TopPages:   []analytics.PageStat{{Path: "/blog/hello", Views: 40}},
		TopQueries: []analytics.QueryStat{{Query: "golang", Count: 3, Hits: 2}},
	}
	var out bytes.Buffer
	if err := printStats(&out, s); err != nil {
		t.Fatalf("printStats: %v", err)
	}

	for _, want := range []string{"Period: week", "42", "/blog/hello", "golang", "Top pages"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stats output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "Browsers") {
		t.Error("empty breakdown printed")
	}
}
