package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("package q\n\n"+body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLintPaths(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "ok.go", "const QOk = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;\n`\n")
	writeGo(t, dir, "dup.go", "const QDup = `--sql 11111111-2222-4333-8444-555555555555\nupdate t set a = 1;\n`\n")
	writeGo(t, dir, "bad.go", "const QBad = `\nselect * from users;\n`\nconst QEmpty = `--sql 99999999-2222-4333-8444-555555555555\n`\n")
	writeGo(t, dir, "prose.go", "const msg = \"update notification setting failed\"\nconst note = \"please select a style\"\n")
	writeGo(t, dir, "skip_test.go", "const QTest = `select 1`\n")

	violations, err := lintPaths([]string{dir})
	if err != nil {
		t.Fatalf("lintPaths: %v", err)
	}

	got := map[string]string{}
	for _, v := range violations {
		got[v.name] = v.message
	}
	if len(got) != 3 {
		t.Fatalf("violations = %+v", violations)
	}
	if !strings.Contains(got["QBad"], "missing or invalid") {
		t.Errorf("QBad: %q", got["QBad"])
	}
	if !strings.Contains(got["QEmpty"], "without a statement") {
		t.Errorf("QEmpty: %q", got["QEmpty"])
	}
	if !strings.Contains(got["QDup"], "already used by QOk") && !strings.Contains(got["QOk"], "already used by QDup") {
		t.Errorf("duplicate not reported: %+v", got)
	}
}

func TestLintPathsRepoQueries(t *testing.T) {
	violations, err := lintPaths([]string{"../../sqlinline"})
	if err != nil {
		t.Fatalf("lintPaths: %v", err)
	}
	for _, v := range violations {
		t.Errorf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
	}
}
