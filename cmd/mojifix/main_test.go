package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(append([]string{"--color", "off"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir %s: %v", old, err)
		}
	})
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestMissingArgumentPrintsUsage(t *testing.T) {
	code, stdout, stderr := runCLI(t)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !strings.HasPrefix(stderr, "Usage: mojifix [flags] <directory_or_file>") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRejectsNonMarkdownFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, "用户�?")

	code, stdout, stderr := runCLI(t, path)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	want := "Error: " + path + " is not a valid directory or markdown file.\n"
	if stderr != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}
	if got := readFile(t, path); got != "用户�?" {
		t.Errorf("file was modified: %q", got)
	}
}

func TestRejectsMissingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")
	code, _, stderr := runCLI(t, path)
	if code != 1 || !strings.Contains(stderr, "is not a valid directory or markdown file.") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestBrokenConfigStillRejectsNonMarkdownFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mojifix.toml"), "[scan\n")
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "用户�?")

	code, _, stderr := runCLI(t, path)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if want := "Error: " + path + " is not a valid directory or markdown file.\n"; stderr != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}
}

func TestDirectoryNamedLikeSubcommand(t *testing.T) {
	for _, name := range []string{"rules", "version", "help", "completion"} {
		t.Run(name, func(t *testing.T) {
			base := t.TempDir()
			doc := filepath.Join(base, name, "a.md")
			writeFile(t, doc, "用户�?")
			chdir(t, base)

			code, stdout, stderr := runCLI(t, name)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr %q", code, stderr)
			}
			if !strings.Contains(stdout, "Scanning directory: ") || !strings.Contains(stdout, "Files with fixed encoding: 1") {
				t.Errorf("stdout = %q", stdout)
			}
			if got := readFile(t, doc); got != "用户名" {
				t.Errorf("content = %q", got)
			}
		})
	}
}

func TestSubcommandsWithoutMatchingPath(t *testing.T) {
	chdir(t, t.TempDir())
	code, stdout, _ := runCLI(t, "version")
	if code != 0 || !strings.HasPrefix(stdout, "mojifix ") {
		t.Errorf("code=%d stdout=%q", code, stdout)
	}
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "a.md")
	clean := filepath.Join(dir, "sub", "b.md")
	writeFile(t, broken, "请输入用户�?\n")
	writeFile(t, clean, "nothing to see\n")
	writeFile(t, filepath.Join(dir, "c.txt"), "用户�?")

	code, stdout, stderr := runCLI(t, dir)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	want := "Scanning directory: " + dir + "\n" +
		"Fixed encoding issues in: " + broken + "\n" +
		"\nSummary:\n" +
		"Total files scanned: 2\n" +
		"Files with fixed encoding: 1\n"
	if stdout != want {
		t.Errorf("stdout =\n%s\nwant\n%s", stdout, want)
	}
	if got := readFile(t, broken); got != "请输入用户名\n" {
		t.Errorf("repaired content = %q", got)
	}
}

func TestScanDirectoryQuiet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "用户�?")

	code, stdout, _ := runCLI(t, "--quiet", dir)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	want := "\nSummary:\nTotal files scanned: 1\nFiles with fixed encoding: 1\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestSingleFile(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.md")
	clean := filepath.Join(dir, "clean.md")
	writeFile(t, broken, "�?  ├── java\n")
	writeFile(t, clean, "fine\n")

	code, stdout, _ := runCLI(t, broken)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if want := "Processing file: " + broken + "\nFixed encoding issues in: " + broken + "\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if got := readFile(t, broken); got != "│  ├── java\n" {
		t.Errorf("content = %q", got)
	}

	code, stdout, _ = runCLI(t, clean)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if want := "Processing file: " + clean + "\nNo encoding issues found or could not fix: " + clean + "\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestDryRunLeavesFilesAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeFile(t, path, "用户�?")

	code, stdout, _ := runCLI(t, "--dry-run", dir)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "Would fix encoding issues in: "+path) {
		t.Errorf("missing dry-run line in %q", stdout)
	}
	if !strings.Contains(stdout, "Files that would be fixed: 1") {
		t.Errorf("missing dry-run summary in %q", stdout)
	}
	if got := readFile(t, path); got != "用户�?" {
		t.Errorf("dry run wrote the file: %q", got)
	}
}

func TestJSONSummary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "用户�?")
	writeFile(t, filepath.Join(dir, "b.md"), "ok")
	writeFile(t, filepath.Join(dir, "c.md"), string([]byte{'c', 'a', 'f', 0xe9}))

	code, stdout, stderr := runCLI(t, "--format", "json", dir)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stderr, "Scanning directory: "+dir) {
		t.Errorf("progress should go to stderr, got %q", stderr)
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if payload.Scanned != 3 || payload.Fixed != 1 || len(payload.Files) != 3 {
		t.Fatalf("payload = %+v", payload)
	}
	if f := payload.Files[0]; !f.Changed || f.Encoding != "utf-8" {
		t.Errorf("a.md = %+v", f)
	}
	if f := payload.Files[2]; f.Changed || f.Encoding != "latin1" {
		t.Errorf("c.md = %+v", f)
	}
	if payload.Timings != nil {
		t.Errorf("timings present without --timings")
	}
}

func TestConfigExtendsRulesAndExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mojifix.toml"), `
[scan]
extension = ".markdown"

[[rules.text]]
from = "部署�?"
to = "部署。"
`)
	doc := filepath.Join(dir, "guide.markdown")
	writeFile(t, doc, "完成部署�?")
	writeFile(t, filepath.Join(dir, "ignored.md"), "用户�?")

	code, stdout, stderr := runCLI(t, dir)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	if !strings.Contains(stdout, "Total files scanned: 1\n") {
		t.Errorf("stdout = %q", stdout)
	}
	if got := readFile(t, doc); got != "完成部署。" {
		t.Errorf("content = %q", got)
	}

	// flags win over the config file
	code, stdout, _ = runCLI(t, "--ext", ".md", dir)
	if code != 0 || !strings.Contains(stdout, "Fixed encoding issues in: "+filepath.Join(dir, "ignored.md")) {
		t.Errorf("code=%d stdout=%q", code, stdout)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mojifix.toml"), "[scan]\nencodings = [\"ebcdic\"]\n")
	path := filepath.Join(dir, "a.md")
	writeFile(t, path, "用户�?")

	code, stdout, stderr := runCLI(t, dir)
	if code != 1 || stdout != "" {
		t.Fatalf("code=%d stdout=%q", code, stdout)
	}
	if !strings.Contains(stderr, "unknown encoding") {
		t.Errorf("stderr = %q", stderr)
	}
	if got := readFile(t, path); got != "用户�?" {
		t.Errorf("file touched despite bad config: %q", got)
	}
}

func TestInvalidFlagValues(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"ext", []string{"--ext", "md", dir}, "must start with '.'"},
		{"encodings", []string{"--encodings", "utf-8,klingon", dir}, "unknown encoding"},
		{"format", []string{"--format", "xml", dir}, "unsupported format"},
		{"ui", []string{"--ui", "maybe", dir}, "invalid --ui value"},
		{"trace level", []string{"--trace-level", "loud", dir}, "invalid trace level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != 1 || !strings.Contains(stderr, tt.want) {
				t.Fatalf("code=%d stderr=%q, want %q", code, stderr, tt.want)
			}
		})
	}
}

func TestTraceToFile(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "docs", "a.md")
	writeFile(t, doc, "用户�?")
	tracePath := filepath.Join(dir, "trace.ndjson")

	code, _, stderr := runCLI(t, "--trace", tracePath, filepath.Join(dir, "docs"))
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(readFile(t, tracePath)), "\n")
	if len(lines) < 4 {
		t.Fatalf("expected driver and file spans, got %d lines", len(lines))
	}
	for _, line := range lines {
		var ev map[string]any
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("bad trace line %q: %v", line, err)
		}
	}
	if !strings.Contains(strings.Join(lines, "\n"), doc) {
		t.Errorf("trace does not mention %s", doc)
	}
}

func TestRulesCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mojifix.toml"), "[[rules.structure]]\nfrom = \"�?  ├── kotlin\"\nto = \"│  ├── kotlin\"\n")

	code, stdout, stderr := runCLI(t, "rules", dir)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	for _, want := range []string{"config: ", "structure:", "text:", `"用户�?" -> "用户名"`, "kotlin"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("rules output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Index(stdout, "application.properties") > strings.Index(stdout, "kotlin") {
		t.Errorf("config rule listed before built-ins")
	}
}

func TestVersionJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, "version", "--format", "json", "--hash")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Tool != "mojifix" || payload.Version == "" || payload.GitCommit == "" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.BuildDate != "" {
		t.Errorf("build date should be omitted without --date")
	}
}

func TestProfilingFlags(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "a.md"), "用户�?")
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")

	code, _, stderr := runCLI(t, "--quiet", "--cpu-profile", cpu, "--mem-profile", mem, filepath.Join(dir, "docs"))
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	for _, p := range []string{cpu, mem} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("profile not written: %v", err)
		}
	}
}
