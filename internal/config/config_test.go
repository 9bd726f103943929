package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mojifix/internal/repair"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[scan]
extension = ".markdown"
encodings = ["utf-8", "gbk"]

[[rules.structure]]
from = "�?  ├── kotlin"
to = "│  ├── kotlin"

[[rules.text]]
from = "部署�?"
to = "部署。"

[[rules.text]]
from = "测试�?"
to = "测试。"
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Config.Scan.Extension != ".markdown" {
		t.Errorf("extension = %q", f.Config.Scan.Extension)
	}
	if got := strings.Join(f.Config.Scan.Encodings, ","); got != "utf-8,gbk" {
		t.Errorf("encodings = %q", got)
	}
	rs := f.Config.RuleSet()
	base := repair.DefaultRules()
	if len(rs.Text) != len(base.Text)+2 || len(rs.Structure) != len(base.Structure)+1 {
		t.Fatalf("unexpected rule counts %d/%d", len(rs.Structure), len(rs.Text))
	}
	if rs.Text[len(rs.Text)-1].From != "测试�?" {
		t.Errorf("config rules out of order: %+v", rs.Text[len(rs.Text)-2:])
	}
	if got := rs.Transform("部署�?"); got != "部署。" {
		t.Errorf("Transform = %q", got)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[scan\n", "failed to parse TOML"},
		{"extension", "[scan]\nextension = \"md\"\n", "must start with '.'"},
		{"encoding", "[scan]\nencodings = [\"utf-7\"]\n", "unknown encoding"},
		{"empty encodings", "[scan]\nencodings = []\n", "empty"},
		{"missing from", "[[rules.text]]\nto = \"x\"\n", "missing from"},
		{"noop rule", "[[rules.text]]\nfrom = \"x\"\nto = \"x\"\n", "identical"},
		{"unknown key", "[scan]\nextensions = \".md\"\n", "unknown key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[scan]\nextension = \".mdx\"\n")
	nested := filepath.Join(root, "docs", "guide")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file := filepath.Join(nested, "intro.mdx")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, start := range []string{nested, file} {
		f, ok, err := Discover(start)
		if err != nil || !ok {
			t.Fatalf("Discover(%s): ok=%v err=%v", start, ok, err)
		}
		if f.Config.Scan.Extension != ".mdx" {
			t.Errorf("extension = %q", f.Config.Scan.Extension)
		}
	}
}

func TestFindWithoutConfig(t *testing.T) {
	dir := t.TempDir()
	path, ok, err := Find(dir)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	// a mojifix.toml above the temp dir would make this test environment dependent
	if ok && strings.HasPrefix(path, dir) {
		t.Errorf("unexpected config inside temp dir: %s", path)
	}
}
