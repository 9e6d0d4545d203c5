package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"bt/interpreter-go/pkg/driver"
)

func chdirT(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(old)
	})
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return buf.String()
}

func TestRunTemplateAgainstFile(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "magic.bt")
	dataPath := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(templatePath, []byte("char magic[4]; uint32 size;"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := os.WriteFile(dataPath, []byte{0x50, 0x4B, 0x03, 0x04, 0x2A, 0, 0, 0}, 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}

	var code int
	out := captureStdout(t, func() {
		code = run([]string{"run", templatePath, dataPath})
	})
	if code != 0 {
		t.Fatalf("expected success, got exit code %d", code)
	}
	if !strings.Contains(out, "magic") || !strings.Contains(out, "= 42") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRunReportsInterpreterFailure(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "bad.bt")
	dataPath := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(templatePath, []byte("local int x = 1/0;"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := os.WriteFile(dataPath, []byte{0}, 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if code := run([]string{"run", templatePath, dataPath}); code == 0 {
		t.Fatalf("expected failure exit code")
	}
}

func TestRunResolvesManifestTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := `
name: pack
templates:
  magic:
    main: templates/magic.bt
`
	if err := os.WriteFile(filepath.Join(dir, "template.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "templates", "magic.bt"), []byte("uchar a;"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	dataPath := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(dataPath, []byte{9}, 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}

	chdirT(t, dir)
	var code int
	out := captureStdout(t, func() {
		code = run([]string{"run", "magic", dataPath})
	})
	if code != 0 {
		t.Fatalf("expected success, got exit code %d", code)
	}
	if !strings.Contains(out, "uchar a") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

// commitTemplatePack initialises a git repo holding a template pack and
// returns its path.
func commitTemplatePack(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "common.bt"), []byte("uchar tag;"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := worktree.Add("common.bt"); err != nil {
		t.Fatalf("git add: %v", err)
	}
	_, err = worktree.Commit("add common template", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("git commit: %v", err)
	}
	return dir
}

func TestDepsInstallFetchesGitDependency(t *testing.T) {
	packRepo := commitTemplatePack(t)

	dir := t.TempDir()
	manifest := "name: consumer\ndependencies:\n  common:\n    git: " + packRepo + "\n"
	if err := os.WriteFile(filepath.Join(dir, "template.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	chdirT(t, dir)
	var code int
	out := captureStdout(t, func() {
		code = runDeps([]string{"install"})
	})
	if code != 0 {
		t.Fatalf("expected success, output:\n%s", out)
	}
	fetched := filepath.Join(dir, packsDir, "common", "common.bt")
	if _, err := os.Stat(fetched); err != nil {
		t.Fatalf("expected fetched template at %s: %v", fetched, err)
	}

	// A second install is idempotent.
	if code := runDeps([]string{"install"}); code != 0 {
		t.Fatalf("expected idempotent reinstall to succeed")
	}
}

func TestDepsInstallPathDependency(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sibling"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := "name: consumer\ndependencies:\n  sibling:\n    path: ./sibling\n"
	if err := os.WriteFile(filepath.Join(dir, "template.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	chdirT(t, dir)
	if code := runDeps([]string{"install"}); code != 0 {
		t.Fatalf("expected success for existing path dependency")
	}

	missing := "name: consumer\ndependencies:\n  gone:\n    path: ./missing\n"
	if err := os.WriteFile(filepath.Join(dir, "template.yml"), []byte(missing), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if code := runDeps([]string{"install"}); code == 0 {
		t.Fatalf("expected failure for missing path dependency")
	}
}

func TestGitRevisionSelection(t *testing.T) {
	cases := []struct {
		dep  driver.DependencySpec
		want string
	}{
		{driver.DependencySpec{Rev: "abc123"}, "abc123"},
		{driver.DependencySpec{Tag: "v1.0.0"}, "refs/tags/v1.0.0"},
		{driver.DependencySpec{Branch: "main"}, "refs/remotes/origin/main"},
		{driver.DependencySpec{}, "HEAD"},
	}
	for _, c := range cases {
		if got := string(gitRevision(&c.dep)); got != c.want {
			t.Fatalf("expected %q, got %q", c.want, got)
		}
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "template.yml"), []byte("name: p\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	found, err := findManifest(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(found) != dir {
		t.Fatalf("expected manifest in %s, found %s", dir, found)
	}
}
