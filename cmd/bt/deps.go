package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"bt/interpreter-go/pkg/driver"
)

// packsDir is where fetched template packs land, relative to the manifest.
const packsDir = ".bt/packs"

func runDeps(args []string) int {
	if len(args) != 1 || args[0] != "install" {
		fmt.Fprintln(os.Stderr, "usage: bt deps install")
		return 1
	}
	manifestPath, err := findManifest(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate manifest: %v\n", err)
		return 1
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	if len(manifest.Dependencies) == 0 {
		fmt.Fprintln(os.Stdout, "no dependencies to install")
		return 0
	}

	baseDir := filepath.Join(filepath.Dir(manifest.Path), packsDir)
	failed := 0
	for name, dep := range manifest.Dependencies {
		if err := installDependency(baseDir, manifest.Path, name, dep); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "installed %s\n", name)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func installDependency(baseDir, manifestPath, name string, dep *driver.DependencySpec) error {
	switch {
	case dep.Path != "":
		target := dep.Path
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(manifestPath), target)
		}
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("path dependency missing: %w", err)
		}
		return nil
	case dep.Git != "":
		_, err := ensureGitCheckout(filepath.Join(baseDir, sanitizeName(name)), dep)
		return err
	default:
		return errors.New("registry dependencies are not supported; use git or path")
	}
}

// ensureGitCheckout clones the dependency and pins the requested revision.
// Fetches are idempotent: an existing checkout for the resolved commit wins.
func ensureGitCheckout(dir string, dep *driver.DependencySpec) (string, error) {
	revision := gitRevision(dep)

	if existing, err := git.PlainOpen(dir); err == nil {
		if hash, err := existing.ResolveRevision(revision); err == nil {
			if head, err := existing.Head(); err == nil && head.Hash() == *hash {
				return hash.String(), nil
			}
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", err
	}

	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: dep.Git})
	if err != nil {
		return "", fmt.Errorf("git clone %s: %w", dep.Git, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return "", fmt.Errorf("git checkout %s: %w", revision, err)
	}
	return hash.String(), nil
}

func gitRevision(dep *driver.DependencySpec) plumbing.Revision {
	switch {
	case dep.Rev != "":
		return plumbing.Revision(dep.Rev)
	case dep.Tag != "":
		return plumbing.Revision("refs/tags/" + dep.Tag)
	case dep.Branch != "":
		return plumbing.Revision("refs/remotes/origin/" + dep.Branch)
	default:
		return plumbing.Revision("HEAD")
	}
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
