// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

// Package main contains Mage build targets for brief-analyst developer tooling.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI expects.
var projectDirs = []string{
	"books",
	"knowledge",
	"output",
}

const (
	binDir  = "bin"
	binName = "brief-analyst"
	cmdPkg  = "./cmd/brief-analyst"
)

// Knowledge groups targets that maintain the knowledge cache.
type Knowledge mg.Namespace

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Analyze builds the CLI and analyzes the brief in BRIEF_FILE, writing the
// report to output/. KIND selects the analysis (marketing by default).
func Analyze() error {
	mg.Deps(Init, Build)
	brief := os.Getenv("BRIEF_FILE")
	if brief == "" {
		return fmt.Errorf("BRIEF_FILE is not set")
	}
	kind := os.Getenv("KIND")
	if kind == "" {
		kind = "marketing"
	}
	name := strings.TrimSuffix(filepath.Base(brief), filepath.Ext(brief))
	out := filepath.Join("output", fmt.Sprintf("%s-%s.md", name, kind))
	return sh.RunV(filepath.Join(binDir, binName), "analyze",
		"--kind", kind, "--brief-file", brief, "--out", out)
}

// Build digests every book under books/ into the knowledge cache.
func (Knowledge) Build() error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "knowledge", "build", "--books-dir", "books")
}

// Info prints what the knowledge cache holds.
func (Knowledge) Info() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "knowledge", "info")
}

// Stats prints Go file counts per package and the documentation word count.
func Stats() error {
	prod, tests, err := countGoFiles(".")
	if err != nil {
		return err
	}
	words, err := countDocWords(".")
	if err != nil {
		return err
	}

	pkgs := make([]string, 0, len(prod))
	for p := range prod {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)
	for _, p := range pkgs {
		fmt.Printf("%-28s %3d files, %3d tests\n", p, prod[p], tests[p])
	}
	fmt.Printf("Words (documentation): %d\n", words)
	return nil
}

// countGoFiles returns production and test file counts keyed by package
// directory, skipping the vendored reference material.
func countGoFiles(root string) (map[string]int, map[string]int, error) {
	prod := map[string]int{}
	tests := map[string]int{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		dir := filepath.Dir(path)
		if strings.HasSuffix(path, "_test.go") {
			tests[dir]++
		} else {
			prod[dir]++
		}
		return nil
	})
	return prod, tests, err
}

// countDocWords counts whitespace-separated words in Markdown files.
func countDocWords(root string) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		sc.Split(bufio.ScanWords)
		for sc.Scan() {
			total++
		}
		return sc.Err()
	})
	return total, err
}

func skipDir(path string) bool {
	base := filepath.Base(path)
	return path != "." && (strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") || base == "bin")
}
