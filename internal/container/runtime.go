// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs one-shot conversion jobs in a docker or podman
// container that reads stdin and writes stdout.
package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Supported runtime binaries, in detection order.
const (
	Docker = "docker"
	Podman = "podman"
)

// stderrTail bounds how much container stderr is kept in a Run error.
const stderrTail = 512

// ErrNoRuntime reports that neither docker nor podman is usable.
var ErrNoRuntime = errors.New("no container runtime available")

// Job describes one container invocation. Args are passed to the image
// entrypoint. Jobs never get network access.
type Job struct {
	Image  string
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
}

// Runtime runs Jobs with one container binary.
type Runtime interface {
	Name() string
	Available(ctx context.Context) bool
	ImageExists(ctx context.Context, image string) error
	Run(ctx context.Context, job Job) error
}

// command runs name with args. Stdin, stdout and stderr may be nil.
type command func(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error

func osCommand(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type binary struct {
	name       string
	imageCheck []string
	lookPath   func(string) (string, error)
	run        command
}

func newBinary(name string, lookPath func(string) (string, error), run command) *binary {
	check := []string{"image", "inspect"}
	if name == Podman {
		check = []string{"image", "exists"}
	}
	return &binary{name: name, imageCheck: check, lookPath: lookPath, run: run}
}

func (b *binary) Name() string { return b.name }

func (b *binary) Available(ctx context.Context) bool {
	if _, err := b.lookPath(b.name); err != nil {
		return false
	}
	return b.run(ctx, b.name, []string{"info"}, nil, nil, nil) == nil
}

func (b *binary) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string(nil), b.imageCheck...), image)
	if err := b.run(ctx, b.name, args, nil, nil, nil); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, b.name, err)
	}
	return nil
}

func (b *binary) Run(ctx context.Context, job Job) error {
	if job.Image == "" {
		return fmt.Errorf("container job has no image")
	}
	args := append([]string{"run", "--rm", "-i", "--network", "none", job.Image}, job.Args...)
	var stderr bytes.Buffer
	if err := b.run(ctx, b.name, args, job.Stdin, job.Stdout, &stderr); err != nil {
		if msg := tail(stderr.String()); msg != "" {
			return fmt.Errorf("running %s in %s: %w: %s", job.Image, b.name, err, msg)
		}
		return fmt.Errorf("running %s in %s: %w", job.Image, b.name, err)
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "…" + s[len(s)-stderrTail:]
	}
	return s
}

// DetectRuntime returns the first usable runtime. An empty preferred tries
// docker then podman; otherwise only the named binary is tried.
func DetectRuntime(ctx context.Context, preferred string) (Runtime, error) {
	return detect(ctx, preferred, exec.LookPath, osCommand)
}

func detect(ctx context.Context, preferred string, lookPath func(string) (string, error), run command) (Runtime, error) {
	names := []string{Docker, Podman}
	switch preferred {
	case "":
	case Docker, Podman:
		names = []string{preferred}
	default:
		return nil, fmt.Errorf("unknown container runtime %q (want %s or %s)", preferred, Docker, Podman)
	}
	for _, name := range names {
		if b := newBinary(name, lookPath, run); b.Available(ctx) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: tried %s", ErrNoRuntime, strings.Join(names, ", "))
}
