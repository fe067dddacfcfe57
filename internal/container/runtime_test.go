// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost simulates binaries on PATH and records every command line.
type fakeHost struct {
	onPath   map[string]bool
	succeeds map[string]bool
	pipe     func(args []string, stdin io.Reader, stdout, stderr io.Writer) error
	calls    []string
}

func (h *fakeHost) lookPath(name string) (string, error) {
	if h.onPath[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("not found")
}

func (h *fakeHost) run(_ context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	line := name + " " + strings.Join(args, " ")
	h.calls = append(h.calls, line)
	if len(args) > 0 && args[0] == "run" && h.pipe != nil {
		return h.pipe(args, stdin, stdout, stderr)
	}
	if h.succeeds[line] {
		return nil
	}
	return errors.New("exit status 1")
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		host      *fakeHost
		want      string
		wantErr   error
	}{
		{
			name: "docker first",
			host: &fakeHost{
				onPath:   map[string]bool{Docker: true, Podman: true},
				succeeds: map[string]bool{"docker info": true, "podman info": true},
			},
			want: Docker,
		},
		{
			name: "podman when docker daemon is down",
			host: &fakeHost{
				onPath:   map[string]bool{Docker: true, Podman: true},
				succeeds: map[string]bool{"podman info": true},
			},
			want: Podman,
		},
		{
			name:      "preferred podman skips docker",
			preferred: Podman,
			host: &fakeHost{
				onPath:   map[string]bool{Docker: true, Podman: true},
				succeeds: map[string]bool{"docker info": true, "podman info": true},
			},
			want: Podman,
		},
		{
			name:    "nothing installed",
			host:    &fakeHost{},
			wantErr: ErrNoRuntime,
		},
		{
			name:      "preferred docker unavailable",
			preferred: Docker,
			host: &fakeHost{
				onPath:   map[string]bool{Podman: true},
				succeeds: map[string]bool{"podman info": true},
			},
			wantErr: ErrNoRuntime,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detect(context.Background(), tt.preferred, tt.host.lookPath, tt.host.run)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rt.Name())
		})
	}
}

func TestDetectUnknownRuntime(t *testing.T) {
	h := &fakeHost{}
	_, err := detect(context.Background(), "lxc", h.lookPath, h.run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown container runtime "lxc"`)
	assert.Empty(t, h.calls)
}

func TestImageExists(t *testing.T) {
	h := &fakeHost{succeeds: map[string]bool{
		"docker image inspect markitdown:latest": true,
		"podman image exists markitdown:latest":  true,
	}}

	require.NoError(t, newBinary(Docker, h.lookPath, h.run).ImageExists(context.Background(), "markitdown:latest"))
	require.NoError(t, newBinary(Podman, h.lookPath, h.run).ImageExists(context.Background(), "markitdown:latest"))

	err := newBinary(Docker, h.lookPath, h.run).ImageExists(context.Background(), "pandoc:latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pandoc:latest")
}

func TestRunPipesThroughIsolatedContainer(t *testing.T) {
	h := &fakeHost{pipe: func(args []string, stdin io.Reader, stdout, _ io.Writer) error {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		_, err = stdout.Write(append([]byte("# "), data...))
		return err
	}}
	rt := newBinary(Podman, h.lookPath, h.run)

	var out bytes.Buffer
	err := rt.Run(context.Background(), Job{
		Image:  "markitdown:latest",
		Args:   []string{"--keep-data-uris"},
		Stdin:  strings.NewReader("Positioning"),
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "# Positioning", out.String())
	assert.Equal(t, []string{"podman run --rm -i --network none markitdown:latest --keep-data-uris"}, h.calls)
}

func TestRunReportsStderrTail(t *testing.T) {
	h := &fakeHost{pipe: func(_ []string, _ io.Reader, _, stderr io.Writer) error {
		_, _ = io.WriteString(stderr, strings.Repeat("x", 2*stderrTail)+"\nUnsupported file format\n")
		return errors.New("exit status 2")
	}}
	err := newBinary(Docker, h.lookPath, h.run).Run(context.Background(), Job{Image: "markitdown:latest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 2")
	assert.Contains(t, err.Error(), "Unsupported file format")
	assert.Less(t, len(err.Error()), 2*stderrTail)
}

func TestRunRequiresImage(t *testing.T) {
	h := &fakeHost{}
	err := newBinary(Docker, h.lookPath, h.run).Run(context.Background(), Job{})
	require.Error(t, err)
	assert.Empty(t, h.calls)
}
