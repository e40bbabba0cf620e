package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/taigrr/shade/pkg/models"
	"github.com/taigrr/shade/pkg/render"
)

const cubeOBJ = `v -0.5 -0.5 -0.5
v 0.5 -0.5 -0.5
v 0.5 0.5 -0.5
v -0.5 0.5 -0.5
v -0.5 -0.5 0.5
v 0.5 -0.5 0.5
v 0.5 0.5 0.5
v -0.5 0.5 0.5
f 5 6 7
f 5 7 8
f 2 1 4
f 2 4 3
f 6 2 3
f 6 3 7
f 1 5 8
f 1 8 4
f 8 7 3
f 8 3 4
f 1 2 6
f 1 6 5
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	render.SetLogger(nil)
	t.Cleanup(func() { render.SetLogger(nil) })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNoModelsExitsCleanly(t *testing.T) {
	out, err := execute(t)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "no model files") {
		t.Errorf("output = %q, want a diagnostic", out)
	}
}

func TestRenderWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "cube.obj")
	if err := os.WriteFile(model, []byte(cubeOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "cube.png")

	out, err := execute(t, "--width", "48", "--height", "48", "--shadows", "--ao",
		"--dump-depth", "--log-level", "error", "--out", outPath, model)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	for _, suffix := range []string{"", "_zbuffer", "_unshadowed", "_shadowmap", "_zbuffer2", "_mask", "_ao"} {
		p := filepath.Join(dir, "cube"+suffix+".png")
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	if !strings.Contains(out, "wrote "+outPath) {
		t.Errorf("output = %q, want summary line", out)
	}
}

func TestTurntableFrames(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "cube.obj")
	if err := os.WriteFile(model, []byte(cubeOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "spin.tga")

	if out, err := execute(t, "--width", "32", "--height", "32", "--frames", "3", "--out", outPath, model); err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	for i := range 3 {
		p := filepath.Join(dir, "spin_000"+string(rune('0'+i))+".tga")
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing frame %s", p)
		}
	}
}

func TestInvalidFlags(t *testing.T) {
	tests := [][]string{
		{"--shader", "hatch", "model.obj"},
		{"--out", "out.bmp", "model.obj"},
		{"--log-level", "loud", "model.obj"},
		{"--fit", "-1", "model.obj"},
		{filepath.Join(os.TempDir(), "does-not-exist.obj")},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("shade %v: expected error", args)
		}
	}
}

func TestUnsupportedModelRejectedBeforeRender(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.png")
	_, err := execute(t, "--out", outPath, filepath.Join(dir, "scene.blend"))
	if !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(outPath); err == nil {
		t.Error("output written for an unsupported model")
	}
}

// fragments extracts the fragment count from a summary line.
func fragments(t *testing.T, out string) int {
	t.Helper()
	fields := strings.Fields(out)
	for i, f := range fields {
		if f == "fragments)" && i > 0 {
			n, err := strconv.Atoi(fields[i-1])
			if err != nil {
				t.Fatalf("summary %q: %v", out, err)
			}
			return n
		}
	}
	t.Fatalf("no fragment count in %q", out)
	return 0
}

func TestFitRescalesMesh(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "cube.obj")
	if err := os.WriteFile(model, []byte(cubeOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	args := []string{"--width", "48", "--height", "48", "--shader", "flat", "--out", filepath.Join(dir, "cube.png")}

	full, err := execute(t, append(args, model)...)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, full)
	}
	small, err := execute(t, append(args, "--fit", "0.25", model)...)
	if err != nil {
		t.Fatalf("execute --fit: %v\n%s", err, small)
	}
	if a, b := fragments(t, full), fragments(t, small); b == 0 || b >= a {
		t.Errorf("fragments with --fit 0.25 = %d, without = %d; want fewer but some", b, a)
	}
}
