package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/logging"
)

// Format is an output format understood by the layout executable
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates an output format selector
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSVG, FormatPNG:
		return f, nil
	case "":
		return FormatSVG, nil
	default:
		return "", cverrors.ValidationErrorf("unsupported render format %q (want svg or png)", s)
	}
}

// Config holds renderer settings
type Config struct {
	Binary      string        // Executable name or path (default: dot)
	Timeout     time.Duration // Per-invocation timeout (default: 30s)
	Concurrency int           // Maximum concurrent invocations (default: 4)
	ScratchDir  string        // Parent of per-invocation scratch dirs (default: OS temp)
}

// DefaultConfig returns default renderer settings
func DefaultConfig() Config {
	return Config{
		Binary:      "dot",
		Timeout:     30 * time.Second,
		Concurrency: 4,
	}
}

// Renderer rasterizes graph-layout text with an external executable.
// Rendering is best-effort: every failure yields no output.
type Renderer struct {
	config Config
	sem    *semaphore.Weighted
}

// NewRenderer creates a renderer with its own bounded invocation pool
func NewRenderer(config Config) *Renderer {
	defaults := DefaultConfig()
	if config.Binary == "" {
		config.Binary = defaults.Binary
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Concurrency < 1 {
		config.Concurrency = defaults.Concurrency
	}
	return &Renderer{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.Concurrency)),
	}
}

// Available reports whether the executable can be found
func (r *Renderer) Available() bool {
	_, err := r.lookPath()
	return err == nil
}

func (r *Renderer) lookPath() (string, error) {
	return exec.LookPath(r.config.Binary)
}

// Render returns the rendered bytes, or false when the executable is
// missing, exits nonzero, times out or produces nothing
func (r *Renderer) Render(ctx context.Context, dot string, format Format) ([]byte, bool) {
	out, err := r.RenderErr(ctx, dot, format)
	if err != nil {
		logging.Warn("render failed", "format", format, "binary", r.config.Binary, "error", err)
		return nil, false
	}
	return out, true
}

// RenderBase64 is Render with the output base64-encoded
func (r *Renderer) RenderBase64(ctx context.Context, dot string, format Format) (string, bool) {
	out, ok := r.Render(ctx, dot, format)
	if !ok {
		return "", false
	}
	return base64.StdEncoding.EncodeToString(out), true
}

// RenderErr is Render with the failure cause. Scratch files are removed
// before it returns, including on timeout.
func (r *Renderer) RenderErr(ctx context.Context, dot string, format Format) ([]byte, error) {
	if _, err := ParseFormat(string(format)); err != nil || format == "" {
		return nil, cverrors.ValidationErrorf("unsupported render format %q", format)
	}

	binary, err := r.lookPath()
	if err != nil {
		return nil, cverrors.ExternalError(err, "layout executable not found").WithContext("binary", r.config.Binary)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, cverrors.ExternalError(err, "render cancelled while waiting for a slot")
	}
	defer r.sem.Release(1)

	scratch, err := os.MkdirTemp(r.config.ScratchDir, "codevision-render-*")
	if err != nil {
		return nil, cverrors.FileSystemError(err, "cannot create scratch dir")
	}
	defer os.RemoveAll(scratch)

	input := filepath.Join(scratch, "diagram.dot")
	output := filepath.Join(scratch, "diagram."+string(format))
	if err := os.WriteFile(input, []byte(dot), 0600); err != nil {
		return nil, cverrors.FileSystemError(err, "cannot write render input")
	}

	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, "-T"+string(format), input, "-o", output)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, cverrors.ExternalErrorf(runCtx.Err(), "render timed out after %s", r.config.Timeout)
		}
		return nil, cverrors.ExternalError(err, "layout executable failed").
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, cverrors.ExternalError(err, "layout executable produced no output")
	}
	if len(data) == 0 {
		return nil, cverrors.New(cverrors.ErrorTypeExternal, cverrors.SeverityMedium, "layout executable produced empty output")
	}

	logging.Debug("render complete", "format", format, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}
