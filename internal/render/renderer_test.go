package render

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cverrors "github.com/rohankatakam/codevision/internal/errors"
)

const sampleDOT = "digraph G { a -> b; }"

// fakeBinary writes an executable shell script standing in for dot.
// The renderer invokes it as: <bin> -T<fmt> <input> -o <output>
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-dot")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func newTestRenderer(t *testing.T, binary string, timeout time.Duration) (*Renderer, string) {
	t.Helper()
	scratch := t.TempDir()
	return NewRenderer(Config{
		Binary:      binary,
		Timeout:     timeout,
		Concurrency: 2,
		ScratchDir:  scratch,
	}), scratch
}

func assertScratchEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files must be removed")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"svg", FormatSVG, false},
		{"PNG", FormatPNG, false},
		{"", FormatSVG, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestRenderer_Success(t *testing.T) {
	bin := fakeBinary(t, `cat "$2" > /dev/null && printf '<svg>%s</svg>' "$1" > "$4"`)
	r, scratch := newTestRenderer(t, bin, 5*time.Second)

	assert.True(t, r.Available())

	out, ok := r.Render(context.Background(), sampleDOT, FormatSVG)
	require.True(t, ok)
	assert.Equal(t, "<svg>-Tsvg</svg>", string(out))
	assertScratchEmpty(t, scratch)

	encoded, ok := r.RenderBase64(context.Background(), sampleDOT, FormatPNG)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "<svg>-Tpng</svg>", string(decoded))
}

func TestRenderer_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		message string
	}{
		{"nonzero exit", "echo 'syntax error' >&2\nexit 3", 5 * time.Second, "layout executable failed"},
		{"timeout", "exec sleep 5", 100 * time.Millisecond, "timed out"},
		{"empty output", `: > "$4"`, 5 * time.Second, "empty output"},
		{"no output file", "exit 0", 5 * time.Second, "no output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, scratch := newTestRenderer(t, fakeBinary(t, tt.body), tt.timeout)

			start := time.Now()
			out, err := r.RenderErr(context.Background(), sampleDOT, FormatSVG)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, cverrors.ErrorTypeExternal, cverrors.GetType(err))
			assert.Less(t, time.Since(start), 4*time.Second)
			assertScratchEmpty(t, scratch)

			_, ok := r.Render(context.Background(), sampleDOT, FormatSVG)
			assert.False(t, ok)
		})
	}
}

func TestRenderer_MissingBinary(t *testing.T) {
	r, _ := newTestRenderer(t, filepath.Join(t.TempDir(), "no-such-dot"), time.Second)

	assert.False(t, r.Available())
	_, err := r.RenderErr(context.Background(), sampleDOT, FormatSVG)
	require.Error(t, err)
	assert.Equal(t, cverrors.ErrorTypeExternal, cverrors.GetType(err))

	out, ok := r.Render(context.Background(), sampleDOT, FormatSVG)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestRenderer_InvalidFormat(t *testing.T) {
	r, _ := newTestRenderer(t, "dot", time.Second)
	_, err := r.RenderErr(context.Background(), sampleDOT, Format("pdf"))
	require.Error(t, err)
	assert.Equal(t, cverrors.ErrorTypeValidation, cverrors.GetType(err))
}

func TestNewRenderer_Defaults(t *testing.T) {
	r := NewRenderer(Config{})
	assert.Equal(t, "dot", r.config.Binary)
	assert.Equal(t, 30*time.Second, r.config.Timeout)
	assert.Equal(t, 4, r.config.Concurrency)
}
