package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novvoo/go-pdffixture/pkg/fixture"
)

func TestPdftoppmFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, fixture.FileName)
	require.NoError(t, fixture.WriteFile(path))
	out := filepath.Join(dir, "page.png")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-r", "72", "-o", out, path}, &stdout, &stderr), stderr.String())
	assert.Equal(t, "Wrote "+out+"\n", stdout.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 612, cfg.Width)
	assert.Equal(t, 792, cfg.Height)
}

func TestPdftoppmDefaultOutputName(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, fixture.CreateSimplePDF(&bytes.Buffer{}))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-q", "-r", "36"}, &stdout, &stderr), stderr.String())
	assert.Empty(t, stdout.String())
	assert.FileExists(t, "test_resume-1.png")
}

func TestPdftoppmErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, fixture.FileName)
	require.NoError(t, fixture.WriteFile(path))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"-f", "3", "-o", filepath.Join(dir, "x.png"), path}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Error:")

	for _, r := range []string{"0", "-72", "1201", "100000"} {
		stderr.Reset()
		out := filepath.Join(dir, "r"+r+".png")
		assert.Equal(t, 1, run([]string{"-r", r, "-o", out, path}, &stdout, &stderr))
		assert.Contains(t, stderr.String(), "resolution "+r+" out of range")
		assert.NoFileExists(t, out)
	}
}
