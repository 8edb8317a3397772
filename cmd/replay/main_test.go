package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_StubReplay(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(filepath.Join("testdata", "requests.json"), "stub", true, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Welcome to the Weather Tool Skill.")
	assert.Contains(t, out, "You triggered hello world intent.")
	assert.Contains(t, out, "You triggered weather intent.")
	assert.Contains(t, out, "You triggered temperature intent.")
	assert.Contains(t, out, "You just triggered BookFlightIntent.")
	assert.Contains(t, out, "Goodbye!")
	assert.Contains(t, out, "8 requests, 0 failed")
}

func TestRun_StrictFailsOnExceptionPath(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(filepath.Join("testdata", "unknown_type.json"), "stub", true, &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stdout.String(), "Sorry, I do not understand what you asked, please try again.")
	assert.Contains(t, stdout.String(), "invalid")
	assert.Contains(t, stdout.String(), "2 requests, 2 failed")
}

func TestRun_NonStrictSucceeds(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(filepath.Join("testdata", "unknown_type.json"), "stub", false, &stdout, &stderr)

	assert.Equal(t, 0, code)
}

func TestRun_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(filepath.Join("testdata", "nope.json"), "stub", false, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "FATAL")
}

func TestRun_UnknownMode(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(filepath.Join("testdata", "requests.json"), "dry", false, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `unknown mode "dry"`)
}
