package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pdfstash")
}

func TestConfigShow(t *testing.T) {
	t.Setenv("SESSION_SECRET", "topsecret")
	t.Setenv("GITHUB_CLIENT_ID", "client-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "client-secret")
	t.Setenv("FRONTEND_URL", "http://localhost:5173")

	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "port: 5000")
	assert.Contains(t, out, "url: http://localhost:5173")
	assert.NotContains(t, out, "topsecret", "secrets stay out of the output")
	assert.NotContains(t, out, "client-secret")
}

func TestConfigShow_MissingRequiredFails(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("GITHUB_CLIENT_ID", "")
	t.Setenv("GITHUB_CLIENT_SECRET", "")
	t.Setenv("FRONTEND_URL", "")

	_, err := execute(t, "config", "show")
	require.Error(t, err)
}
