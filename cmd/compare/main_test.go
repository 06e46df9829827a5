package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comparador/internal/data"
)

// runCompare executes the command with args and returns what it wrote to
// stdout.
func runCompare(t *testing.T, args ...string) []byte {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	out := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		out <- buf.Bytes()
	}()

	// flag values persist between executions of the same command
	for _, name := range []string{"save-models", "chart", "dump-config"} {
		require.NoError(t, compareCommand.Flags().Set(name, ""))
	}
	compareCommand.SetArgs(args)
	err = compareCommand.Execute()
	require.NoError(t, w.Close())
	captured := <-out
	require.NoError(t, err)
	return captured
}

func costsFile(t *testing.T) string {
	ds, err := data.GenerateCosts(30, 5, 1)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "custos.csv")
	require.NoError(t, data.WriteCSVFile(path, ds))
	return path
}

func TestStructuredOutputIsParseable(t *testing.T) {
	path := costsFile(t)

	stdout := runCompare(t, "--data", path, "--mode", "regression", "--format", "json", "-q", "--log-level", "info")
	var report struct {
		Dataset string `json:"dataset"`
		Mode    string `json:"mode"`
		Entries []struct {
			Name string `json:"name"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(stdout, &report), string(stdout))
	assert.Equal(t, "custos", report.Dataset)
	assert.Equal(t, "regression", report.Mode)
	assert.Len(t, report.Entries, 4)

	stdout = runCompare(t, "--data", path, "--mode", "regression", "--format", "yaml", "-q")
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(stdout, &decoded), string(stdout))
	assert.Equal(t, "custos", decoded["dataset"])
	assert.NotContains(t, string(stdout), `"level"`)
}

func TestSaveModels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "modelos")
	runCompare(t, "--data", costsFile(t), "--mode", "regression", "--format", "json", "-q", "--save-models", dir)
	for _, name := range []string{"linearregression", "regressiontree", "gradientboosting", "multilayerperceptron"} {
		assert.FileExists(t, filepath.Join(dir, name+".gob"))
	}
}
