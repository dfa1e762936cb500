package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Output  string `json:"output"`
	Timeout int    `json:"timeout_seconds"`
	Cache   string `json:"cache"`
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	err := os.WriteFile(name, []byte(`{
		// comments are allowed
		output: "public/shows.json",
		timeout_seconds: 20,
	}`), 0600)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{cache: ".cache"}`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(name, testConfig{Output: "data/shows.json", Timeout: 15})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, testConfig{
		Output:  "public/shows.json",
		Timeout: 20,
		Cache:   ".cache",
	}, cfg)
}

func TestLoadMissingFilesKeepsDefaults(t *testing.T) {
	defaults := testConfig{Output: "data/shows.json", Timeout: 15}
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"), defaults)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, defaults, cfg)
}

func TestLoadInvalidFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "config.json5")
	err := os.WriteFile(name, []byte(`{output: `), 0600)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Load(name, testConfig{})
	require.Error(t, err)
}
