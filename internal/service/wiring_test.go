package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-data/internal/config"
	"promo-data/internal/devices"
)

func TestSQLOptions_KeepsDefaultsForEmptyFields(t *testing.T) {
	opts := SQLOptions(config.SQLConfig{ApplicationID: "CPX", C2BaseURL: "https://c2.example.com/"})
	assert.Equal(t, "CPX", opts.ApplicationID)
	assert.Equal(t, "https://c2.example.com/", opts.C2BaseURL)
	assert.Empty(t, opts.ServiceCode)
}

func TestDeviceConfigFrom(t *testing.T) {
	cfg := config.CatalogConfig{Path: "c.xlsx", HeaderRow: 3, Sheet: "Data", AliasPath: "a.csv", ReviewDir: "r"}
	dc := DeviceConfigFrom(cfg)
	assert.Equal(t, "c.xlsx", dc.CatalogPath)
	assert.Equal(t, 3, dc.Catalog.HeaderRow)
	assert.Equal(t, "Data", dc.Catalog.Sheet)
	assert.Equal(t, "a.csv", dc.AliasPath)
	assert.Equal(t, "r", DetectorConfigFrom(cfg).ReviewDir)
}

func TestNewClassifier_RulesFile(t *testing.T) {
	c, err := NewClassifier("")
	require.NoError(t, err)
	_, ok := c.Classify("NOK 3310 CLASSIC")
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - base_model: Nokia 3310\n    when: model.startsWith(\"NOK 3310\")\n"), 0o644))
	c, err = NewClassifier(path)
	require.NoError(t, err)
	base, ok := c.Classify("NOK 3310 CLASSIC")
	assert.True(t, ok)
	assert.Equal(t, "Nokia 3310", base)

	_, err = NewClassifier(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, devices.IsNotFound(err))
}
