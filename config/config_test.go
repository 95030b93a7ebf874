package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hannes/pii-mask/pii/operators"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "ja", cfg.Language)
	assert.Equal(t, DefaultModelName, cfg.ModelName)
	assert.Equal(t, 0.5, cfg.ScoreThreshold)
	assert.Nil(t, cfg.EntityTypes)
	assert.Equal(t, operators.KindReplace, cfg.DefaultOperator.Operator)
	require.NoError(t, cfg.Validate())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "masking_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromFile(t *testing.T) {
	path := writeConfig(t, `
language: ja
model_name: kagome-ipa
score_threshold: 0.7
entity_types:
  - PERSON
  - PHONE_NUMBER
operators:
  PERSON:
    operator: replace
    params:
      new_value: "[個人名]"
  PHONE_NUMBER:
    operator: mask
    params:
      masking_char: "*"
      chars_to_mask: 8
      from_end: false
default_operator:
  operator: replace
`)

	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.ScoreThreshold)
	assert.Equal(t, []string{"PERSON", "PHONE_NUMBER"}, cfg.EntityTypes)

	spec := cfg.ResolveOperator("PERSON")
	assert.Equal(t, operators.KindReplace, spec.Operator)
	assert.Equal(t, "[個人名]", spec.Params["new_value"])

	spec = cfg.ResolveOperator("PHONE_NUMBER")
	assert.Equal(t, operators.KindMask, spec.Operator)
	assert.Equal(t, 8, spec.Params["chars_to_mask"])

	// Unlisted types fall back to the default.
	assert.Equal(t, operators.KindReplace, cfg.ResolveOperator("EMAIL_ADDRESS").Operator)
}

func TestFromFilePartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "score_threshold: 0.3\n")
	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.ScoreThreshold)
	assert.Equal(t, "ja", cfg.Language)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestFromFileInvalidThreshold(t *testing.T) {
	path := writeConfig(t, "score_threshold: 1.5\n")
	_, err := FromFile(path)
	assert.Error(t, err)
}

func TestFromFileUnknownOperator(t *testing.T) {
	path := writeConfig(t, `
operators:
  PERSON:
    operator: scramble
`)
	_, err := FromFile(path)
	assert.Error(t, err)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLanguage, "en")
	t.Setenv(EnvModelName, "some-model")
	t.Setenv(EnvScoreThreshold, "0.8")
	t.Setenv(EnvEntityTypes, "PERSON, EMAIL_ADDRESS,,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "some-model", cfg.ModelName)
	assert.Equal(t, 0.8, cfg.ScoreThreshold)
	assert.Equal(t, []string{"PERSON", "EMAIL_ADDRESS"}, cfg.EntityTypes)
}

func TestApplyEnvBadThreshold(t *testing.T) {
	t.Setenv(EnvScoreThreshold, "lots")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestParseEntityTypes(t *testing.T) {
	assert.Nil(t, ParseEntityTypes(""))
	assert.Equal(t, []string{"PERSON"}, ParseEntityTypes("PERSON"))
	assert.Equal(t, []string{"A", "B"}, ParseEntityTypes(" A , B ,"))
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.EntityTypes = []string{"PERSON"}
	cfg.Operators["PERSON"] = operators.Spec{
		Operator: operators.KindMask,
		Params:   map[string]any{"chars_to_mask": 4},
	}

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var got MaskingConfig
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, cfg.ScoreThreshold, got.ScoreThreshold)
	assert.Equal(t, cfg.EntityTypes, got.EntityTypes)
	assert.Equal(t, cfg.Operators["PERSON"].Operator, got.Operators["PERSON"].Operator)
	assert.Equal(t, 4, got.Operators["PERSON"].Params["chars_to_mask"])
	require.NoError(t, got.Validate())
}

func TestUseONNXModel(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.UseONNXModel())

	cfg.ModelName = filepath.Join(t.TempDir(), "missing")
	assert.False(t, cfg.UseONNXModel())

	dir := t.TempDir()
	cfg.ModelName = dir
	assert.True(t, cfg.UseONNXModel())
}
