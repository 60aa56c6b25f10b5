package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const biochemistry = `{
  "compounds": [
    {"id": "cpd00027", "formula": "C6H12O6"},
    {"id": "cpd00108", "formula": "C6H12O6"},
    {"id": "cpd00020", "formula": "C3H4O3", "charge": -1}
  ],
  "reactions": []
}`

const toyModel = `{
  "id": "toy",
  "metabolites": [
    {"id": "glc_c", "formula": "C6H12O6", "charge": 0, "compartment": "c"},
    {"id": "pyr_c", "formula": "C3H4O3", "charge": -1, "compartment": "c"}
  ],
  "reactions": [
    {"id": "R1", "metabolites": {"glc_c": -1, "pyr_c": 2}, "lower_bound": 0, "upper_bound": 1000}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStandardizeCommand(t *testing.T) {
	dir := t.TempDir()
	db := writeFile(t, dir, "biochemistry.json", biochemistry)
	in := writeFile(t, dir, "model.json", toyModel)
	out := filepath.Join(dir, "out.json")
	report := filepath.Join(dir, "report.json")

	stdout, err := execute(t, "--model", in, "--biochem", db, "--out", out, "--report", report, "--max-iterations", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "converged")
	assert.Contains(t, stdout, "proposals: 1")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cpd00020"`)

	data, err = os.ReadFile(report)
	require.NoError(t, err)
	var doc reportDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 5, doc.Report.MaxIterations)
	require.Len(t, doc.Proposals, 1)
	assert.Equal(t, "glc_c", doc.Proposals[0].Local)
}

func TestStandardizeCommandApprovals(t *testing.T) {
	dir := t.TempDir()
	db := writeFile(t, dir, "biochemistry.json", biochemistry)
	in := writeFile(t, dir, "model.json", toyModel)
	approvals := writeFile(t, dir, "approvals.json", `[{"kind": "compound", "local": "glc_c", "canonical": "cpd00108"}]`)
	out := filepath.Join(dir, "out.json")

	stdout, err := execute(t, "--model", in, "--biochem", db, "--out", out, "--approvals", approvals)
	require.NoError(t, err)
	assert.Contains(t, stdout, "proposals: 0")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cpd00108"`)
}

func TestStandardizeCommandErrors(t *testing.T) {
	dir := t.TempDir()
	db := writeFile(t, dir, "biochemistry.json", biochemistry)

	_, err := execute(t, "--biochem", db, "--out", filepath.Join(dir, "out.json"))
	assert.Error(t, err)

	_, err = execute(t, "--model", filepath.Join(dir, "missing.json"), "--biochem", db, "--out", filepath.Join(dir, "out.json"))
	assert.Error(t, err)

	_, err = execute(t, "--model", db, "--biochem", db, "--out", filepath.Join(dir, "out.json"), "--max-iterations", "-2")
	assert.Error(t, err)
}

func TestSetupLoggerFromConfig(t *testing.T) {
	t.Setenv("MODELSTD_LOG_LEVEL", "")
	t.Setenv("MODELSTD_LOG_FORMAT", "")
	dir := t.TempDir()
	db := writeFile(t, dir, "biochemistry.json", biochemistry)
	cfgPath := writeFile(t, dir, "config.toml", "[log]\nlevel = \"debug\"\nformat = \"console\"\n")

	cfg, logger, err := setup(&options{configPath: cfgPath, biochemPath: db})
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, logger, err = setup(&options{configPath: cfgPath, biochemPath: db, logLevel: "error"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.WarnLevel))

	bad := writeFile(t, dir, "bad.toml", "[log]\nformat = \"xml\"\n")
	_, _, err = setup(&options{configPath: bad, biochemPath: db})
	assert.Error(t, err)
}
