package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/formatbench/internal/pipeline"
	"github.com/ajitpratap0/formatbench/pkg/config"
	"github.com/ajitpratap0/formatbench/pkg/schema"
)

const catalog = `
[tables.region]
tblPath = "region.tbl"
columns = [
  {name = "r_regionkey", type = "int32"},
  {name = "r_name", type = "string"},
]
`

func setupRun(t *testing.T) (*config.RunConfig, []schema.TableSpec) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "region.tbl"), []byte("0|AFRICA|\n1|AMERICA|\n"), 0o644))
	catalogPath := filepath.Join(dir, "catalog.toml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalog), 0o644))

	v := config.NewViper()
	v.Set("catalog", catalogPath)
	v.Set("data_dir", dir)
	v.Set("output_dir", filepath.Join(dir, "out"))
	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	tables, err := schema.LoadTables(cfg.Catalog, schema.LoadOptions{DataDir: cfg.DataDir})
	require.NoError(t, err)
	return cfg, tables
}

func TestVerifyTables(t *testing.T) {
	cfg, tables := setupRun(t)
	a := &app{cfg: cfg}

	pc := a.pipelineConfig()
	pc.SampleInterval = 0
	report, err := pipeline.NewRunner(pc, zaptest.NewLogger(t)).Run(context.Background(), tables)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	var out bytes.Buffer
	require.NoError(t, verifyTables(&out, cfg, tables, zaptest.NewLogger(t)))
	assert.Contains(t, out.String(), "region")
	assert.Contains(t, out.String(), "ok")
	assert.Contains(t, out.String(), "Apache Arrow IPC stream")
	assert.Contains(t, out.String(), "Comma separated values")

	var printed bytes.Buffer
	printReport(&printed, report)
	assert.Contains(t, printed.String(), "region")
}

func TestVerifyTables_MissingArtifacts(t *testing.T) {
	cfg, tables := setupRun(t)

	var out bytes.Buffer
	err := verifyTables(&out, cfg, tables, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, out.String(), "unreadable")
}

func TestWriteResultsToStdout(t *testing.T) {
	var out bytes.Buffer
	err := writeResults(&out, "-", func(w io.Writer) error {
		_, err := w.Write([]byte("table_name\n"))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "table_name\n", out.String())
}
