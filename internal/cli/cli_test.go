package cli

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activofijo/vales-resguardo/internal/document"
	"github.com/activofijo/vales-resguardo/internal/testutil"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventario.xlsx")
	require.NoError(t, os.WriteFile(path, testutil.SampleWorkbook(t), 0o644))
	return path
}

func TestExecute_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, errors.Is(Execute(nil, &out), ErrUsage))
	assert.True(t, errors.Is(Execute([]string{"-bogus"}, &out), ErrUsage))
	assert.True(t, errors.Is(Execute([]string{"-in", "a.xlsx", "extra"}, &out), ErrUsage))
}

func TestExecute_List(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Execute([]string{"-in", writeSample(t), "-list"}, &out))
	assert.Equal(t, "JUAN PEREZ LOPEZ\t1\nMARIA GARCIA HERNANDEZ\t1\n", out.String())
}

func TestExecute_Employee(t *testing.T) {
	outDir := t.TempDir()
	var out bytes.Buffer
	err := Execute([]string{"-in", writeSample(t), "-out", outDir, "-employee", "MARIA GARCIA HERNANDEZ"}, &out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "Vale_Resguardo_MARIA_GARCIA_HERNANDEZ.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Contains(t, out.String(), "total 2500.50")

	err = Execute([]string{"-in", writeSample(t), "-out", outDir, "-employee", "NADIE"}, &out)
	assert.ErrorIs(t, err, document.ErrMissingEmployee)
}

func TestExecute_Archive(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "vales")
	var out bytes.Buffer
	require.NoError(t, Execute([]string{"-in", writeSample(t), "-out", outDir}, &out))

	zr, err := zip.OpenReader(filepath.Join(outDir, document.ArchiveName))
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 2)
	assert.Contains(t, out.String(), "2 vouchers")
}

func TestExecute_MissingInput(t *testing.T) {
	var out bytes.Buffer
	err := Execute([]string{"-in", filepath.Join(t.TempDir(), "nada.xlsx")}, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUsage))
}
