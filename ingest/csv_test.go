package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	input := "Pop:A, 0.1, 0.2\n\n   \n  Pop:B,0.3,0.4\r\nC,1e-3,-2\n"
	rows, err := ReadRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Pop:A", rows[0].Name)
	assert.Equal(t, []float64{0.1, 0.2}, rows[0].Vector)
	assert.Equal(t, "Pop:B", rows[1].Name)
	assert.Equal(t, []float64{0.001, -2}, rows[2].Vector)
}

func TestReadRowsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"inconsistent columns", "a,1,2\nb,1\n", "inconsistent column count"},
		{"empty name", "a,1,2\n ,1,2\n", "empty sample name"},
		{"non-numeric", "a,1,x\n", "non-numeric"},
		{"non-finite", "a,1,NaN\n", "non-numeric"},
		{"no rows", "\n\n", "no rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRows(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestReadDataset(t *testing.T) {
	ds, err := ReadDataset(
		strings.NewReader("A,0,0\nB,10,10\n"),
		strings.NewReader("T,5,5\n"),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Dim())
	assert.Equal(t, []string{"A", "B"}, ds.SourceNames())
	assert.Equal(t, []string{"T"}, ds.TargetNames())

	_, err = ReadDataset(strings.NewReader("A,0,0\n"), strings.NewReader("T,5,5,5\n"))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr), "got %v", err)

	_, err = ReadDataset(strings.NewReader("A,0\n"), strings.NewReader("T,5\n"))
	assert.True(t, errors.IsInvalidInput(err), "a single dimension is rejected, got %v", err)
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.csv")
	tgt := filepath.Join(dir, "target.csv")
	require.NoError(t, os.WriteFile(src, []byte("A,0,0\nB,1,1\n"), 0o600))
	require.NoError(t, os.WriteFile(tgt, []byte("T,0.5,0.5\n"), 0o600))

	ds, err := LoadDataset(src, tgt)
	require.NoError(t, err)
	assert.Len(t, ds.Source(), 2)

	_, err = LoadDataset(filepath.Join(dir, "missing.csv"), tgt)
	assert.Error(t, err)
}
