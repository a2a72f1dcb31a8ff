package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuralnet/internal/nn"
)

func TestBuiltinTables(t *testing.T) {
	tests := map[string][]float64{
		"xor": {0, 1, 1, 0},
		"and": {0, 0, 0, 1},
		"or":  {0, 1, 1, 1},
	}
	for name, want := range tests {
		set, err := Builtin(name, "")
		require.NoError(t, err)
		assert.Equal(t, name, set.Name)
		require.Len(t, set.Samples, 4)
		assert.Equal(t, 2, set.InputSize())
		assert.Equal(t, 1, set.OutputSize())
		for i, s := range set.Samples {
			assert.Equal(t, want[i], s.Output[0], "%s row %d", name, i)
		}
	}
	assert.Equal(t, []string{"and", "or", "xor"}, Names())
}

func TestBuiltinModes(t *testing.T) {
	validation, err := Builtin("xor", "validation")
	require.NoError(t, err)
	require.Len(t, validation.Samples, 6)
	assert.Equal(t, []float64{0, 1}, validation.Samples[0].Input)

	test, err := Builtin("XOR", "test")
	require.NoError(t, err)
	require.Len(t, test.Samples, 8)
	assert.Equal(t, []float64{1, 1}, test.Samples[0].Input)

	_, err = Builtin("xor", "benchmark")
	require.Error(t, err)
	_, err = Builtin("nand", "")
	require.Error(t, err)
}

func TestBuiltinReturnsFreshRows(t *testing.T) {
	set, err := Builtin("and", "validation")
	require.NoError(t, err)
	set.Samples[0].Input[0] = 9
	assert.NotEqual(t, 9.0, set.Samples[4].Input[0])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"input":[0.1,0.2,0.3],"output":[1,0]},
		{"input":[0.4,0.5,0.6],"output":[0,1]}
	]`), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, set.InputSize())
	assert.Equal(t, 2, set.OutputSize())
	assert.Len(t, set.Samples, 2)

	builtin, err := Load("dataset_or")
	require.NoError(t, err)
	assert.Equal(t, "or", builtin.Name)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	ragged := filepath.Join(dir, "ragged.json")
	require.NoError(t, os.WriteFile(ragged, []byte(`[{"input":[1,2],"output":[1]},{"input":[1],"output":[1]}]`), 0o644))
	_, err := Load(ragged)
	require.True(t, errors.Is(err, nn.ErrDimensionMismatch), "got %v", err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o644))
	_, err = Load(empty)
	require.True(t, errors.Is(err, nn.ErrEmptyTrainingSet), "got %v", err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestShuffledIsSeeded(t *testing.T) {
	set, err := Builtin("xor", "test")
	require.NoError(t, err)

	a := Shuffled(set.Samples, 7)
	b := Shuffled(set.Samples, 7)
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, set.Samples, a)
	assert.Equal(t, []float64{1, 1}, set.Samples[0].Input)

}
