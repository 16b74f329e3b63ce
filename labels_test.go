package objsize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(file, []byte("box\n  bottle \n\ncup\n"), 0644))

	labels, err := LoadLabels(file)
	require.NoError(t, err)

	assert.Equal(t, Labels{"box", "bottle", "", "cup"}, labels)
	assert.Equal(t, "bottle", labels.Name(1))
	assert.Equal(t, "class 2", labels.Name(2))
	assert.Equal(t, "cup", labels.Name(3))
	assert.Equal(t, "class 7", labels.Name(7))
	assert.Equal(t, "class -1", labels.Name(-1))

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReadLabels(t *testing.T) {

	labels, err := ReadLabels(strings.NewReader("person\r\ncar"))
	require.NoError(t, err)
	assert.Equal(t, Labels{"person", "car"}, labels)

	var empty Labels
	assert.Equal(t, "class 0", empty.Name(0))
}
