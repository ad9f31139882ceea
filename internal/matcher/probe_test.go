package matcher

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageProbe(t *testing.T) {
	dir := t.TempDir()

	probe, err := StageProbe(face(80), dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(probe.Path()))
	assert.True(t, strings.HasPrefix(probe.Name(), "probe-"))
	assert.True(t, strings.HasSuffix(probe.Name(), ".png"))

	rc, err := probe.Open(context.Background())
	require.NoError(t, err)
	img, err := png.Decode(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, 16, img.Bounds().Dx())

	require.NoError(t, probe.Close())
	_, err = os.Stat(probe.Path())
	assert.True(t, os.IsNotExist(err))

	// Closing twice is harmless.
	assert.NoError(t, probe.Close())
}

func TestStageProbe_UniqueNames(t *testing.T) {
	dir := t.TempDir()

	a, err := StageProbe(face(1), dir)
	require.NoError(t, err)
	defer a.Close()
	b, err := StageProbe(face(1), dir)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Path(), b.Path())
}

func TestStageProbe_Errors(t *testing.T) {
	_, err := StageProbe(nil, t.TempDir())
	assert.Error(t, err)

	_, err = StageProbe(face(1), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
