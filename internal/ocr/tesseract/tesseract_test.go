package tesseract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"rus", "eng"}, e.cfg.Languages)

	e, err = New(Config{Languages: []string{"rus"}, PageSegMode: 6})
	require.NoError(t, err)
	assert.Equal(t, []string{"rus"}, e.cfg.Languages)

	_, err = New(Config{PageSegMode: 99})
	assert.Error(t, err)
}
