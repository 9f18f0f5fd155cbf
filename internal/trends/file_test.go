package trends

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

func TestFileSourceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	series := schema.Series{
		Topic:     "AC/DC",
		Timeframe: "today 5-y",
		Points: []schema.Point{
			{Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: 10},
			{Time: time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), Missing: true},
		},
	}

	path, err := WriteSeries(dir, series)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "AC_DC.json"), path)

	got, err := NewFileSource(dir).FetchSeries(context.Background(), "AC/DC", "today 5-y")
	require.NoError(t, err)
	assert.Equal(t, series, got)
}

func TestFileSourceMissingFile(t *testing.T) {
	series, err := NewFileSource(t.TempDir()).FetchSeries(context.Background(), "Uber", "all")
	require.NoError(t, err)
	assert.True(t, series.Empty())
	assert.Equal(t, "Uber", series.Topic)
}

func TestFileSourceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Uber.json"), []byte("{nope"), 0o644))

	_, err := NewFileSource(dir).FetchSeries(context.Background(), "Uber", "all")
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(&contract.Config{Source: schema.FileSource, InputDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	src, err = NewSource(&contract.Config{Source: schema.TrendsSource, Retries: 2})
	require.NoError(t, err)
	assert.IsType(t, &Client{}, src)

	_, err = NewSource(&contract.Config{Source: "ftp"})
	assert.Error(t, err)
}
