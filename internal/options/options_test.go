package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type config struct {
	threshold uint32
	skip      bool
}

func TestApply(t *testing.T) {
	cfg := &config{}
	err := Apply(cfg,
		NoError(func(c *config) { c.threshold = 1024 }),
		NoError(func(c *config) { c.skip = true }),
	)
	require.NoError(t, err)
	require.Equal(t, uint32(1024), cfg.threshold)
	require.True(t, cfg.skip)
}

func TestApply_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	cfg := &config{}
	err := Apply(cfg,
		New(func(*config) error { return boom }),
		NoError(func(c *config) { c.threshold = 1 }),
	)
	require.ErrorIs(t, err, boom)
	require.Zero(t, cfg.threshold)
}
