package fithub_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzimmer/fithub"
)

func TestConfig(t *testing.T) {
	a := assert.New(t)
	content, err := fithub.Content.ReadFile("etc/fithub.json")
	require.NoError(t, err)
	cfg, err := fithub.NewConfig(content)
	a.NoError(err)
	a.Equal(3, cfg.Years)
	a.Equal("Local", cfg.Timezone)
	a.Len(cfg.Palette, 5)
	loc, err := cfg.Location()
	a.NoError(err)
	a.Equal(time.Local, loc)

	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	a.Equal([]int{2026, 2025, 2024}, cfg.YearOptions(now))
	a.True(cfg.HasYear(now, 2024))
	a.False(cfg.HasYear(now, 2023))
	a.False(cfg.HasYear(now, 2027))
}

func TestConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		val  string
	}{
		{name: "syntax", val: `{"years": `},
		{name: "years", val: `{"years": 0, "palette": ["#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"]}`},
		{name: "palette length", val: `{"palette": ["#ebedf0"]}`},
		{name: "palette color", val: `{"palette": ["#ebedf0", "#9be9a8", "#40c463", "#30a14e", "green"]}`},
		{name: "cache ttl", val: `{"cache_ttl": -1, "palette": ["#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			cfg, err := fithub.NewConfig([]byte(tt.val))
			a.Error(err)
			a.Nil(cfg)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	a := assert.New(t)
	cfg, err := fithub.NewConfig([]byte(`{"palette": ["#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"]}`))
	a.NoError(err)
	a.Equal(3, cfg.Years)
	a.Equal("Local", cfg.Timezone)
	a.Equal(0, cfg.CacheTTL)
}
