package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
app:
  refresh_schedule: "@every 1h"
registry:
  backend: redis
redis:
  redis_addr: "redis:6379"
addresses:
  - municipality: Lomma
    street: Storgatan
    number: 12B
    city: Bjärred
    api_base: "https://sysav.azurewebsites.net/api"
    labels:
      karl_2: ["Mat"]
  - municipality: svedala
    street: Byvägen
    number: "3"
    city: Svedala
`

func loadYAML(t *testing.T, raw string) (*Config, error) {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(raw)))
	return LoadFrom(v)
}

func TestLoadFrom_Sample(t *testing.T) {
	cfg, err := loadYAML(t, sampleConfig)
	require.NoError(t, err)

	assert.Equal(t, "@every 1h", cfg.App.RefreshSchedule)
	assert.Equal(t, 25.0, cfg.App.QueryTimeout)
	assert.Equal(t, "redis", cfg.Registry.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "/sysav", cfg.Etcd.PathPrefix)

	require.Len(t, cfg.Addresses, 2)
	assert.Equal(t, "lomma", cfg.Addresses[0].Municipality)
	assert.Equal(t, "12B", cfg.Addresses[0].Number)
	assert.Equal(t, []string{"Mat"}, cfg.Addresses[0].Labels["karl_2"])
	assert.Equal(t, "3", cfg.Addresses[1].Number)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "no addresses",
			raw:  "app:\n  refresh_schedule: \"@every 1h\"\n",
		},
		{
			name: "unknown municipality",
			raw:  "addresses:\n  - municipality: malmo\n    street: a\n    number: \"1\"\n    city: b\n",
		},
		{
			name: "missing street",
			raw:  "addresses:\n  - municipality: lomma\n    number: \"1\"\n    city: b\n",
		},
		{
			name: "bad api base",
			raw:  "addresses:\n  - municipality: lomma\n    street: a\n    number: \"1\"\n    city: b\n    api_base: \"not a url\"\n",
		},
		{
			name: "unknown municipality in upper case",
			raw:  "addresses:\n  - municipality: MALMO\n    street: a\n    number: \"1\"\n    city: b\n",
		},
		{
			name: "unknown backend",
			raw:  "registry:\n  backend: consul\naddresses:\n  - municipality: lomma\n    street: a\n    number: \"1\"\n    city: b\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_SameStreetInTwoTowns(t *testing.T) {
	raw := `
addresses:
  - municipality: lomma
    street: Storgatan
    number: "1"
    city: Lomma
  - municipality: lomma
    street: Storgatan
    number: "1"
    city: Bjärred
`
	cfg, err := loadYAML(t, raw)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Addresses[0].Address().ID(), cfg.Addresses[1].Address().ID())
}

func TestLoadFrom_DuplicateAddressID(t *testing.T) {
	raw := `
addresses:
  - municipality: lomma
    street: Storgatan
    number: "1"
    city: Bjärred
  - municipality: LOMMA
    street: storgatan
    number: "1"
    city: bjärred
`
	_, err := loadYAML(t, raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lomma_storgatan_1_bjarred")
}
