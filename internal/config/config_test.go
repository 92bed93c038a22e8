package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	v := viper.New()
	SetDefaults(v)
	return Load(v)
}

func TestValidate(t *testing.T) {
	require.NoError(t, defaults().Validate())

	cfg := defaults()
	cfg.Port = 70000
	cfg.Health.ProbeTimeout = 0
	cfg.Docs.V3Path = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "app.port")
	assert.ErrorContains(t, err, "probe_timeout")
	assert.ErrorContains(t, err, "docs paths")

	cfg = defaults()
	cfg.Health.EventsEnabled = true
	assert.ErrorContains(t, cfg.Validate(), "rabbitmq.url")
}

func TestLoadCacheConfig(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("cache.ttl", "-5s")
	v.Set("cache.methods", " get , head,,")

	cfg := Load(v).Cache
	assert.Equal(t, time.Second, cfg.TTL)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, "method_route_query", cfg.KeyStrategy)
}

func TestRedisAddress(t *testing.T) {
	assert.Equal(t, "", RedisConfig{}.Address())
	assert.Equal(t, "r:1", RedisConfig{Addr: "r:1"}.Address())
	assert.Equal(t, "h:2", RedisConfig{Addr: "r:1", Host: "h", Port: "2"}.Address())
}

func TestNewRedisClient(t *testing.T) {
	assert.Nil(t, NewRedisClient(RedisConfig{}))
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: "127.0.0.1:1"}))

	mr := miniredis.RunT(t)
	rdb := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NotNil(t, rdb)
	assert.NoError(t, rdb.Close())
}
