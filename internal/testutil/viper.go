package testutil

import (
	"testing"

	"github.com/spf13/viper"
)

// ResetViper clears the global viper instance now and again when the test completes.
func ResetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		// viper has no Unset, so an unset key is restored to nil
		if hadValue {
			viper.Set(key, oldValue)
		} else {
			viper.Set(key, nil)
		}
	})
}

// SetupTestCache points the file and sqlite cache backends at the sandbox
// and returns the cache directory.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.Path("cache")
	SetViperValue(t, "cache.dir", cacheDir)
	SetViperValue(t, "cache.dbfile", env.Path("cache.db"))
	SetViperValue(t, "cache.ttl", "1h")

	return cacheDir
}
