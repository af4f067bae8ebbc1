package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Store:  StoreConfig{Path: "/tmp/kwr-store"},
	}
	assert.NoError(t, valid.Validate())

	badEnv := valid
	badEnv.App.Environment = "qa"
	assert.Error(t, badEnv.Validate())

	badLevel := valid
	badLevel.Logger.Level = "verbose"
	assert.Error(t, badLevel.Validate())

	noStore := valid
	noStore.Store.Path = ""
	assert.Error(t, noStore.Validate())
}

func TestGetConfigValue(t *testing.T) {
	t.Setenv("KWR_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "KWR_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "KWR_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "KWR_TEST_MISSING", "default"))
}

func TestParseTimeout(t *testing.T) {
	d, err := parseTimeout("45s", "UNSET_KEY", "15s")
	require.NoError(t, err)
	assert.Equal(t, "45s", d.String())

	_, err = parseTimeout("not-a-duration", "UNSET_KEY", "15s")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/.env"
	content := "# comment\nKWR_ENVFILE_KEY=hello\nKWR_QUOTED=\"world\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "hello", getConfigValue("", "KWR_ENVFILE_KEY", ""))
	assert.Equal(t, "world", getConfigValue("", "KWR_QUOTED", ""))
}
