package simplesql

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUserFromDotenv(t *testing.T) {
	u, err := UserFromDotenv(writeEnv(t, "user=root\npassword=s3cret\n"))
	require.NoError(t, err)
	require.Equal(t, User{Name: "root", Password: "s3cret"}, u)

	u, err = UserFromDotenv(writeEnv(t, "DB_USER=app\nDB_PASSWORD=\"p w\"\n"))
	require.NoError(t, err)
	require.Equal(t, User{Name: "app", Password: "p w"}, u)

	_, err = UserFromDotenv(writeEnv(t, "password=only\n"))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "user", cfgErr.Field)

	_, err = UserFromDotenv(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "env_file", cfgErr.Field)
}

func TestUserFromEnv(t *testing.T) {
	t.Setenv("SIMPLESQL_TEST_USER", "root")
	t.Setenv("SIMPLESQL_TEST_PASSWORD", "")

	u, err := UserFromEnv("SIMPLESQL_TEST_")
	require.NoError(t, err)
	require.Equal(t, "root", u.Name)
	require.Empty(t, u.Password)
}

func TestUserStringHidesPassword(t *testing.T) {
	u, err := NewUser("root", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "root", u.String())
	require.NotContains(t, (&ConnectionError{Host: "h", Port: 1, User: u.Name}).Error(), "hunter2")
}
