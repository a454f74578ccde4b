package simplesql

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// User is a credential pair. The zero value is invalid.
type User struct {
	Name     string
	Password string
}

var (
	userKeys     = []string{"user", "db_user"}
	passwordKeys = []string{"password", "db_password"}
)

// NewUser validates and returns a credential. An empty password is allowed.
func NewUser(name, password string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, &ConfigurationError{Field: "user", Err: errors.New("user name is required")}
	}
	return User{Name: name, Password: password}, nil
}

// UserFromDotenv reads a .env style file and takes the credential from the
// "user" and "password" keys (or DB_USER / DB_PASSWORD), case-insensitively.
func UserFromDotenv(path string) (User, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return User{}, &ConfigurationError{Field: "env_file", Err: err}
	}
	return userFromMap(values)
}

// UserFromEnv reads <prefix>USER and <prefix>PASSWORD from the process
// environment.
func UserFromEnv(prefix string) (User, error) {
	return NewUser(os.Getenv(prefix+"USER"), os.Getenv(prefix+"PASSWORD"))
}

func userFromMap(values map[string]string) (User, error) {
	lower := make(map[string]string, len(values))
	for k, v := range values {
		lower[strings.ToLower(k)] = v
	}
	return NewUser(lookupFirst(lower, userKeys), lookupFirst(lower, passwordKeys))
}

func lookupFirst(values map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := values[k]; ok {
			return v
		}
	}
	return ""
}

// String never includes the password.
func (u User) String() string { return u.Name }
