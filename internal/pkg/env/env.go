package env

import (
	"os"

	"github.com/joho/godotenv"
)

var values map[string]string

// envFilePaths is searched in order; the binaries under cmd/ run two levels
// below the repo root.
var envFilePaths = []string{".env", "../../.env", "../../../.env"}

// SetupEnvFile loads the first .env file found. The app cannot run without
// its configuration, so a missing file is fatal.
func SetupEnvFile() {
	for _, path := range envFilePaths {
		if loaded, err := godotenv.Read(path); err == nil {
			values = loaded
			return
		}
	}
	panic("no .env file found; copy .env.example and adjust it")
}

// GetEnv returns the configured value for key, falling back to the process
// environment and then to def. OS variables win for Docker and CI overrides
// only when the .env file does not set the key.
func GetEnv(key, def string) string {
	if val, ok := values[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// IsDev reports whether the app runs in development mode. Cookie security
// and CSRF strictness relax in dev.
func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

// AppURL is the external base URL used when building links sent outside the
// app, like account activation mails.
func AppURL() string {
	return GetEnv("APP_URL", "http://localhost:4000")
}
