// Package config reads client settings through Viper, which merges config
// files, environment variables and bound CLI flags.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentstation/sightings/pkg/constants"
	"github.com/agentstation/sightings/pkg/errors"
)

// Keys used in config files and, upper-cased, as environment variables.
const (
	KeyAPIURL     = "sightings_api_url"
	KeyAPIToken   = "sightings_api_token"
	KeyAuthScheme = "sightings_auth_scheme"
	KeyDBPath     = "sightings_db_path"
	KeyLocale     = "sightings_locale"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(strings.ToUpper(key))
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// APIURL returns the configured API root or the default one.
func APIURL() string {
	if v := GetString(KeyAPIURL); v != "" {
		return strings.TrimRight(v, "/")
	}
	return constants.DefaultAPIURL
}

// APIToken returns the configured API token, or "" when signed out.
// A configured token must look like a JWT: three dot-separated segments.
func APIToken() (string, error) {
	token := strings.TrimSpace(GetString(KeyAPIToken))
	if token == "" {
		return "", nil
	}
	if parts := strings.Split(token, "."); len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", errors.NewConfigError(KeyAPIToken, "API token must be a JWT (header.payload.signature)", nil)
	}
	return token, nil
}

// AuthScheme returns how the token is sent: "raw" (default), "bearer" or "none".
func AuthScheme() string {
	if v := GetString(KeyAuthScheme); v != "" {
		return strings.ToLower(v)
	}
	return "raw"
}

// DBPath returns the local mirror path, defaulting to the user config dir.
func DBPath() string {
	if v := GetString(KeyDBPath); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sightings", constants.DefaultDBFile)
}

// Locale returns the configured UI locale, falling back to LANG.
func Locale() string {
	if v := GetString(KeyLocale); v != "" {
		return v
	}
	if lang := os.Getenv("LANG"); lang != "" {
		// "es_MX.UTF-8" -> "es-MX"
		lang, _, _ = strings.Cut(lang, ".")
		return strings.ReplaceAll(lang, "_", "-")
	}
	return constants.DefaultLocale
}
