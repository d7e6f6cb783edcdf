package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/jrsteele09/go-sfdc-login/internal/errors"
)

const (
	// EnvPrefix marks environment variables that override settings.
	// Nested keys are separated by a double underscore, e.g.
	// SFDC_LOGIN_SECURITY__ENCRYPTION_KEY.
	EnvPrefix = "SFDC_LOGIN_"

	defaultConfigFile = "config.yaml"
)

// knownKeys lists every setting path; environment keys are matched against
// it case-insensitively with underscores ignored.
var knownKeys = []string{
	"env",
	"appName",
	"port",
	"baseURL",
	"log.level",
	"log.pretty",
	"cors.allowedOrigins",
	"security.encryptionKey",
	"security.sessionSigningKey",
	"security.sessionTTL",
	"security.loginSessionTTL",
	"security.cookieSecure",
	"salesforce.clientID",
	"salesforce.clientSecret",
	"salesforce.scopes",
	"salesforce.verifyIDToken",
	"salesforce.httpTimeout",
	"redirects.loginSuccess",
	"redirects.loginError",
	"storage.redisURL",
	"storage.databaseURL",
}

// aliases are unprefixed variable names commonly set by hosting platforms.
var aliases = map[string]string{
	"PORT":              "port",
	"ENV":               "env",
	"BASE_URL":          "baseURL",
	"DB_ENCRYPTION_KEY": "security.encryptionKey",
	"DATABASE_URL":      "storage.databaseURL",
	"REDIS_URL":         "storage.redisURL",
}

var canonicalKeys = func() map[string]string {
	m := make(map[string]string, len(knownKeys))
	for _, k := range knownKeys {
		m[normalizeKey(k)] = k
	}
	return m
}()

// Load builds the settings from defaults, the YAML file at path (if it
// exists; an empty path looks for config.yaml) and environment variables,
// then validates the result. Any failure wraps ErrConfiguration.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", apperrors.ErrConfiguration, path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("%w: config file %s: %v", apperrors.ErrConfiguration, path, err)
	}

	if err := k.Load(env.Provider(".", env.Opt{TransformFunc: transformEnv}), nil); err != nil {
		return nil, fmt.Errorf("%w: load environment: %v", apperrors.ErrConfiguration, err)
	}

	settings := Defaults()
	if err := k.UnmarshalWithConf("", settings, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           settings,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", apperrors.ErrConfiguration, err)
	}

	// slices decode element-wise onto existing values, so defaults are
	// applied after the merge
	if len(settings.Salesforce.Scopes) == 0 {
		settings.Salesforce.Scopes = append([]string(nil), DefaultScopes...)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks required fields and value ranges.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConfiguration, err)
	}
	return nil
}

// transformEnv maps an environment variable onto a setting path. Variables
// that match no setting are dropped.
func transformEnv(key, value string) (string, any) {
	if path, ok := aliases[key]; ok {
		return path, value
	}
	if !strings.HasPrefix(key, EnvPrefix) {
		return "", nil
	}
	raw := strings.TrimPrefix(key, EnvPrefix)
	segments := strings.Split(raw, "__")
	path, ok := canonicalKeys[normalizeKey(strings.Join(segments, "."))]
	if !ok {
		return "", nil
	}
	return path, value
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "_", "")
}
