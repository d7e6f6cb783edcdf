package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
	GetLogPretty() bool
}

type StorageConfig interface {
	GetRedisURL() string
	GetDatabaseURL() string
}

// Settings is the loaded configuration. Fields are populated by Load from
// defaults, an optional YAML file and the environment, in that order.
type Settings struct {
	Env     string `koanf:"env" validate:"required"`
	AppName string `koanf:"appName"`
	Port    string `koanf:"port" validate:"required"`
	BaseURL string `koanf:"baseURL" validate:"required,url"`

	Log struct {
		Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	Cors struct {
		AllowedOrigins []string `koanf:"allowedOrigins"`
	} `koanf:"cors"`

	Security struct {
		EncryptionKey     string        `koanf:"encryptionKey" validate:"required"`
		SessionSigningKey string        `koanf:"sessionSigningKey"`
		SessionTTL        time.Duration `koanf:"sessionTTL" validate:"gt=0"`
		LoginSessionTTL   time.Duration `koanf:"loginSessionTTL" validate:"gt=0"`
		CookieSecure      bool          `koanf:"cookieSecure"`
	} `koanf:"security"`

	Salesforce struct {
		ClientID      string        `koanf:"clientID" validate:"required"`
		ClientSecret  string        `koanf:"clientSecret"`
		Scopes        []string      `koanf:"scopes" validate:"min=1"`
		VerifyIDToken bool          `koanf:"verifyIDToken"`
		HTTPTimeout   time.Duration `koanf:"httpTimeout" validate:"gt=0"`
	} `koanf:"salesforce"`

	Redirects struct {
		LoginSuccess string `koanf:"loginSuccess" validate:"required"`
		LoginError   string `koanf:"loginError" validate:"required"`
	} `koanf:"redirects"`

	Storage struct {
		RedisURL    string `koanf:"redisURL"`
		DatabaseURL string `koanf:"databaseURL"`
	} `koanf:"storage"`
}

var _ Config = (*Settings)(nil)

// DefaultScopes are requested when no scopes are configured.
var DefaultScopes = []string{"api", "id", "refresh_token"}

// Defaults returns settings with every optional value filled in.
func Defaults() *Settings {
	s := &Settings{
		Env:     "DEV",
		AppName: "Salesforce Login",
		Port:    "8080",
		BaseURL: "http://localhost:8080",
	}
	s.Log.Level = "info"
	s.Security.SessionTTL = 30 * time.Minute
	s.Security.LoginSessionTTL = 24 * time.Hour
	s.Salesforce.HTTPTimeout = 10 * time.Second
	s.Redirects.LoginSuccess = "/"
	s.Redirects.LoginError = "/"
	return s
}

func (s *Settings) GetPort() string {
	if s.Port != "" && s.Port[0] != ':' {
		return ":" + s.Port
	}
	return s.Port
}

func (s *Settings) GetAppName() string { return s.AppName }

func (s *Settings) GetEnv() string { return s.Env }

// GetBaseURL returns the externally visible base URL of this service
// (e.g., "https://deploy.example.com"). Callback URLs are built from it.
func (s *Settings) GetBaseURL() string { return s.BaseURL }

func (s *Settings) GetLogLevel() string { return s.Log.Level }

func (s *Settings) GetLogPretty() bool { return s.Log.Pretty }

func (s *Settings) GetRedisURL() string { return s.Storage.RedisURL }

func (s *Settings) GetDatabaseURL() string { return s.Storage.DatabaseURL }
