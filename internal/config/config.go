package config

type Config interface {
	EnvConfig
	APIConfig
	PaymentConfig
	GoogleConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	API
	Payment
	Google
	Security
}

func New() Config {
	return mainConfig{}
}
