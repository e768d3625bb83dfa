package config

type EnvVars struct {
	AppName  string `env:"GAPI_SESSION_APP_NAME" envDefault:"GAPI Session"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"GAPI_SESSION_LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
