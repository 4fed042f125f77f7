package aftermath

import "time"

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func NewConfig(baseURL string, timeout time.Duration) Config {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return Config{
		BaseURL: baseURL,
		Timeout: timeout,
	}
}
