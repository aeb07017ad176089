// Package bootstrap reads process configuration, in the teacher's
// viper-backed Setup style.
package bootstrap

import (
	"github.com/spf13/viper"
)

// Config is the server's environment-backed configuration, per §6.
// RedisUrl/MongoUri are optional: the read-through cache and the game
// archive are both skipped when their URL is unset.
type Config struct {
	DatabaseUrl string `mapstructure:"DATABASE_URL"`
	RedisUrl    string `mapstructure:"REDIS_URL"`
	MongoUri    string `mapstructure:"MONGO_URI"`
	Port        string `mapstructure:"PORT"`
	IsLocalCors bool   `mapstructure:"LOCAL_CORS"`
}

// Setup reads cfgPath (a .env file) plus the process environment into a
// Config, defaulting Port to 8080 when unset.
func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)
	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8080")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
