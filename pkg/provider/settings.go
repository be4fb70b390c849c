package provider

import (
	"github.com/spf13/viper"
)

// Settings holds the environment-sourced defaults for provider construction.
// Explicit options always win over these.
type Settings struct {
	URI       string
	Username  string
	Password  string
	IndexName string
}

// LoadSettings reads connection defaults from the environment.
func LoadSettings() Settings {
	v := viper.New()

	v.SetDefault("username", "neo4j")

	_ = v.BindEnv("uri", "NEO4J_URI")
	_ = v.BindEnv("username", "NEO4J_USERNAME")
	_ = v.BindEnv("password", "NEO4J_PASSWORD")
	_ = v.BindEnv("index_name", "NEO4J_INDEX_NAME")

	return Settings{
		URI:       v.GetString("uri"),
		Username:  v.GetString("username"),
		Password:  v.GetString("password"),
		IndexName: v.GetString("index_name"),
	}
}
