package config

import "github.com/spf13/viper"

// DatabaseConfig holds the MySQL connection settings used by the mysql
// health probe.  An empty Host disables the probe.
type DatabaseConfig struct {
	User string // database username
	Pass string // database password (optional)
	Host string // database host address
	Port string // database port number
	Name string // database name
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("db.user", "root")
	v.SetDefault("db.pass", "")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", "3306")
	v.SetDefault("db.name", "")
}

func loadDatabaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		User: v.GetString("db.user"),
		Pass: v.GetString("db.pass"),
		Host: v.GetString("db.host"),
		Port: v.GetString("db.port"),
		Name: v.GetString("db.name"),
	}
}

// Enabled reports whether a database host has been configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}
