package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/rpattn/planledger/internal/db"
)

// Config is the full server configuration.
type Config struct {
	DB                db.Config
	ListenAddr        string
	TemplateStorePath string
	MigrationsPath    string
}

// Load reads config.yaml from the given path with environment overrides.
// A missing file is not an error; defaults and env vars apply.
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB:                db.DefaultConfig(),
		ListenAddr:        ":8080",
		TemplateStorePath: "mapping_templates.json",
		MigrationsPath:    "./migrations",
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("PLANLEDGER") // map env vars like PLANLEDGER_DATABASE.HOST

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.listen")
	v.BindEnv("importer.template_store")
	v.BindEnv("importer.migrations")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.listen") {
		cfg.ListenAddr = v.GetString("server.listen")
	}
	if v.IsSet("importer.template_store") {
		cfg.TemplateStorePath = v.GetString("importer.template_store")
	}
	if v.IsSet("importer.migrations") {
		cfg.MigrationsPath = v.GetString("importer.migrations")
	}

	return cfg, nil
}
