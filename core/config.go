package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	// LMSConfig holds everything needed to talk to the external LMS:
	// its base URL plus the client-credentials pair of the backend service worker.
	LMSConfig struct {
		BaseURL     string
		OAuthKey    string
		OAuthSecret string
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		AppName          string
		SecretKey        string
		TimeZone         string
		AllowedRoles     []string
		MinLogsPerUser   int
		DefaultFromEmail mail.Address
		OpsEmail         mail.Address
		SendgridAPIKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		LMS      LMSConfig
	}
)

func (conf DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%s", conf.Host, conf.Port)
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Edulytics")
	v.SetDefault("secretKey", "o0*2y$ke+o8a^$zi(d-s0u&0^@vqwbl6cr%xj9%n#_=p4f+0dy")
	v.SetDefault("timeZone", "America/Santiago")
	v.SetDefault("allowedRoles", []string{"instructor", "staff", "data_researcher"})
	v.SetDefault("minLogsPerUser", 15)
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("opsEmail", "ops@localhost")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "edulytics")
	v.SetDefault("database.user", "edulytics")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("lms.baseURL", "http://localhost:18000")

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		TimeZone:         v.GetString("timeZone"),
		AllowedRoles:     v.GetStringSlice("allowedRoles"),
		MinLogsPerUser:   v.GetInt("minLogsPerUser"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		LMS: LMSConfig{
			BaseURL:     strings.TrimRight(v.GetString("lms.baseURL"), "/"),
			OAuthKey:    v.GetString("lms.oauthKey"),
			OAuthSecret: v.GetString("lms.oauthSecret"),
		},
	}
	conf.DefaultFromEmail = mail.Address{Name: conf.AppName, Address: v.GetString("defaultFromEmail")}
	conf.OpsEmail = mail.Address{Address: v.GetString("opsEmail")}
	return conf
}
