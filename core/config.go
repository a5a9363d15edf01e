package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		WorkDir  string
		Build    string

		SecretKey       string
		FrontendBaseURL string
		DefaultFromName string
		DefaultFromAddr string
		SendgridApiKey  string
		RollbarToken    string
		OpenAIApiKey    string
		OpenAIModel     string

		EmailVerificationTimeout time.Duration
		PasswordResetTimeout     time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Points   PointsConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Timeout       time.Duration
	}

	// PointsConfig is the award schedule for recognized contribution events.
	PointsConfig struct {
		BasePost     int
		PerFile      int
		AIAssistance int
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

func (dc DatabaseConfig) Address() string {
	return dc.Host + ":" + dc.Port
}

func init() {
	Conf = newConfig()
}

func newConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "MedShare")
	v.SetDefault("secretKey", "h1st0(l0gy&n3ur0-4n4t0my=ph4rm4!c4rd$io-p4th0")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "MedShare")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("openAIModel", "gpt-4o")
	v.SetDefault("emailVerificationTimeout", 24*time.Hour)
	v.SetDefault("passwordResetTimeout", time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.shutdownTimeout", 20*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "medshare")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "medshare")
	v.SetDefault("database.password", "medshare")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.timeout", 5*time.Second)

	v.SetDefault("points.basePost", 1)
	v.SetDefault("points.perFile", 10)
	v.SetDefault("points.aiAssistance", 5)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		WorkDir:         wd,
		Build:           v.GetString("build"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromName: v.GetString("defaultFromName"),
		DefaultFromAddr: v.GetString("defaultFromAddr"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		OpenAIApiKey:    v.GetString("openAIApiKey"),
		OpenAIModel:     v.GetString("openAIModel"),

		EmailVerificationTimeout: v.GetDuration("emailVerificationTimeout"),
		PasswordResetTimeout:     v.GetDuration("passwordResetTimeout"),

		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Timeout:       v.GetDuration("database.timeout"),
		},
		Points: PointsConfig{
			BasePost:     v.GetInt("points.basePost"),
			PerFile:      v.GetInt("points.perFile"),
			AIAssistance: v.GetInt("points.aiAssistance"),
		},
	}
}
