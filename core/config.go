package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env             string
	Debug           bool
	TestMode        bool
	Build           string
	AppName         string
	SecretKey       []byte
	FrontendBaseURL string

	Server struct {
		Host                      string
		Addr                      string
		CORSOrigin                string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	Database struct {
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

	Scheduler struct {
		TickInterval    time.Duration
		DispatchTimeout time.Duration
		MaxAttempts     int
	}

	Push struct {
		CredentialsFile string
	}

	AI struct {
		APIKey string
		Model  string
	}

	RollbarToken string
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables (in increasing precedence).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "StudyHuddle")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "q2d$h7p-x(8e&k@5u!0z9c#m4r6t1y3w)vjnbsfgl")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.corsOrigin", "*")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "studyhuddle")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("scheduler.tickInterval", time.Minute)
	v.SetDefault("scheduler.dispatchTimeout", 10*time.Second)
	v.SetDefault("scheduler.maxAttempts", 5)
	v.SetDefault("push.credentialsFile", "")
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		Build:           v.GetString("build"),
		AppName:         v.GetString("appName"),
		SecretKey:       []byte(v.GetString("secretKey")),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		RollbarToken:    v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.Addr = v.GetString("server.addr")
	conf.Server.CORSOrigin = v.GetString("server.corsOrigin")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("server.jwtRefreshExpirationDelta")
	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.adminUser")
	conf.Database.AdminPassword = v.GetString("database.adminPassword")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Scheduler.TickInterval = v.GetDuration("scheduler.tickInterval")
	conf.Scheduler.DispatchTimeout = v.GetDuration("scheduler.dispatchTimeout")
	conf.Scheduler.MaxAttempts = v.GetInt("scheduler.maxAttempts")
	conf.Push.CredentialsFile = v.GetString("push.credentialsFile")
	conf.AI.APIKey = strings.Trim(strings.TrimSpace(v.GetString("ai.apiKey")), `'"`)
	conf.AI.Model = v.GetString("ai.model")
	return conf
}

// DatabaseAddress returns the host:port address of the database server.
func (c *Config) DatabaseAddress() string {
	return c.Database.Host + ":" + c.Database.Port
}
