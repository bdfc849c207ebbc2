package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		WorkDir          string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string

		Server     ServerConfig
		Database   DatabaseConfig
		Redis      RedisConfig
		Upload     UploadConfig
		Pagination PaginationConfig
		Tasks      TasksConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTAccessExpirationDelta  time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string // empty disables the revocation cache
		Password string
		DB       int
	}

	UploadConfig struct {
		Dir              string
		MaxImageSize     int64
		MaxImagePixels   int // width*height accepted before decoding
		MaxPDFSize       int64
		ImageMaxWidth    int
		ImageMaxHeight   int
		AllowedImageExts []string
	}

	PaginationConfig struct {
		ItemsPerPage int
	}

	TasksConfig struct {
		BlacklistPurgeSpec string
		BlacklistRetention time.Duration
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// NewConfig loads config/.env.<env> (if any) and reads the settings from the environment.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
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

	setDefaults(v, env, wd)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		WorkDir:         wd,
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ReadTimeout:               v.GetDuration("server.readTimeout"),
			WriteTimeout:              v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTAccessExpirationDelta:  v.GetDuration("server.jwtAccessExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			PasswordResetTimeoutDelta: v.GetDuration("server.passwordResetTimeoutDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Upload: UploadConfig{
			Dir:              v.GetString("upload.dir"),
			MaxImageSize:     v.GetInt64("upload.maxImageSize"),
			MaxImagePixels:   v.GetInt("upload.maxImagePixels"),
			MaxPDFSize:       v.GetInt64("upload.maxPDFSize"),
			ImageMaxWidth:    v.GetInt("upload.imageMaxWidth"),
			ImageMaxHeight:   v.GetInt("upload.imageMaxHeight"),
			AllowedImageExts: v.GetStringSlice("upload.allowedImageExts"),
		},
		Pagination: PaginationConfig{
			ItemsPerPage: v.GetInt("pagination.itemsPerPage"),
		},
		Tasks: TasksConfig{
			BlacklistPurgeSpec: v.GetString("tasks.blacklistPurgeSpec"),
			BlacklistRetention: v.GetDuration("tasks.blacklistRetention"),
		},
	}
}

func setDefaults(v *viper.Viper, env, wd string) {
	v.SetDefault("appName", "Zenith")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "k3p(8)w!zq$n@v1x-7h2m^ro0c&t5e=yf#ug4l*s9d_ba+j6i")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtAccessExpirationDelta", 30*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "zenith")
	v.SetDefault("database.user", "zenith")
	v.SetDefault("database.password", "zenith")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("upload.dir", filepath.Join(wd, "uploads"))
	v.SetDefault("upload.maxImageSize", 5<<20)
	v.SetDefault("upload.maxImagePixels", 25_000_000)
	v.SetDefault("upload.maxPDFSize", 10<<20)
	v.SetDefault("upload.imageMaxWidth", 800)
	v.SetDefault("upload.imageMaxHeight", 800)
	v.SetDefault("upload.allowedImageExts", []string{".jpg", ".jpeg", ".png", ".webp"})

	v.SetDefault("pagination.itemsPerPage", 10)

	v.SetDefault("tasks.blacklistPurgeSpec", "0 1 * * MON")
	v.SetDefault("tasks.blacklistRetention", 30*24*time.Hour)
}
