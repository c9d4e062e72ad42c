package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type (
	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Storage      StorageConfig
		Database     DatabaseConfig
		Fees         FeesConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	StorageConfig struct {
		Backend   string // memory | file | postgres
		Dir       string
		KeyPrefix string
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	FeesConfig struct {
		CurrencySymbol  string
		StudentIDPrefix string
		InvoicePrefix   string
		ActivityLimit   int
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewConfig reads the configuration from the environment.
// ENV selects the variables prefix (DEV by default) and the optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Break The Fear")
	v.SetDefault("secretKey", "btf-7c1e(ad=9q!m0p#x4w2v&zk8)u5r%hs_3n+6y$l")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("storageBackend", StorageFile)
	v.SetDefault("storageDir", "data")
	v.SetDefault("storageKeyPrefix", "btf_")
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "btf")
	v.SetDefault("dbUser", "btf")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("currencySymbol", "৳")
	v.SetDefault("studentIDPrefix", "BTF")
	v.SetDefault("invoicePrefix", "INV")
	v.SetDefault("activityLimit", 100)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("storageBackend", StorageMemory)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(v.GetString("storageBackend")),
			Dir:       v.GetString("storageDir"),
			KeyPrefix: v.GetString("storageKeyPrefix"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("dbEngine"),
			Host:       v.GetString("dbHost"),
			Port:       v.GetString("dbPort"),
			Name:       v.GetString("dbName"),
			User:       v.GetString("dbUser"),
			Password:   v.GetString("dbPassword"),
			DisableTLS: v.GetBool("dbDisableTLS"),
		},
		Fees: FeesConfig{
			CurrencySymbol:  v.GetString("currencySymbol"),
			StudentIDPrefix: v.GetString("studentIDPrefix"),
			InvoicePrefix:   v.GetString("invoicePrefix"),
			ActivityLimit:   v.GetInt("activityLimit"),
		},
	}
}
