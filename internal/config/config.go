package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores configuration for the application. SMTP settings can be
// dynamically reloaded at runtime; everything else, notably the rate limiter
// block, is read once at startup.
type Config struct {
    ServerAddress string `mapstructure:"SERVER_ADDRESS"`
    Env           string `mapstructure:"ENV"`

    DBUsername            string        `mapstructure:"DB_USERNAME"`
    DBPassword            string        `mapstructure:"DB_PASSWORD"`
    DBServer              string        `mapstructure:"DB_SERVER"`
    DBPort                int           `mapstructure:"DB_PORT"`
    DBName                string        `mapstructure:"DB_NAME"`
    DBSSLMode             string        `mapstructure:"DB_SSLMODE"`
    DBPoolMaxConns        int           `mapstructure:"DB_POOL_MAX_CONNS"`
    DBPoolMaxConnIdleTime time.Duration `mapstructure:"DB_POOL_MAX_CONN_IDLE_TIME"`

    Limiter RateLimiter `mapstructure:",squash"`

    UploadDir      string `mapstructure:"UPLOAD_DIR"`
    UploadMaxBytes int64  `mapstructure:"UPLOAD_MAX_BYTES"`

    SMTPUsername      string `mapstructure:"SMTP_USERNAME"`
    SMTPPassword      string `mapstructure:"SMTP_PASSWORD"`
    SMTPAuthAddress   string `mapstructure:"SMTP_AUTH_ADDRESS"`
    SMTPServerAddress string `mapstructure:"SMTP_SERVER_ADDRESS"`

    CORSTrustedOrigins []string `mapstructure:"CORS_TRUSTED_ORIGINS"`

    LoadTime time.Time
}

// SMTPConfig holds the subset of configuration the email sender needs.
type SMTPConfig struct {
    Username      string
    Password      string
    AuthAddress   string
    ServerAddress string
}

// SMTP returns the SMTP settings currently held in the config.
func (c *Config) SMTP() SMTPConfig {
    return SMTPConfig{
        Username:      c.SMTPUsername,
        Password:      c.SMTPPassword,
        AuthAddress:   c.SMTPAuthAddress,
        ServerAddress: c.SMTPServerAddress,
    }
}

// LoadConfig loads configuration from a config file to a Config instance.
func LoadConfig(v *viper.Viper, cfgPath, cfgType, cfgName string, cfg *Config) error {
    v.AddConfigPath(cfgPath)
    v.SetConfigType(cfgType)
    v.SetConfigName(cfgName)

    setDefaults(v)

    err := v.ReadInConfig()
    if err != nil {
        return err
    }

    err = v.Unmarshal(cfg)
    if err != nil {
        return err
    }

    cfg.LoadTime = time.Now()

    return nil
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("SERVER_ADDRESS", ":4000")
    v.SetDefault("ENV", "development")

    v.SetDefault("DB_POOL_MAX_CONNS", 25)
    v.SetDefault("DB_POOL_MAX_CONN_IDLE_TIME", 15*time.Minute)

    v.SetDefault("LIMITER_ENABLED", true)
    v.SetDefault("LIMITER_GENERAL_WINDOW", 15*time.Minute)
    v.SetDefault("LIMITER_GENERAL_MAX", 100)
    v.SetDefault("LIMITER_GENERAL_MESSAGE", "Too many requests, please try again later.")
    v.SetDefault("LIMITER_AUTH_WINDOW", 15*time.Minute)
    v.SetDefault("LIMITER_AUTH_MAX", 100)
    v.SetDefault("LIMITER_AUTH_MESSAGE", "Too many authentication attempts, please try again later.")
    v.SetDefault("LIMITER_UPLOAD_WINDOW", time.Minute)
    v.SetDefault("LIMITER_UPLOAD_MAX", 50)
    v.SetDefault("LIMITER_UPLOAD_MESSAGE", "Too many uploads, please slow down.")
    v.SetDefault("LIMITER_SWEEP_INTERVAL", 5*time.Minute)

    v.SetDefault("UPLOAD_DIR", "uploads")
    v.SetDefault("UPLOAD_MAX_BYTES", int64(10<<20))
}
