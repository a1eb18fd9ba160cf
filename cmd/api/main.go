package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"healthtrack.zzh.net/internal/config"
	"healthtrack.zzh.net/internal/data"
	"healthtrack.zzh.net/internal/filestore"
	"healthtrack.zzh.net/internal/mail"
	"healthtrack.zzh.net/internal/ratelimit"
)

const version = "1.0.0"

// limiterStores holds one rate-limit store per configured policy. The same
// caller has independent counters in each.
type limiterStores struct {
    enabled bool
    general *ratelimit.Store
    auth    *ratelimit.Store
    upload  *ratelimit.Store
}

// Define an application struct to hold the dependencies for our HTTP handlers,
// helpers, and middleware.
type application struct {
    config      config.Config
    logger      *slog.Logger
    models      data.Models
    emailSender *mail.EmailSender
    files       *filestore.Store
    limiters    limiterStores
    wg          sync.WaitGroup
}

func main() {
    var cfgPath, cfgType, cfgName string

    flag.StringVar(&cfgPath, "config-path", ".", "Path of the config file")
    flag.StringVar(&cfgType, "config-type", "env", "Type of the config file")
    flag.StringVar(&cfgName, "config-name", "app", "Name of the config file")
    flag.Parse()

    logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

    var cfg config.Config

    v := viper.New()
    err := config.LoadConfig(v, cfgPath, cfgType, cfgName, &cfg)
    if err != nil {
        logger.Error(err.Error())
        os.Exit(1)
    }

    pw := &data.PoolWrapper{}
    err = pw.CreatePool(dsn(cfg), cfg.DBPoolMaxConns, cfg.DBPoolMaxConnIdleTime)
    if err != nil {
        logger.Error(err.Error())
        os.Exit(1)
    }
    defer pw.Pool.Close()

    logger.Info("database connection pool established")

    limiters, err := newLimiterStores(cfg.Limiter)
    if err != nil {
        logger.Error(err.Error())
        os.Exit(1)
    }

    files, err := filestore.New(cfg.UploadDir)
    if err != nil {
        logger.Error(err.Error())
        os.Exit(1)
    }

    app := &application{
        config:      cfg,
        logger:      logger,
        models:      data.NewModels(pw),
        emailSender: mail.NewEmailSender(cfg.SMTP()),
        files:       files,
        limiters:    limiters,
    }

    // Reload the reloadable settings (SMTP credentials) when the config file
    // changes on disk. Limiter policies and the server address stay as loaded.
    v.OnConfigChange(func(in fsnotify.Event) {
        logger.Info("config file changed", "file", in.Name)

        var newCfg config.Config
        err := v.Unmarshal(&newCfg)
        if err != nil {
            logger.Error("reloading config", "error", err.Error())
            return
        }

        app.emailSender.Reload(newCfg.SMTP())
    })
    v.WatchConfig()

    if cfg.Limiter.Enabled {
        for _, store := range []*ratelimit.Store{limiters.general, limiters.auth, limiters.upload} {
            stop := store.StartSweep(cfg.Limiter.SweepInterval)
            defer stop()
        }
    }

    err = app.serve()
    if err != nil {
        logger.Error(err.Error())
        os.Exit(1)
    }
}

// newLimiterStores builds the per-policy stores, failing fast on a
// misconfigured policy so a bad window or quota never reaches request time.
func newLimiterStores(cfg config.RateLimiter) (limiterStores, error) {
    var (
        ls  limiterStores
        err error
    )

    ls.enabled = cfg.Enabled

    ls.general, err = ratelimit.NewStore(cfg.GeneralPolicy())
    if err != nil {
        return limiterStores{}, err
    }

    ls.auth, err = ratelimit.NewStore(cfg.AuthPolicy())
    if err != nil {
        return limiterStores{}, err
    }

    ls.upload, err = ratelimit.NewStore(cfg.UploadPolicy())
    if err != nil {
        return limiterStores{}, err
    }

    return ls, nil
}

func dsn(cfg config.Config) string {
    return fmt.Sprintf(
        "postgres://%s:%s@%s:%d/%s?sslmode=%s",
        cfg.DBUsername, cfg.DBPassword, cfg.DBServer, cfg.DBPort, cfg.DBName, cfg.DBSSLMode,
    )
}
