package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/pokedex-loader/pkg/client"
	"github.com/Sternrassler/pokedex-loader/pkg/loader"
	"github.com/Sternrassler/pokedex-loader/pkg/logging"
	"github.com/Sternrassler/pokedex-loader/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "POKEDEX"
	configFileEnv     = "POKEDEX_CONFIG_FILE"
	defaultUserAgent  = "pokedex-loader/0.1.0 (+https://github.com/Sternrassler/pokedex-loader)"
	defaultConfigName = "pokedex"
)

// newRootCmd builds the command tree. Each tree owns its own viper instance
// so that commands can be executed repeatedly in tests.
//
// Configuration precedence (highest to lowest):
//  1. Command-line flags
//  2. POKEDEX_* environment variables (POKEDEX_BASE_URL, POKEDEX_LIST_PAGES, ...)
//  3. Config file: --config, POKEDEX_CONFIG_FILE, or ./pokedex.yaml
//  4. Flag defaults
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "pokedex",
		Short: "Browse PokeAPI one page at a time",
		Long: `pokedex loads Pokémon from PokeAPI in pages of 24, resolving every
entry of a page concurrently before showing it.

Quick Start:
  pokedex list                    Print the first page
  pokedex list -n 3 -s char       Load three pages, print names containing "char"
  pokedex show pikachu            Print one Pokémon
  pokedex serve --addr :8080      Serve a loader session over HTTP`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			return setupLogging(v, cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./pokedex.yaml, can also use POKEDEX_CONFIG_FILE env var)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error, disabled)")
	flags.Bool("log-pretty", false, "human-readable log output")
	flags.String("base-url", client.DefaultBaseURL, "PokeAPI base URL")
	flags.String("user-agent", defaultUserAgent, "User-Agent header sent to PokeAPI")
	flags.String("redis-addr", "", "Redis address for response caching (empty disables the cache)")
	flags.Float64("rps", 20, "client-side request rate limit")
	flags.Int("burst", pagination.DefaultPageSize, "request burst size")
	flags.Duration("timeout", 30*time.Second, "timeout for a single HTTP request")
	flags.Int("concurrency", pagination.DefaultPageSize, "max concurrent detail requests per page")
	bindFlags(v, "", flags)

	root.AddCommand(newListCmd(v), newShowCmd(v), newServeCmd(v))
	return root
}

// bindFlags binds every flag in flags to v under prefix.name.
func bindFlags(v *viper.Viper, prefix string, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := f.Name
		if prefix != "" {
			key = prefix + "." + f.Name
		}
		_ = v.BindPFlag(key, f)
	})
}

func initConfig(v *viper.Viper, cfgFile string) error {
	explicit := cfgFile
	if explicit == "" {
		explicit = os.Getenv(configFileEnv)
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(defaultConfigName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setupLogging(v *viper.Viper, out io.Writer) error {
	level, err := logging.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return err
	}
	logging.Setup(logging.Config{
		Level:  level,
		Pretty: v.GetBool("log-pretty"),
		Output: out,
	})
	return nil
}

// newLoader wires a client (with an optional Redis cache) and a loader from
// configuration. The returned cleanup releases both.
func newLoader(ctx context.Context, v *viper.Viper) (*loader.Loader, func(), error) {
	cfg := client.DefaultConfig(v.GetString("user-agent"))
	cfg.BaseURL = v.GetString("base-url")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.RequestsPerSecond = v.GetFloat64("rps")
	cfg.Burst = v.GetInt("burst")

	var rdb *redis.Client
	if addr := v.GetString("redis-addr"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
		}
		cfg.Redis = rdb
	}

	c, err := client.New(cfg)
	if err != nil {
		if rdb != nil {
			rdb.Close()
		}
		return nil, nil, fmt.Errorf("create client: %w", err)
	}

	l := loader.New(c,
		loader.WithMaxConcurrency(v.GetInt("concurrency")),
		loader.WithLogger(logging.NewLogger("loader")),
	)

	cleanup := func() {
		c.Close()
		if rdb != nil {
			rdb.Close()
		}
	}
	return l, cleanup, nil
}
