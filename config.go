/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind          string
	memoryStore   bool
	port          int
	prefix        string
	profile       bool
	redisAddr     string
	redisDB       int
	redisPassword string
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
	wordsFile     string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if !c.memoryStore && c.redisAddr == "" {
		return errors.New("either --redis-addr or --memory-store is required")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("OUTSIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "outsider",
		Short:         "A realtime server for the \"find the Outsider\" social-deduction party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: OUTSIDER_BIND)")
	fs.BoolVar(&cfg.memoryStore, "memory-store", false, "keep rooms in process memory instead of Redis (env: OUTSIDER_MEMORY_STORE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: OUTSIDER_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: OUTSIDER_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: OUTSIDER_PROFILE)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "localhost:6379", "address of the Redis server backing rooms and broadcasts (env: OUTSIDER_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "Redis database number (env: OUTSIDER_REDIS_DB)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "Redis password, if any (env: OUTSIDER_REDIS_PASSWORD)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: OUTSIDER_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: OUTSIDER_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: OUTSIDER_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: OUTSIDER_VERSION)")
	fs.StringVar(&cfg.wordsFile, "words-file", "", "path to a JSON word-pair list used to seed the catalog (env: OUTSIDER_WORDS_FILE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("outsider v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
