/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/hitbox/internal/llm"
	"github.com/Seednode/hitbox/internal/songs"
)

const (
	narrationOff       = "off"
	narrationTemplates = "templates"
	narrationLLM       = "llm"
)

type Config struct {
	anthropicAPIKey string
	anthropicModel  string
	bind            string
	catalog         string
	catalogSize     int
	logFormat       string
	maxPlayers      int
	narration       string
	port            int
	prefix          string
	previewLookup   bool
	profile         bool
	providerTimeout time.Duration
	searchCountry   string
	searchURL       string
	sessionTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.logFormat != "json" && c.logFormat != "console" {
		return fmt.Errorf("invalid log format (must be json or console): %q", c.logFormat)
	}
	if c.maxPlayers < 1 || c.maxPlayers > 64 {
		return fmt.Errorf("invalid max players (must be between 1-64 inclusive): %d", c.maxPlayers)
	}
	if c.catalogSize < 1 {
		return fmt.Errorf("invalid catalog size (must be positive): %d", c.catalogSize)
	}
	if c.providerTimeout <= 0 {
		return fmt.Errorf("invalid provider timeout (must be positive): %s", c.providerTimeout)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}

	if c.previewLookup {
		if u, err := url.Parse(c.searchURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid search url (must be an absolute http or https url): %q", c.searchURL)
		}
	}

	switch c.narration {
	case narrationOff, narrationTemplates, narrationLLM:
	default:
		return fmt.Errorf("invalid narration mode (must be off, templates or llm): %q", c.narration)
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
	v.SetEnvPrefix("HITBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "hitbox",
		Short:         "A party game where players place songs on a timeline by release year.",
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

	fs.StringVar(&cfg.anthropicAPIKey, "anthropic-api-key", "", "api key for song suggestions and dj narration (env: HITBOX_ANTHROPIC_API_KEY)")
	fs.StringVar(&cfg.anthropicModel, "anthropic-model", llm.DefaultModel, "model used for song suggestions and dj narration (env: HITBOX_ANTHROPIC_MODEL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: HITBOX_BIND)")
	fs.StringVar(&cfg.catalog, "catalog", "", "path to a yaml song catalog, replacing the built-in one (env: HITBOX_CATALOG)")
	fs.IntVar(&cfg.catalogSize, "catalog-size", 20, "songs drawn from the catalog per game (env: HITBOX_CATALOG_SIZE)")
	fs.StringVar(&cfg.logFormat, "log-format", "console", "log output format, json or console (env: HITBOX_LOG_FORMAT)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 8, "maximum players per game (env: HITBOX_MAX_PLAYERS)")
	fs.StringVar(&cfg.narration, "narration", narrationTemplates, "dj narration mode, off, templates or llm (env: HITBOX_NARRATION)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: HITBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: HITBOX_PREFIX)")
	fs.BoolVar(&cfg.previewLookup, "preview-lookup", true, "look up preview clips and cover art for selected songs (env: HITBOX_PREVIEW_LOOKUP)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: HITBOX_PROFILE)")
	fs.DurationVar(&cfg.providerTimeout, "provider-timeout", 30*time.Second, "time allowed for song selection and narration requests (env: HITBOX_PROVIDER_TIMEOUT)")
	fs.StringVar(&cfg.searchCountry, "search-country", "US", "storefront country code used for preview lookups (env: HITBOX_SEARCH_COUNTRY)")
	fs.StringVar(&cfg.searchURL, "search-url", songs.DefaultSearchURL, "music search endpoint used for preview lookups (env: HITBOX_SEARCH_URL)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended, 0 to disable (env: HITBOX_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: HITBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: HITBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: HITBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: HITBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("hitbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
