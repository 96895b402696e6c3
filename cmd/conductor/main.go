package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conductor/internal/api"
	"github.com/ternarybob/conductor/internal/cache"
	"github.com/ternarybob/conductor/internal/common"
	"github.com/ternarybob/conductor/internal/storage/badgercache"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

// filterPairs collects repeatable -filter key=value flags
type filterPairs map[string]string

func (f filterPairs) String() string {
	return fmt.Sprintf("%v", map[string]string(f))
}

func (f filterPairs) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("filter must be key=value, got %q", value)
	}
	f[key] = val
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths
	filters      = filterPairs{}
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	pageFlag     = flag.Int("page", 0, "Page number for list commands")
	pageSizeFlag = flag.Int("pagesize", 0, "Page size for list commands")
	sortFlag     = flag.String("sort", "", "Sort field for list commands")
	sortDirFlag  = flag.String("direction", "", "Sort direction (asc or desc)")
	scheduleFlag = flag.String("schedule", "@every 1m", "Poll schedule for watch (cron expression)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Var(filters, "filter", "List filter as key=value (can be specified multiple times)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: conductor [flags] <command> [args]

Commands:
  list <resource>                  List resources (products, testcases, testsuites,
                                   testcycles, testruns, users, companies, profiles)
  show <resource> <id>             Show one resource
  activate <resource> <id>         Activate a resource
  deactivate <resource> <id>       Deactivate a resource
  populate <version-id> <source>   Populate version environments from
                                   profile-<id> or productversion-<id>
  watch runs                       Poll test runs and report status changes
  cache sweep                      Drop expired cache entries

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	flag.Usage = usage
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Conductor version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("conductor.toml"); err == nil {
			configFiles = append(configFiles, "conductor.toml")
		}
	}

	var err error
	config, err = common.LoadConfig(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	client, sweeper, cleanup, err := buildClient(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build platform client")
		os.Exit(1)
	}
	defer cleanup()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	switch args[0] {
	case "list":
		err = runList(ctx, client, args[1:])
	case "show":
		err = runShow(ctx, client, args[1:])
	case "activate":
		err = runActivation(ctx, client, args[1:], true)
	case "deactivate":
		err = runActivation(ctx, client, args[1:], false)
	case "populate":
		err = runPopulate(ctx, client, args[1:])
	case "watch":
		err = runWatch(ctx, client, sweeper, args[1:])
	case "cache":
		err = runCache(sweeper, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error().Err(err).Str("command", args[0]).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sweeper abstracts the cache stores that support expiry sweeps.
type sweeper interface {
	Sweep() (int, error)
}

type memorySweeper struct {
	store *cache.MemoryStore
}

func (m memorySweeper) Sweep() (int, error) {
	return m.store.Sweep(), nil
}

// buildClient assembles the platform client from configuration.
func buildClient(cfg *common.Config, logger arbor.ILogger) (*api.Client, sweeper, func(), error) {
	timeout, err := cfg.Client.TimeoutDuration()
	if err != nil {
		return nil, nil, nil, err
	}
	ttl, err := cfg.Cache.TTLDuration()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.Client.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(cfg.Client.RateLimit))
	}
	if cfg.Client.UserAgent != "" {
		opts = append(opts, api.WithUserAgent(cfg.Client.UserAgent))
	}
	if cfg.Service.CompanyID != "" {
		opts = append(opts, api.WithCompany(cfg.Service.CompanyID))
	}
	if creds := credentialsFrom(cfg); creds != nil {
		opts = append(opts, api.WithCredentials(creds))
	}

	cleanup := func() {}
	var sw sweeper
	if cfg.Cache.Enabled {
		switch cfg.Cache.Store {
		case "badger":
			store, err := badgercache.Open(&cfg.Cache.Badger, logger)
			if err != nil {
				return nil, nil, nil, err
			}
			cleanup = func() { _ = store.Close() }
			sw = store
			opts = append(opts, api.WithCache(store, ttl))
		default:
			store := cache.NewMemoryStore()
			sw = memorySweeper{store}
			opts = append(opts, api.WithCache(store, ttl))
		}
	}

	return api.NewClient(cfg.Service.BaseURL, opts...), sw, cleanup, nil
}

func credentialsFrom(cfg *common.Config) *api.Credentials {
	if cfg.Auth.UserID == "" && cfg.Auth.Cookie == "" {
		return nil
	}
	return &api.Credentials{
		UserID:   cfg.Auth.UserID,
		Password: cfg.Auth.Password,
		Cookie:   cfg.Auth.Cookie,
	}
}
