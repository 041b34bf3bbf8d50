package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruppin/TheMatrix/internal/config"
	"github.com/ruppin/TheMatrix/internal/gitlab"
	"github.com/ruppin/TheMatrix/internal/labels"
	"github.com/ruppin/TheMatrix/internal/store"
)

var (
	dbPath  string
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "neo",
	Short: "GitLab epic and issue hierarchy extraction to SQLite",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a "+config.DefaultFileName+" config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

// loadConfig resolves configuration with flag > env > file precedence.
func loadConfig() (config.Config, error) {
	cfg, err := config.Discover(cfgPath)
	if err != nil {
		return cfg, err
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}
	return cfg, nil
}

// openStore opens the database named by flags/config.
func openStore(cfg config.Config) (*store.Store, error) {
	return store.Open(cfg.DB)
}

// newClient builds the GitLab client. The token comes from --token or the
// GITLAB_TOKEN environment variable.
func newClient(cfg config.Config, urlFlag, tokenFlag string) (*gitlab.Client, error) {
	token := tokenFlag
	if token == "" {
		token = os.Getenv("GITLAB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitLab token required: set GITLAB_TOKEN or use --token")
	}
	url := cfg.GitLab.URL
	if urlFlag != "" {
		url = urlFlag
	}
	return gitlab.NewClient(url, token, gitlab.Options{
		Timeout:        time.Duration(cfg.GitLab.TimeoutSeconds) * time.Second,
		RateLimitDelay: time.Duration(cfg.GitLab.RateLimitDelayMS) * time.Millisecond,
		MaxRetries:     cfg.GitLab.MaxRetries,
	}), nil
}

// newParser builds the label parser from config, nil patterns meaning the
// defaults.
func newParser(cfg config.Config) *labels.Parser {
	if len(cfg.LabelPatterns) == 0 {
		return labels.NewParser(nil)
	}
	return labels.NewParser(cfg.LabelPatterns)
}

// parseGroupIDs parses a comma-separated id list like "123,456".
func parseGroupIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid group id %q: use comma-separated integers", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no group ids given")
	}
	return ids, nil
}

// parseSnapshotDate parses --snapshot-date, empty meaning today.
func parseSnapshotDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snapshot date %q: use YYYY-MM-DD", s)
	}
	return t, nil
}
