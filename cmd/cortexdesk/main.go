package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fentz26/cortexdesk/internal/api"
	"github.com/fentz26/cortexdesk/internal/audit"
	"github.com/fentz26/cortexdesk/internal/auth"
	"github.com/fentz26/cortexdesk/internal/config"
	"github.com/fentz26/cortexdesk/internal/confirmations"
	"github.com/fentz26/cortexdesk/internal/health"
	"github.com/fentz26/cortexdesk/internal/ingest"
	"github.com/fentz26/cortexdesk/internal/store"
	"github.com/fentz26/cortexdesk/internal/tasks"
	"github.com/fentz26/cortexdesk/internal/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cortexdesk",
	Short: "CortexDesk - desktop client for the CortexDesk knowledge backend",
	Long: `CortexDesk ingests your documents into the knowledge backend, answers questions
about them, and lets you review the tasks and confirmations the backend detects.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			tui.DisableColor()
		}
	},
}

var (
	configPath string
	apiURL     string
	authURL    string
	dialect    string
	noColor    bool
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.cortexdesk/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Knowledge service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&authURL, "auth", "", "Auth and confirmations service URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "", "Backend dialect: modern or legacy (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log client activity to stderr")

	rootCmd.AddCommand(ingestCmd, textCmd, searchCmd, askCmd)
	rootCmd.AddCommand(tasksCmd, confirmationsCmd, meetingCmd)
	rootCmd.AddCommand(healthCmd, loginCmd, signupCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(historyCmd, tuiCmd, mockBackendCmd)
}

// env is the wiring shared by every command that talks to the backend.
type env struct {
	cfg     *config.Config
	caps    config.Capabilities
	client  *api.Client
	session *auth.Manager
	journal *audit.Journal
	store   *store.Store
	logger  *log.Logger
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromHome()
	}
	if err != nil {
		return nil, err
	}

	if dialect != "" {
		cfg.Dialect = config.Dialect(dialect)
	}
	if apiURL != "" {
		cfg.BaseURL = apiURL
	}
	if authURL != "" {
		cfg.AuthURL = authURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup resolves configuration and opens the session and journal.
// Callers must Close the result.
func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.New(os.Stderr, "cortexdesk: ", log.LstdFlags)
	}

	caps := cfg.Capabilities()
	client := api.New(caps, cfg.OperationTimeout).WithLogger(logger)

	dir, err := auth.DefaultDir()
	if err != nil {
		return nil, err
	}
	session, err := auth.NewManager(dir, client)
	if err != nil {
		return nil, err
	}
	session.WithLogger(logger)

	e := &env{cfg: cfg, caps: caps, client: client, session: session, logger: logger}

	if cfg.JournalPath != "" {
		s, err := store.New(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		e.store = s
		e.journal = audit.NewJournal(s)
	}
	return e, nil
}

// Close releases the journal database.
func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Printf("Journal close error: %v", err)
		}
	}
}

func (e *env) credential() string {
	return e.session.Token()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (e *env) taskStore() *tasks.Store {
	s := tasks.New(e.client, e.credential()).WithLogger(e.logger)
	if e.journal != nil {
		s.WithRecorder(e.journal)
	}
	return s
}

func (e *env) coordinator() *ingest.Coordinator {
	c := ingest.New(e.client, e.caps.BatchIngest, e.cfg.MaxFileSize()).WithLogger(e.logger)
	if e.journal != nil {
		c.WithRecorder(e.journal)
	}
	return c
}

func (e *env) poller() *confirmations.Poller {
	p := confirmations.New(e.client, e.credential(), e.cfg.PollInterval).WithLogger(e.logger)
	if e.journal != nil {
		p.WithRecorder(e.journal)
	}
	return p
}

func (e *env) healthMonitor() *health.Monitor {
	checker := health.NewChecker(e.client, e.caps, e.cfg.HealthTimeout)
	return health.NewMonitor(checker, e.cfg.HealthInterval).WithLogger(e.logger)
}
