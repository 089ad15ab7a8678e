package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/stefanpenner/tempo/pkg/api"
	"github.com/stefanpenner/tempo/pkg/board"
	"github.com/stefanpenner/tempo/pkg/config"
	"github.com/stefanpenner/tempo/pkg/logging"
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
	"github.com/stefanpenner/tempo/pkg/tui"
)

var (
	flagDir     string
	flagBaseURL string
	flagConfig  string
	jsonOutput  bool

	rootCmd *cobra.Command
	current *app
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "tempo",
		Short: "Goal execution board for annual plans",
		Long: `tempo turns the goals of your annual plans into a kanban board.

Queue goals, move their tasks through todo, doing and done, and tempo keeps
goal and plan status in sync with the planning backend. Run without a
command for the interactive board.`,
		Args:          cobra.NoArgs,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "data directory (default $TEMPO_DIR or the OS data dir)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "planning backend URL")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON")
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func execute() error {
	rootCmd.AddCommand(loginCmd, logoutCmd, healthCmd)
	rootCmd.AddCommand(plansCmd, planCmd)
	rootCmd.AddCommand(queueCmd, tasksCmd, moveCmd, boardCmd, syncCmd)
	rootCmd.AddCommand(ideasCmd, ideaCmd)
	rootCmd.AddCommand(typesCmd, typeCmd, eventsCmd, eventCmd)
	rootCmd.AddCommand(configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer closeApp()

	return rootCmd.ExecuteContext(ctx)
}

// app is everything a command needs, opened once per process.
type app struct {
	cfg     *config.Config
	dataDir string
	logger  *slog.Logger
	store   *store.Store
	session *store.Session
	client  *api.Client
	board   *board.Board
	closers []io.Closer
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDir != "" {
		cfg.DataDir = flagDir
	}
	if flagBaseURL != "" {
		cfg.BaseURL = strings.TrimSpace(flagBaseURL)
	}
	return cfg, nil
}

// openApp builds the board and its collaborators.
func openApp() (*app, error) {
	if current != nil {
		return current, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dataDir := cfg.ResolvedDataDir()

	logger, logFile, err := logging.Open(dataDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	st, err := store.NewStore(dataDir)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	session := store.NewSession(st, logger)
	client := api.NewClient(cfg.BaseURL, session,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
	)
	b := board.New(plan.NewStore(client), st, client, logger)

	current = &app{
		cfg:     cfg,
		dataDir: dataDir,
		logger:  logger,
		store:   st,
		session: session,
		client:  client,
		board:   b,
		closers: []io.Closer{st, logFile},
	}
	logger.Debug("opened", "state", st.Path(), "base_url", cfg.BaseURL)
	return current, nil
}

func closeApp() {
	if current == nil {
		return
	}
	for _, c := range current.closers {
		c.Close()
	}
	current = nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}

	m := tui.NewModel(cmd.Context(), a.board, a.client, tui.Options{
		HealthInterval: a.cfg.HealthInterval,
		Logger:         a.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	cleanup, err := tui.StartWatcher(a.dataDir, p, a.logger)
	if err != nil {
		a.logger.Warn("state watcher failed", "error", err)
	} else {
		defer cleanup()
	}

	_, err = p.Run()
	return err
}

// loadPlans fetches plans and renders the board once so derived state and
// pruning are current before a command reads it.
func loadPlans(ctx context.Context, a *app) (board.View, error) {
	if err := a.board.Load(ctx, false); err != nil {
		return board.View{}, err
	}
	return a.board.Render(), nil
}

// pushDirty pushes plans a command marked unsynced. A failed push keeps them
// marked for `tempo sync`, so it only warns.
func pushDirty(ctx context.Context, a *app, v board.View) {
	if len(v.Dirty) == 0 && len(a.board.Sync.Unsynced()) == 0 {
		return
	}
	if _, err := a.board.Reconcile(ctx); err != nil {
		a.logger.Warn("push failed", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: plan status kept locally, run `tempo sync` to retry: %v\n", err)
	}
}

// confirm asks a yes/no question on stdin. Anything but y/yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// JSON helpers

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
