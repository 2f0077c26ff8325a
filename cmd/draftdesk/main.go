// Command draftdesk is the terminal client: write, autosave, publish and
// manage blog posts against the blogs API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/draftdesk/internal/blogapi"
	"github.com/debemdeboas/draftdesk/internal/bloglist"
	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/editor"
	"github.com/debemdeboas/draftdesk/internal/logger"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/notify"
	"github.com/debemdeboas/draftdesk/internal/render"
	"github.com/debemdeboas/draftdesk/internal/shell"
)

func main() {
	apiURL := flag.String("api", "", "Blogs API base URL (overrides client.base_url)")
	logLevel := flag.String("log-level", "warn", "Log level; DRAFTDESK_LOG_LEVEL takes precedence")
	watch := flag.Bool("watch", true, "Refresh the list when the server reports changes")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	if err := config.LoadConfig(config.Path()); err != nil {
		bootLogger := logger.New("info")
		bootLogger.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.AppConfig

	level := *logLevel
	if os.Getenv(config.EnvLogLevel) != "" {
		level = cfg.Logging.Level
	}
	log := logger.New(level)
	config.SetLogger(log)
	editor.SetLogger(log)
	bloglist.SetLogger(log)
	render.SetLogger(log)

	if *apiURL != "" {
		cfg.Client.BaseURL = *apiURL
	}

	a := newApp(log, cfg, os.Stdin, os.Stdout)
	defer a.close()

	if err := a.run(context.Background(), *watch); err != nil {
		log.Error().Err(err).Msg("Reading input failed")
	}
}

// app wires the editor, the blog list and the shell to one API client.
type app struct {
	log    zerolog.Logger
	api    *blogapi.Client
	editor *editor.Editor
	list   *bloglist.List
	shell  *shell.Shell
}

func newApp(log zerolog.Logger, cfg *config.Config, in io.Reader, out io.Writer) *app {
	a := &app{
		log: log,
		api: blogapi.New(cfg.Client.BaseURL, cfg.Client.RequestTimeout),
	}
	notifier := notify.NewTerminal(out)

	// The list is built after the editor, so the callback reads a.list
	// when it runs rather than when it is created.
	a.editor = editor.New(a.api, notifier, editor.Options{
		AutosaveInterval: cfg.Editor.AutosaveInterval,
		Debounce:         cfg.Editor.Debounce,
		OnSaved:          a.refresh,
	})
	a.list = bloglist.New(a.api, a.editor, notifier)
	a.shell = shell.New(a.editor, a.list, cfg.Preview.SyntaxStyle, in, out)

	a.log.Info().Str("api", cfg.Client.BaseURL).Msg("Client ready")
	return a
}

func (a *app) refresh() {
	if a.list != nil {
		a.list.Refresh()
	}
}

// watch refreshes the list on every change the server reports until ctx
// is done.
func (a *app) watch(ctx context.Context) {
	err := a.api.Watch(ctx, func(id model.PostID) {
		a.log.Debug().Str("post_id", string(id)).Msg("Server reported a change")
		a.refresh()
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("Change feed closed")
	}
}

// run serves the shell until the input ends or the user quits.
func (a *app) run(ctx context.Context, watch bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if watch {
		go a.watch(ctx)
	}
	return a.shell.Run(ctx)
}

func (a *app) close() {
	a.editor.Close()
}
