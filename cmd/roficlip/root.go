package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/seamus-45/roficlip/internal/clipboard"
	"github.com/seamus-45/roficlip/internal/config"
	"github.com/seamus-45/roficlip/internal/editor"
	"github.com/seamus-45/roficlip/internal/launcher"
	"github.com/seamus-45/roficlip/internal/logging"
	"github.com/seamus-45/roficlip/internal/notify"
	"github.com/seamus-45/roficlip/internal/selection"
	"github.com/seamus-45/roficlip/internal/service"
	"github.com/seamus-45/roficlip/internal/storage"
	"github.com/seamus-45/roficlip/internal/storage/sqlite"
	"github.com/seamus-45/roficlip/pkg/types"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

type flags struct {
	daemon  bool
	show    bool
	add     bool
	remove  bool
	edit    bool
	pick    bool
	search  string
	version bool

	persistent bool
	actions    bool
	numbered   bool
	limit      int

	configFile string
	verbose    bool
	quiet      bool
}

// app holds everything one invocation needs. The constructor fields are
// replaced in tests.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  flags

	newClipboard func() (clipboard.Backend, error)
	newNotifier  func(enabled bool) notify.Notifier
	newChooser   func(title string) service.Chooser
	newArchive   func(path string) (storage.Archive, error)
	defaultPaths func() (config.Paths, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:       stdout,
		stderr:       stderr,
		newClipboard: clipboard.New,
		newNotifier: func(enabled bool) notify.Notifier {
			return notify.New(enabled, os.Stderr)
		},
		newChooser: func(title string) service.Chooser {
			return launcher.New(title)
		},
		newArchive: func(path string) (storage.Archive, error) {
			return sqlite.New(storage.Config{DBPath: path})
		},
		defaultPaths: config.DefaultPaths,
	}
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roficlip [flags] [item]",
		Short: "Clipboard history manager for rofi and dmenu",
		Long: `roficlip keeps a history of clipboard text and a separate store of
persistent snippets. A daemon records the clipboard; menu invocations
print entries for a launcher and copy the chosen one back.

As a rofi script mode:
  rofi -modi "clipboard:roficlip --show,persistent:roficlip --show --persistent" -show clipboard`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&a.flags.daemon, "daemon", false, "run the clipboard daemon")
	f.BoolVar(&a.flags.show, "show", false, "print a menu, or copy the selected item")
	f.BoolVar(&a.flags.add, "add", false, "add the current clipboard to persistent")
	f.BoolVar(&a.flags.remove, "remove", false, "remove the current clipboard from persistent")
	f.BoolVar(&a.flags.edit, "edit", false, "edit persistent entries in $EDITOR")
	f.BoolVar(&a.flags.pick, "pick", false, "choose an entry in a terminal picker")
	f.StringVar(&a.flags.search, "search", "", "search the archive")
	f.BoolVar(&a.flags.version, "version", false, "print version and exit")

	f.BoolVar(&a.flags.persistent, "persistent", false, "use the persistent store (with --show, --pick)")
	f.BoolVar(&a.flags.actions, "actions", false, "list or run actions (with --show)")
	f.BoolVar(&a.flags.numbered, "numbered", false, "prefix menu lines with their index, for dmenu")
	f.IntVar(&a.flags.limit, "limit", storage.DefaultSearchLimit, "maximum search results")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/roficlip/settings)")
	pf.BoolVar(&a.flags.verbose, "verbose", false, "enable debug logging")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "suppress notifications")

	return cmd
}

// mode returns the single command flag that was given
func (a *app) mode() (string, error) {
	var set []string
	for name, on := range map[string]bool{
		"daemon":  a.flags.daemon,
		"show":    a.flags.show,
		"add":     a.flags.add,
		"remove":  a.flags.remove,
		"edit":    a.flags.edit,
		"pick":    a.flags.pick,
		"search":  a.flags.search != "",
		"version": a.flags.version,
	} {
		if on {
			set = append(set, "--"+name)
		}
	}
	switch len(set) {
	case 0:
		return "", errors.New("one of --daemon, --show, --add, --remove, --edit, --pick, --search or --version is required")
	case 1:
		return strings.TrimPrefix(set[0], "--"), nil
	default:
		return "", fmt.Errorf("only one command flag may be given, got %d", len(set))
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	mode, err := a.mode()
	if err != nil {
		return err
	}
	if mode == "version" {
		fmt.Fprintln(a.stdout, "roficlip", version)
		return nil
	}
	if a.flags.persistent && a.flags.actions {
		return errors.New("--persistent and --actions are mutually exclusive")
	}

	env, err := a.setup()
	if err != nil {
		return err
	}

	var sel selection.Selection
	if mode == "show" {
		var arg string
		if len(args) > 0 {
			arg = args[0]
		}
		if sel, err = selection.FromEnv(arg); err != nil {
			return err
		}
	}
	// Menus, search, pick and edit only touch the backing files
	if needsClipboard(mode, a.flags.actions, sel) {
		if env.clip, err = a.newClipboard(); err != nil {
			return err
		}
	}

	if mode == "daemon" {
		return a.runDaemon(ctx, env)
	}

	cmds := service.NewCommands(service.CommandOptions{
		Config:    env.cfg,
		Paths:     env.paths,
		Clipboard: env.clip,
		Notifier:  env.notifier,
		Editor:    editor.New(editor.Resolve(env.cfg.Settings.Editor)),
		Out:       a.stdout,
		Logger:    env.log,
	})
	store := types.StoreRing
	if a.flags.persistent {
		store = types.StorePersistent
	}

	switch mode {
	case "show":
		if a.flags.actions {
			return cmds.ShowActions(ctx, sel)
		}
		return cmds.Show(ctx, store, a.flags.numbered, sel)
	case "add":
		return cmds.AddPersistent(ctx)
	case "remove":
		return cmds.RemovePersistent(ctx)
	case "edit":
		return cmds.EditPersistent(ctx)
	case "pick":
		title := "Clipboard History"
		if store == types.StorePersistent {
			title = "Persistent"
		}
		return cmds.Pick(ctx, store, a.newChooser(title))
	case "search":
		archive, err := a.newArchive(env.paths.ArchiveDB)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()
		return cmds.Search(ctx, archive, a.flags.search, a.flags.limit)
	}
	return fmt.Errorf("unhandled command --%s", mode)
}

// needsClipboard reports whether a command reads or writes the clipboard
func needsClipboard(mode string, actions bool, sel selection.Selection) bool {
	switch mode {
	case "daemon", "add", "remove":
		return true
	case "show":
		return actions && !sel.Empty()
	}
	return false
}

// environment is the resolved configuration shared by every command
type environment struct {
	cfg      *config.Config
	paths    config.Paths
	log      *slog.Logger
	clip     clipboard.Backend // nil unless the command needs it
	notifier notify.Notifier
}

func (a *app) setup() (*environment, error) {
	paths, err := a.defaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if a.flags.configFile != "" {
		paths.ConfigFile = a.flags.configFile
	}

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	log := logging.New(a.stderr, cfg.Settings.LogLevel, a.flags.verbose)

	return &environment{
		cfg:      cfg,
		paths:    paths,
		log:      log,
		notifier: a.newNotifier(cfg.Settings.Notify && !a.flags.quiet),
	}, nil
}
