// Package main provides the entry point for the readtext CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/readtext/internal/audio"
	"github.com/dgnsrekt/readtext/internal/cache"
	"github.com/dgnsrekt/readtext/internal/config"
	"github.com/dgnsrekt/readtext/internal/markup"
	"github.com/dgnsrekt/readtext/internal/pipeline"
	"github.com/dgnsrekt/readtext/internal/reader"
	"github.com/dgnsrekt/readtext/internal/tts"
	"github.com/dgnsrekt/readtext/internal/tts/engines"
	"github.com/dgnsrekt/readtext/internal/ui"
	"github.com/dgnsrekt/readtext/internal/watch"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	cfg               config.Config
	envCfg            config.Env

	lineSpec      string
	fromClipboard bool
	printOnly     bool
	watchFile     bool
	tui           bool
	noRules       bool
	preset        string
	debug         bool

	rootCmd = &cobra.Command{
		Use:   "readtext [SOURCE]",
		Short: "Read marked-up text aloud",
		Long: paragraph(
			fmt.Sprintf("\nRead LaTeX and other marked-up text %s. SOURCE is a file, or - for stdin.", keyword("aloud")),
		),
		SilenceErrors:    true,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: validateOptions,
		RunE:              execute,
	}
)

func validateOptions(cmd *cobra.Command, _ []string) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// The config file must stay editable when it does not validate.
	switch cmd.Name() {
	case "config", "man", "help", "completion":
		return nil
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err //nolint:wrapcheck
	}
	cfg = loaded

	if cmd.HasParent() {
		return nil
	}
	if watchFile && tui {
		return errors.New("cannot use both --watch and --tui")
	}
	if watchFile && (fromClipboard || printOnly) {
		return errors.New("--watch needs a file and cannot be combined with --clipboard or --print")
	}
	if preset != "" && noRules {
		return errors.New("cannot use both --preset and --no-rules")
	}
	if tui && !term.IsTerminal(int(os.Stderr.Fd())) { //nolint:gosec
		return errors.New("--tui needs a terminal")
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	lines, err := parseLineRange(lineSpec)
	if err != nil {
		return err
	}

	src, err := sourceFromArgs(args, fromClipboard)
	if err != nil {
		return err
	}

	parser, err := newParser(src)
	if err != nil {
		return err
	}
	prepare := func(src *source) string {
		return parser.Parse(lines.apply(src.text))
	}

	if printOnly {
		fmt.Fprintln(cmd.OutOrStdout(), prepare(src))
		return nil
	}
	if !watchFile && strings.TrimSpace(prepare(src)) == "" {
		return fmt.Errorf("nothing to read in %s", src.name)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	synth, closeSynth, err := newSynthesizer(ctx)
	if err != nil {
		return err
	}
	defer closeSynth()

	player, err := newPlayer()
	if err != nil {
		return err
	}

	switch {
	case watchFile:
		if src.path == "" {
			return errors.New("--watch needs a file")
		}
		rd := newReader(synth, player, nil)
		return watchAndRead(ctx, rd, src.path, prepare)
	case tui:
		return readWithTUI(ctx, synth, player, src.name, prepare(src))
	default:
		rd := newReader(synth, player, nil)
		return readOnce(ctx, rd, src.name, prepare(src))
	}
}

// newParser builds the markup parser. An explicit --preset wins, then the
// preset matching the file name, then the configured presets.
func newParser(src *source) (*markup.Parser, error) {
	reg, rc, err := loadRules()
	if err != nil {
		return nil, err
	}
	if noRules {
		rc.Enabled = false
	}

	var parser *markup.Parser
	switch {
	case preset != "":
		if _, err := lookupPreset(reg, preset); err != nil {
			return nil, err
		}
		rc.Presets = []string{preset}
		parser = markup.New(rc, reg)
	case src.path != "":
		if name, ok := reg.ResolveForFilename(src.path); ok {
			log.Debug("selected preset for file", "preset", name, "file", src.path)
			parser = markup.ForFile(src.path, rc, reg)
			break
		}
		parser = markup.New(rc, reg)
	default:
		parser = markup.New(rc, reg)
	}

	for _, err := range parser.Skipped() {
		log.Warn("skipping reading rule", "error", err)
	}
	return parser, nil
}

// newSynthesizer creates the configured engine, wrapped by the cache when
// enabled, and checks that it is reachable.
func newSynthesizer(ctx context.Context) (tts.Synthesizer, func(), error) {
	engine, err := engines.New(cfg.Engine, cfg.EngineConfig())
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	if res := engines.Check(ctx, engine); !res.Available {
		return nil, nil, res.Unavailable()
	}
	log.Debug("engine available", "engine", engine.Name())

	if !cfg.Cache.Enabled || cfg.Engine == engines.MockName {
		return engine, func() {}, nil
	}

	cc := cfg.CacheConfig(defaultCacheDir())
	manager, err := cache.NewManager(cc, log.Default())
	if err != nil {
		log.Warn("audio cache disabled", "error", err)
		return engine, func() {}, nil
	}
	closer := func() {
		if err := manager.Close(); err != nil {
			log.Warn("unable to close audio cache", "error", err)
		}
	}
	return cache.NewSynthesizer(engine, manager, cfg.Speed, cfg.Pitch, cfg.DefaultVoice()), closer, nil
}

// newPlayer creates the configured playback backend.
func newPlayer() (tts.Player, error) {
	logger := log.Default()
	switch cfg.Audio.Backend {
	case config.BackendOto:
		return audio.NewPlayer(logger), nil
	case config.BackendCommand:
		return audio.NewCommandPlayer(cfg.CommandConfig(), logger) //nolint:wrapcheck
	case config.BackendNull:
		return audio.NewNullPlayer(), nil
	default:
		fallback, err := audio.NewCommandPlayer(cfg.CommandConfig(), logger)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		return audio.NewFallbackPlayer(audio.NewPlayer(logger), fallback, logger), nil
	}
}

func newReader(synth tts.Synthesizer, player tts.Player, observer func(pipeline.Event)) *reader.Reader {
	opts := []reader.Option{
		reader.WithSplitThreshold(cfg.Pipeline.SplitThreshold),
		reader.WithBufferSize(cfg.Pipeline.BufferSize),
		reader.WithLogger(log.Default()),
	}
	if observer != nil {
		opts = append(opts, reader.WithObserver(observer))
	}
	return reader.New(synth, player, opts...)
}

// readOnce reads text and stops the read when ctx is canceled.
func readOnce(ctx context.Context, rd *reader.Reader, name, text string) error {
	id := uuid.NewString()
	log.Info("reading", "id", id, "source", name, "engine", cfg.Engine, "bytes", len(text))

	done := make(chan error, 1)
	go func() { done <- rd.Read(ctx, text, cfg.Options()) }()

	select {
	case err := <-done:
		log.Info("read finished", "id", id, "error", err)
		return err
	case <-ctx.Done():
		rd.Stop()
		<-done
		log.Info("read stopped", "id", id)
		return nil
	}
}

// readWithTUI reads text while showing the status view.
func readWithTUI(ctx context.Context, synth tts.Synthesizer, player tts.Player, name, text string) error {
	var p *tea.Program
	rd := newReader(synth, player, func(e pipeline.Event) {
		if p != nil {
			p.Send(ui.EventMsg(e))
		}
	})

	total := 0
	if strings.TrimSpace(text) != "" {
		total = len(rd.Chunks(text))
	}
	p = ui.NewProgram(ui.New(rd, name, total), !envCfg.NoTUIAltScreen)

	go func() {
		err := readOnce(ctx, rd, name, text)
		p.Send(ui.DoneMsg{Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		rd.Stop()
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	if m, ok := final.(ui.Model); ok {
		return m.Err()
	}
	return nil
}

// watchAndRead reads the file and starts over each time it is saved.
func watchAndRead(ctx context.Context, rd *reader.Reader, path string, prepare func(*source) string) error {
	w, err := watch.New(path, log.Default())
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer w.Close() //nolint:errcheck

	changes := make(chan struct{}, 1)
	go func() {
		_ = w.Run(ctx, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
	}()

	name := filepath.Base(path)
	for {
		src, err := sourceFromFile(path)
		if err != nil {
			return err
		}
		text := prepare(src)

		done := make(chan error, 1)
		go func() { done <- rd.Read(ctx, text, cfg.Options()) }()
		fmt.Fprintln(os.Stderr, dimStyle("reading "+name+", save the file to start over"))

		select {
		case <-ctx.Done():
			rd.Stop()
			<-done
			return nil
		case <-changes:
			rd.Stop()
			<-done
			continue
		case err := <-done:
			if err != nil {
				fmt.Fprintln(os.Stderr, errorStyle(err.Error()))
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}
	}
}

// printError prints err and, for an unavailable engine, its setup guidance.
func printError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle("Error: "+err.Error()))

	var ttsErr *tts.Error
	if errors.As(err, &ttsErr) {
		if guidance, ok := ttsErr.Context["guidance"].(string); ok && guidance != "" {
			fmt.Fprintln(os.Stderr, "\n"+guidance)
		}
	}
}

func main() {
	if err := config.LoadDotenv(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	e, err := config.LoadEnv()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	envCfg = e
	debug = envCfg.Debug

	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	tryLoadConfigFromDefaultPlaces()

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default readtext.yml in the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages")

	rootCmd.Flags().StringP("engine", "e", "", "speech engine: "+strings.Join(engines.Names(), ", "))
	rootCmd.Flags().Float64P("speed", "s", 0, "speaking speed (0.5 to 2.0)")
	rootCmd.Flags().Float64("pitch", 0, "pitch offset (-1.0 to 1.0)")
	rootCmd.Flags().StringP("voice", "v", "", "voice: a VOICEVOX speaker ID or an eSpeak voice")
	rootCmd.Flags().StringVarP(&lineSpec, "lines", "l", "", "read only lines A:B (1-based, inclusive)")
	rootCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "read the clipboard")
	rootCmd.Flags().StringVarP(&preset, "preset", "p", "", "reading rule preset to apply")
	rootCmd.Flags().BoolVar(&noRules, "no-rules", false, "read the text as is")
	rootCmd.Flags().BoolVar(&printOnly, "print", false, "print the normalized text instead of reading it")
	rootCmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "start over each time the file is saved")
	rootCmd.Flags().BoolVarP(&tui, "tui", "t", false, "show a status view while reading")

	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("speed", rootCmd.Flags().Lookup("speed"))
	_ = viper.BindPFlag("pitch", rootCmd.Flags().Lookup("pitch"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, presetsCmd, cacheCmd, checkCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readtext")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readtext")}, dirs...)
	}

	if envCfg.ConfigHome != "" {
		dirs = append([]string{envCfg.ConfigHome}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readtext")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readtext")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	defaultConfigFile = filepath.Join(dirs[0], "readtext.yml")
}
