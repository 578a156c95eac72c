package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/jimezsa/careermatch/internal/cmd"
	"github.com/jimezsa/careermatch/internal/config"
	"github.com/jimezsa/careermatch/internal/ui"
	"github.com/rs/zerolog"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", config.EnvFileName, err)
		os.Exit(1)
	}

	cli := cmd.NewCLI()
	versionString := buildVersion()

	parser, err := kong.New(cli,
		kong.Name("careermatch"),
		kong.Description("Job search and career agent toolkit."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": versionString},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fallbackUI := ui.New(os.Stdout, os.Stderr, ui.EnvColorMode(), false)
		fallbackUI.Errorf("%v", err)
		os.Exit(1)
	}
	applyEnvDefaults(cli)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	colorMode := ui.NormalizeColorMode(cli.Color)
	disableColor := cli.JSON || cli.Plain
	userInterface := ui.New(os.Stdout, os.Stderr, colorMode, disableColor)

	level := zerolog.InfoLevel
	if cli.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("app", "careermatch").Logger()

	runCtx := &cmd.Context{
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		UI:         userInterface,
		Config:     cfg,
		ConfigDir:  configDir,
		Logger:     logger,
		Verbose:    cli.Verbose,
		JSONOutput: cli.JSON,
		PlainText:  cli.Plain,
		Version:    versionString,
		ColorMode:  colorMode,
	}

	if err := kctx.Run(runCtx); err != nil {
		logger.Debug().Err(err).Str("command", kctx.Command()).Msg("command failed")
		userInterface.Errorf("%v", err)
		os.Exit(1)
	}
}

func buildVersion() string {
	switch {
	case commit == "" && date == "":
		return version
	case commit == "":
		return fmt.Sprintf("%s (%s)", version, date)
	case date == "":
		return fmt.Sprintf("%s (%s)", version, commit)
	default:
		return fmt.Sprintf("%s (%s, %s)", version, commit, date)
	}
}

// applyEnvDefaults runs after parsing so flags left at their defaults pick
// up the environment.
func applyEnvDefaults(cli *cmd.CLI) {
	if config.EnvBool("CAREERMATCH_JSON") {
		cli.JSON = true
	}
	if config.EnvBool("CAREERMATCH_VERBOSE") {
		cli.Verbose = true
	}
	if cli.Color == string(ui.ColorAuto) {
		cli.Color = string(ui.EnvColorMode())
	}
}
