package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	dupefind "github.com/mattkeenan/dupefind/pkg"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
	exitInterrupted = 130
)

func main() {
	shutdown := setupSignalHandler(os.Stderr)
	os.Exit(run(os.Args, os.Stdout, os.Stderr, shutdown))
}

// run executes the command line and maps the outcome to an exit status
func run(args []string, stdout, stderr io.Writer, shutdown <-chan struct{}) int {
	app := newApp(stdout, stderr, shutdown)
	err := app.Run(args)
	dupefind.SetLogOutput(nil)
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "dupefind: %v\n", err)
	switch {
	case errors.Is(err, dupefind.ErrInterrupted):
		return exitInterrupted
	case dupefind.IsConfigError(err):
		return exitConfigError
	default:
		return exitFailure
	}
}

// flagTargets maps command line flags onto config keys; set flags win over
// the config file and overrides
var flagTargets = []struct {
	flag, section, key string
}{
	{"minsize", "filter", "minsize"},
	{"maxsize", "filter", "maxsize"},
	{"hash", "filehash", "default"},
	{"window", "filehash", "window"},
	{"format", "output", "format"},
	{"debug", "verbose", "debug"},
}

func newApp(stdout, stderr io.Writer, shutdown <-chan struct{}) *cli.App {
	return &cli.App{
		Name:      "dupefind",
		Usage:     "find duplicate files by size, head and tail fingerprints",
		ArgsUsage: "[DIR]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "minsize",
				Usage:       "only consider files larger than `SIZE` (e.g. 4096, 8K, 1M)",
				DefaultText: strconv.FormatInt(dupefind.DefaultMinSize, 10),
				EnvVars:     []string{"DUPEFIND_MINSIZE"},
			},
			&cli.StringFlag{
				Name:        "maxsize",
				Usage:       "only consider files smaller than `SIZE`",
				DefaultText: strconv.FormatInt(dupefind.DefaultMaxSize, 10),
				EnvVars:     []string{"DUPEFIND_MAXSIZE"},
			},
			&cli.StringFlag{
				Name:        "hash",
				Usage:       "fingerprint `ALGORITHM` (blake2b, sha256, sha512, sha1)",
				DefaultText: dupefind.DefaultHashAlgorithm,
				EnvVars:     []string{"DUPEFIND_HASH"},
			},
			&cli.StringFlag{
				Name:        "window",
				Usage:       "bytes sampled from each end of a file",
				DefaultText: strconv.FormatInt(dupefind.DefaultWindowSize, 10),
				EnvVars:     []string{"DUPEFIND_WINDOW"},
			},
			&cli.BoolFlag{
				Name:    "verify",
				Usage:   "confirm every group with a digest of the whole file",
				EnvVars: []string{"DUPEFIND_VERIFY"},
			},
			&cli.IntFlag{
				Name:        "workers",
				Usage:       "fingerprint `N` files concurrently",
				DefaultText: "1",
				EnvVars:     []string{"DUPEFIND_WORKERS"},
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output `FORMAT` (human, json, yaml, fdupes)",
				DefaultText: dupefind.FormatHuman,
				EnvVars:     []string{"DUPEFIND_FORMAT"},
			},
			&cli.StringSliceFlag{
				Name:    "ignore",
				Usage:   "skip paths matching `REGEX` (relative to DIR, repeatable)",
				EnvVars: []string{"DUPEFIND_IGNORE"},
			},
			&cli.StringFlag{
				Name:    "ignore-file",
				Usage:   "read ignore patterns from `PATH`, one per line",
				EnvVars: []string{"DUPEFIND_IGNORE_FILE"},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "load settings from the ini file at `PATH`",
				EnvVars: []string{"DUPEFIND_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:    "override",
				Usage:   "override a setting as `key:value` (repeatable)",
				EnvVars: []string{"DUPEFIND_OVERRIDE"},
			},
			&cli.IntFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbosity `LEVEL` (0-3); 1 and above prints progress",
				EnvVars: []string{"DUPEFIND_VERBOSE"},
			},
			&cli.StringFlag{
				Name:    "debug",
				Usage:   "comma separated debug `FLAGS` (walk, stage)",
				EnvVars: []string{"DUPEFIND_DEBUG"},
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "disable coloured progress output",
				EnvVars: []string{"DUPEFIND_NO_COLOR"},
			},
			&cli.BoolFlag{
				Name:  "dump-config",
				Usage: "print the effective configuration and exit",
			},
		},
		Action: func(c *cli.Context) error {
			return find(c, stdout, stderr, shutdown)
		},
	}
}

// loadConfig applies, in increasing precedence, defaults, the config file,
// overrides and explicitly set flags
func loadConfig(c *cli.Context) (*dupefind.Config, error) {
	cfg, err := dupefind.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(c.StringSlice("override")); err != nil {
		return nil, err
	}

	for _, t := range flagTargets {
		if value := c.String(t.flag); c.IsSet(t.flag) || value != "" {
			cfg.Set(t.section, t.key, value)
		}
	}
	if c.IsSet("verify") {
		cfg.Set("filehash", "verify", strconv.FormatBool(c.Bool("verify")))
	}
	if c.IsSet("workers") {
		cfg.Set("performance", "hash_workers", strconv.Itoa(c.Int("workers")))
	}
	if c.IsSet("verbose") {
		cfg.Set("verbose", "level", strconv.Itoa(c.Int("verbose")))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func find(c *cli.Context, stdout, stderr io.Writer, shutdown <-chan struct{}) error {
	if c.NArg() > 1 {
		return &dupefind.ConfigError{Field: "root", Reason: fmt.Sprintf("expected one directory, got %d", c.NArg())}
	}
	root := "."
	if c.NArg() == 1 {
		root = c.Args().First()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("dump-config") {
		_, err := cfg.WriteTo(stdout)
		return err
	}

	all := cfg.GetAllConfig()
	dupefind.SetLogOutput(stderr)
	dupefind.SetVerboseLevel(all.Verbose.Level)
	dupefind.SetDebugFlags(all.Verbose.Debug)
	if c.Bool("no-color") {
		color.NoColor = true
	}

	opts, err := dupefind.OptionsFromConfig(cfg, root)
	if err != nil {
		return err
	}

	ignore, err := dupefind.NewIgnoreManager(c.StringSlice("ignore")...)
	if err != nil {
		return &dupefind.ConfigError{Field: "ignore", Reason: err.Error()}
	}
	if path := c.String("ignore-file"); path != "" {
		if err := ignore.LoadIgnoreFile(path); err != nil {
			return &dupefind.ConfigError{Field: "ignore-file", Reason: err.Error()}
		}
	}
	opts.Ignore = ignore
	opts.Notifier = newProgressNotifier(stderr, all.Verbose.Level >= 1)

	report, err := dupefind.FindDuplicates(opts, shutdown)
	if err != nil {
		return err
	}
	return render(stdout, all.Output.Format, report, opts.Verify)
}
