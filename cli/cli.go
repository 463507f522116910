package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/meigma/warexec"
	"github.com/meigma/warexec/loader"
)

// Environment variables bound to the global flags.
const (
	EnvPrefix   = "WAREXEC"
	EnvWar      = EnvPrefix + "_WAR"
	EnvLogLevel = EnvPrefix + "_LOG_LEVEL"
)

const (
	flagWar      = "war"
	flagLogLevel = "log-level"

	legacyWarFlag = "-war"
	inspectFlag   = "--inspect"
	inspectCmd    = "inspect"
)

// Option configures the command tree.
type Option func(*config)

type config struct {
	hostPrograms  *loader.Registry
	hostResources fs.FS
	definer       loader.Definer
	runnerOpts    []warexec.Option
	stderr        io.Writer
}

// WithHost sets the programs and resources visible before the archive.
func WithHost(programs *loader.Registry, resources fs.FS) Option {
	return func(c *config) {
		c.hostPrograms = programs
		c.hostResources = resources
	}
}

// WithDefiner sets how code units found in the archive become programs.
func WithDefiner(d loader.Definer) Option {
	return func(c *config) {
		c.definer = d
	}
}

// WithRunnerOptions appends options for the underlying warexec.Runner.
func WithRunnerOptions(opts ...warexec.Option) Option {
	return func(c *config) {
		c.runnerOpts = append(c.runnerOpts, opts...)
	}
}

// WithStderr sets where log output and errors are written.
func WithStderr(w io.Writer) Option {
	return func(c *config) {
		c.stderr = w
	}
}

// app holds the state shared by the commands of one tree.
type app struct {
	cfg config
	v   *viper.Viper
}

// New returns the root command.
func New(opts ...Option) *cobra.Command {
	a := &app{
		cfg: config{stderr: os.Stderr},
		v:   viper.New(),
	}
	for _, opt := range opts {
		opt(&a.cfg)
	}

	root := &cobra.Command{
		Use:   "warexec [--war PATH] [--log-level LEVEL] [--] [ARGS...]",
		Short: "Run the entry point of a web-application archive",
		Long: `warexec runs the program named by the War-Main-Class manifest attribute of a
web-application archive. Code is resolved from the host first, then from
WEB-INF/classes/ and WEB-INF/lib/*.jar inside the archive, without extracting it.

Without --war the archive is the running executable. warexec reads its own
flags only before the first program argument; everything from there on, or
after "--", is passed to the program verbatim. A leading --inspect reports on
the archive instead of running it.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runArchive,
	}
	root.SetErr(a.cfg.stderr)

	a.addGlobalFlags(root.PersistentFlags())
	root.Flags().SetInterspersed(false)

	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlag(flagWar, root.PersistentFlags().Lookup(flagWar))           //nolint:errcheck // flag is defined above
	_ = a.v.BindPFlag(flagLogLevel, root.PersistentFlags().Lookup(flagLogLevel)) //nolint:errcheck // flag is defined above

	root.AddCommand(a.newInspectCmd())
	return root
}

func (a *app) addGlobalFlags(flags *pflag.FlagSet) {
	flags.String(flagWar, "", "archive to run (default: the running executable, env "+EnvWar+")")
	flags.String(flagLogLevel, "warn", "log level: debug, info, warn or error (env "+EnvLogLevel+")")
}

// logger builds the slog logger for the configured level.
func (a *app) logger() (*slog.Logger, error) {
	level, err := log.ParseLevel(a.v.GetString(flagLogLevel))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flagLogLevel, err)
	}
	handler := log.NewWithOptions(a.cfg.stderr, log.Options{
		Prefix: "warexec",
		Level:  level,
	})
	return slog.New(handler), nil
}

func (a *app) runner() (*warexec.Runner, error) {
	logger, err := a.logger()
	if err != nil {
		return nil, err
	}
	opts := []warexec.Option{
		warexec.WithLogger(logger),
		warexec.WithHost(a.cfg.hostPrograms, a.cfg.hostResources),
	}
	if a.cfg.definer != nil {
		opts = append(opts, warexec.WithDefiner(a.cfg.definer))
	}
	return warexec.NewRunner(append(opts, a.cfg.runnerOpts...)...)
}

func (a *app) runArchive(cmd *cobra.Command, args []string) error {
	r, err := a.runner()
	if err != nil {
		return err
	}
	return r.Run(cmd.Context(), a.v.GetString(flagWar), args)
}

// NormalizeArgs separates warexec's own leading flags from the program's
// arguments.
//
// Leading flags are --war and --log-level (with a separate or "=" value), the
// legacy -war PATH, and an optional "--" that ends them. The first other
// argument and everything after it belong to the program; the result carries
// a "--" in front of them so cobra passes them through untouched.
//
// A leading --inspect selects the inspect command. The flags consumed so far
// and the rest of args are then returned for cobra to parse.
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	i := 0
scan:
	for i < len(args) {
		arg := args[i]
		switch {
		case arg == "--":
			i++
			break scan
		case arg == inspectFlag:
			return append(append([]string{inspectCmd}, out...), args[i+1:]...)
		case arg == legacyWarFlag || arg == "--"+flagWar || arg == "--"+flagLogLevel:
			if i+1 == len(args) {
				// Let cobra report the missing value.
				return append(out, arg)
			}
			out = append(out, "--"+strings.TrimLeft(arg, "-"), args[i+1])
			i += 2
		case strings.HasPrefix(arg, "--"+flagWar+"=") || strings.HasPrefix(arg, "--"+flagLogLevel+"="):
			out = append(out, arg)
			i++
		default:
			break scan
		}
	}
	out = append(out, "--")
	return append(out, args[i:]...)
}

// Execute runs the command tree over args (without the program name).
func Execute(ctx context.Context, args []string, opts ...Option) error {
	root := New(opts...)
	root.SetArgs(NormalizeArgs(args))
	return root.ExecuteContext(ctx)
}

// Main runs Execute, reports any error on stderr and returns the process
// exit code.
func Main(ctx context.Context, args []string, opts ...Option) int {
	cfg := config{stderr: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}
	err := Execute(ctx, args, opts...)
	if err == nil {
		return 0
	}
	fmt.Fprintf(cfg.stderr, "Error: %v\n", err)
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}
