// Package cli builds the warexec command line.
//
// The root command runs an archive's entry point:
//
//	warexec [--war PATH] [--log-level LEVEL] [--] [ARGS...]
//	warexec --inspect [--war PATH] [--members] [--no-digest] [PATH]
//
// Without --war (or WAREXEC_WAR) the archive is the running executable. The
// legacy form "-war PATH" is accepted too. warexec's flags are read only up
// to the first program argument or "--"; everything after that, including
// arguments that look like flags, is passed to the program verbatim.
//
// A binary that bundles programs builds its own command:
//
//	programs := loader.NewRegistry()
//	_ = programs.Register("com.example.Main", newMain)
//	os.Exit(cli.Main(ctx, os.Args[1:], cli.WithDefiner(programs)))
package cli
