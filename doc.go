// Package warexec runs application code packaged inside a web-application
// archive (WAR) without extracting it.
//
// The archive's META-INF/MANIFEST.MF names the entry point in its
// War-Main-Class attribute. Code units are looked up first in the host
// environment and then in the archive: WEB-INF/classes/ before each
// WEB-INF/lib/*.jar, in archive order. Nested jars are read in place from the
// outer archive; nothing is written to disk.
//
// # Quick Start
//
// Register the programs the binary can define, then run an archive:
//
//	programs := loader.NewRegistry()
//	_ = programs.Register("com.example.Main", newMain)
//
//	err := warexec.Run(ctx, "app.war", os.Args[1:],
//	    warexec.WithDefiner(programs),
//	)
//
// An empty path selects the running executable, so a binary with an archive
// appended to it runs its own payload.
//
// # Lower-level packages
//
// [archive] indexes the outer archive, [vfs] resolves war:// locations to
// byte streams, and [loader] implements the two-tier resolution order and
// entry-point execution.
package warexec
