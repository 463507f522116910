// Package loader resolves and runs code units bundled in a web-application
// archive.
//
// A [Loader] resolves names in two fixed tiers. The parent [Env] (the code
// already linked into the host process) is always asked first, so bundled
// code never shadows it. Only when the parent reports ErrNotFound are the
// archive roots searched, in order: the classes root first, then each
// dependency archive as listed in the outer archive. The first root that has
// the name wins.
//
// Go cannot load compiled code by name at run time, so a resolved code unit
// is turned into a runnable [Program] by a [Definer]. [Registry] is the
// usual Definer: a table of factories registered under class names.
//
//	reg := loader.NewRegistry()
//	reg.Register("com.example.Main", newMain)
//
//	idx, err := archive.Open("app.war")
//	if err != nil {
//	    return err
//	}
//	l, err := loader.Open(loader.NoEnv, idx, loader.WithDefiner(reg))
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//	return l.Execute(ctx, os.Args[1:])
package loader
