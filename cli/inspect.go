package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meigma/warexec"
)

type inspectFlags struct {
	members  bool
	noDigest bool
}

func (a *app) newInspectCmd() *cobra.Command {
	var flags inspectFlags
	cmd := &cobra.Command{
		Use:   inspectCmd + " [PATH]",
		Short: "Show the entry point, roots and indexed entries of an archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString(flagWar)
			if len(args) == 1 {
				path = args[0]
			}
			return a.inspect(cmd.OutOrStdout(), path, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.members, "members", false, "list the names under every root")
	cmd.Flags().BoolVar(&flags.noDigest, "no-digest", false, "skip content digests")
	return cmd
}

func (a *app) inspect(out io.Writer, path string, flags inspectFlags) error {
	r, err := a.runner()
	if err != nil {
		return err
	}
	var opts []warexec.InspectOption
	if flags.members {
		opts = append(opts, warexec.InspectWithMembers())
	}
	if flags.noDigest {
		opts = append(opts, warexec.InspectWithoutDigests())
	}
	result, err := r.Inspect(path, opts...)
	if err != nil {
		return err
	}
	return writeReport(out, result)
}

func writeReport(out io.Writer, result *warexec.InspectResult) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Archive:\t%s\n", result.Name)
	fmt.Fprintf(w, "Main class:\t%s\n", result.MainClass)
	fmt.Fprintf(w, "Entries:\t%d (%d bytes, %d stored, ratio %.2f)\n",
		result.EntryCount(), result.TotalUncompressedSize(), result.TotalCompressedSize(), result.CompressionRatio())
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nRoots:")
	for i, root := range result.Roots {
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, root.Location, root.Kind)
		for _, name := range root.Members {
			fmt.Fprintf(out, "       %s\n", name)
		}
	}

	fmt.Fprintln(out, "\nEntries:")
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  PATH\tKIND\tSIZE\tSTORED\tDIGEST")
	for _, e := range result.Entries {
		d := "-"
		if e.Digest != "" {
			d = e.Digest.String()
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d\t%s\n", e.Path, e.Kind, e.Size, e.CompressedSize, d)
	}
	return w.Flush()
}
