package commands

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/openfroyo/await/pkg/accessors"
)

func newFileCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Wait for a file to appear",
		Long: `Wait until a file exists on the local filesystem.

By default the path is polled with stat. With --watch, a filesystem
watcher on the parent directory detects creation without polling the
file itself; the parent directory must already exist.`,
		Example: `  # Wait for a pid file
  await file /var/run/app.pid

  # Use a filesystem watcher instead of polling
  await file /tmp/build.done --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			describe := func(info fs.FileInfo) string {
				return fmt.Sprintf("%d bytes", info.Size())
			}

			if watch {
				probe, err := accessors.WatchFile(path)
				if err != nil {
					return err
				}
				defer probe.Close()
				return runWait(cmd.Context(), cmd, "file", path, probe, describe)
			}

			return runWait(cmd.Context(), cmd, "file", path, accessors.NewFile(path), describe)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "use a filesystem watcher instead of polling")

	return cmd
}
