package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mjcusd/internal/config"
	"github.com/agentic-research/mjcusd/internal/nfsmount"
)

func init() {
	serveCmd.Flags().Int("nfs-port", config.DefaultNFSPort, "NFS port (0 picks a free one)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <model.xml> [mountpoint]",
	Short: "Serve the translated scene as a read-only NFS filesystem",
	Long: `Serve the translated scene over NFSv3 on localhost. Prims are directories
and every property is a file holding its layer text; _layer.usda and
_scene.json at the root hold the whole document. With a mountpoint the
export is mounted there (requires sudo) and unmounted on exit.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := config.Logger(cmd.Context())
		res, err := readModel(cmd, args[0])
		if err != nil {
			return err
		}
		if err := checkStrict(cmd, res); err != nil {
			return err
		}
		fs, err := nfsmount.NewSceneFS(res.Store)
		if err != nil {
			return err
		}
		srv, err := nfsmount.NewServer(fs, cfg.NFS.Port, log)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()

		if len(args) == 2 {
			mountpoint := args[1]
			if err := nfsmount.Mount(srv.Port(), mountpoint); err != nil {
				return err
			}
			defer func() {
				if err := nfsmount.Unmount(mountpoint); err != nil {
					log.Error("unmount", "mountpoint", mountpoint, "error", err)
				}
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Mounted %s at %s\n", res.Root, mountpoint)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on localhost:%d\n", res.Root, srv.Port())
		}
		return srv.Wait(cmd.Context())
	},
}
