package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/cli"
)

// versionInfo is the structured form of the version command.
type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func currentVersionInfo() versionInfo {
	v := rootCmd.Version
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:   v,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of yoctl",
		Long: `Print the version of this yoctl binary, the Go release it was built
with and its platform. Use -o json or -o yaml for scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := newPrinter(cli.Connection{}, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			info := currentVersionInfo()
			if printer.IsStructured() {
				return printer.Print(info, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "yoctl version %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
			return nil
		},
	}
}
