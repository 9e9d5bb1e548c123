package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthurlee116/english-listening-trainer-sub003/internal/version"
)

func newVersionCommand() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetBuildInfo()
			fmt.Println(info.String())

			if detailed {
				for _, dep := range info.BuildDeps {
					fmt.Printf("  %s %s\n", dep.Path, dep.Version)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false,
		"include module dependency versions")

	return cmd
}
