package cmd

import (
	"fmt"
	"os"

	"github.com/leegeunhyeok/box-db/cmd/shell"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "boxdb",
		Short: "typed, transactional object store",
		Long: fmt.Sprintf(`boxdb (v%s)

A typed, transaction-oriented access layer over a versioned key-value
object-store engine: declared stores with schemas and secondary indexes,
atomic task batches and diff-based structural migration.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of boxdb",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("boxdb v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(shell.ShellCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
