package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marquee",
		Short: "Browse TMDb movies from the terminal",
		Long: "Marquee browses The Movie Database: now playing titles, search,\n" +
			"genre filters and movie details with cast and trailers.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/marquee.yaml", "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newListCmd(),
		newMovieCmd(),
		newGenresCmd(),
		newConfigCmd(),
		newMCPServeCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("Marquee v%s\n", version)
		},
	}
}
