package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moviefinder/moviefinder/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "moviefinder",
		Short:         "Search TMDB movies and track what people look for",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newSearchCmd(&configPath),
		newTrendingCmd(&configPath),
		newConfigCmd(&configPath),
	)
	return root
}
