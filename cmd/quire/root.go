package main

import (
	"fmt"
	"os"

	"github.com/aretw0/quire"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Quire is a notebook runtime for external interpreter kernels",
	Long:  `Quire opens, runs, and serves .ipynb notebooks, driving line-based interpreter processes as kernels.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("kernels", quire.DefaultRegistryFile, "Path to the kernel registry YAML file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
}
