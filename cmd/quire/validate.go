package main

import (
	"fmt"
	"os"

	"github.com/aretw0/quire/pkg/document"
	"github.com/aretw0/quire/pkg/nbformat"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <notebook.ipynb>",
	Short: "Check a notebook file for validity",
	Long:  `Checks that the path points to a readable .ipynb file and that its content parses as a notebook. No kernel is launched.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Notebook is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	if !document.Validate(path) {
		return fmt.Errorf("%q is not a readable .ipynb file", path)
	}
	if _, err := nbformat.ReadFile(path); err != nil {
		return err
	}
	return nil
}
