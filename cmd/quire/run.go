package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/presentation/tui"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <notebook.ipynb>",
	Short: "Run all cells of a notebook",
	Long:  `Launches the notebook's kernel, runs every code cell in order, and prints the resulting outputs. Per-cell failures do not stop later cells.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		kernelsPath, _ := cmd.Flags().GetString("kernels")
		kernelName, _ := cmd.Flags().GetString("kernel")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		headless, _ := cmd.Flags().GetBool("headless")
		save, _ := cmd.Flags().GetBool("save")

		logger, err := newLogger(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := []quire.Option{
			quire.WithRegistryFile(kernelsPath),
			quire.WithKernel(kernelName),
			quire.WithLogger(logger),
		}
		if timeout > 0 {
			opts = append(opts, quire.WithKernelOptions(kernel.WithTimeout(timeout)))
		}

		doc, err := quire.Open(path, opts...)
		if err != nil {
			fmt.Printf("Error opening notebook: %v\n", err)
			os.Exit(1)
		}
		defer doc.Close()

		runner := quire.NewRunner()
		runner.Output = os.Stdout
		runner.Headless = headless
		if !headless && tui.IsTerminal() {
			tui.PrintBanner(quire.Version)
			runner.Renderer = tui.NewRenderer()
		}

		runErr := runner.Run(cmd.Context(), doc)

		if save {
			if err := doc.SaveAs(doc.Path()); err != nil {
				fmt.Printf("Error saving notebook: %v\n", err)
				os.Exit(1)
			}
		}

		if runErr != nil {
			fmt.Printf("Run finished with failures: %v\n", runErr)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("kernel", "k", "", "Kernel name from the registry (defaults to the registry default)")
	runCmd.Flags().Duration("timeout", 2*time.Minute, "Per-cell execution timeout (0 disables)")
	runCmd.Flags().Bool("headless", false, "Only print code cells and outputs (no banner, no markdown)")
	runCmd.Flags().Bool("save", false, "Write execution results back to the notebook file")
}
