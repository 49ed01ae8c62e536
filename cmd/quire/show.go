package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/quire/internal/presentation/outline"
	"github.com/aretw0/quire/internal/presentation/tui"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
	"github.com/spf13/cobra"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <notebook.ipynb>",
	Short: "Render a notebook in the terminal",
	Long:  `Prints the notebook without launching a kernel. Markdown cells are rendered for the terminal; code cells are shown with their recorded outputs.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outlineMode, _ := cmd.Flags().GetBool("outline")
		plain, _ := cmd.Flags().GetBool("plain")

		nb, err := nbformat.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading notebook: %v\n", err)
			os.Exit(1)
		}

		cells := make([]*domain.Cell, 0, len(nb.Cells))
		for _, rec := range nb.Cells {
			cells = append(cells, rec.ToCell())
		}

		if outlineMode {
			fmt.Print(outline.Generate(cells, nil))
			return
		}

		var render func(string) (string, error)
		if !plain && tui.IsTerminal() {
			render = tui.NewRenderer()
		}

		for _, cell := range cells {
			if !cell.IsCode() {
				content := cell.Source
				if render != nil {
					if rendered, err := render(content); err == nil {
						content = rendered
					}
				}
				fmt.Println(strings.TrimRight(content, "\n"))
				fmt.Println()
				continue
			}

			label := " "
			if cell.ExecutionCount != nil {
				label = fmt.Sprintf("%d", *cell.ExecutionCount)
			}
			fmt.Printf("In [%s]: %s\n", label, strings.TrimRight(cell.Source, "\n"))
			for _, output := range cell.Outputs {
				if text := output.Text(); text != "" {
					fmt.Printf("Out[%s]: %s\n", label, strings.TrimRight(text, "\n"))
				}
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("outline", false, "Print a compact outline instead of the full content")
	showCmd.Flags().Bool("plain", false, "Disable terminal markdown rendering")
}
