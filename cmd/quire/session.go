package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage document snapshots",
	Long:  `List, inspect, and remove unsaved-work snapshots kept in the snapshot store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := newSnapshotStore(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ids, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing snapshots: %v\n", err)
			os.Exit(1)
		}

		if len(ids) == 0 {
			fmt.Println("No snapshots found.")
			return
		}

		fmt.Println("Snapshots:")
		for _, id := range ids {
			fmt.Println("- " + id)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <document-id>",
	Short: "Print a snapshot as notebook JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := newSnapshotStore(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		nb, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading snapshot '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		data, err := nb.Encode()
		if err != nil {
			fmt.Printf("Error encoding snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <document-id>...",
	Short: "Remove one or more snapshots",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := newSnapshotStore(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		hasError := false
		for _, id := range args {
			if err := store.Delete(cmd.Context(), id); err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				hasError = true
			} else {
				fmt.Printf("Removed snapshot '%s'\n", id)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	for _, cmd := range []*cobra.Command{sessionLsCmd, sessionInspectCmd, sessionRmCmd} {
		addStoreFlags(cmd)
	}
}
