package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	snapshotHistory bool
	snapshotLimit   int
	snapshotOutput  string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <prospect-id>",
	Short: "Show the most recent vetting snapshot for a prospect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var out any
		if snapshotHistory {
			snaps, err := env.Orchestrator.History(cmd.Context(), args[0], snapshotLimit)
			if err != nil {
				return err
			}
			out = snaps
		} else {
			snap, err := env.Orchestrator.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if snap == nil {
				return errors.New("prospect has no snapshot")
			}
			out = snap
		}

		switch snapshotOutput {
		case "yaml":
			return yaml.NewEncoder(os.Stdout).Encode(out)
		case "json", "":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		default:
			return errors.New("unknown output format: " + snapshotOutput)
		}
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotHistory, "history", false, "show all snapshots, newest first")
	snapshotCmd.Flags().IntVar(&snapshotLimit, "limit", 0, "max snapshots to show with --history (0 = all)")
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(snapshotCmd)
}
