package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/vetting-cli/internal/vetting"
)

var vetForce bool

var vetCmd = &cobra.Command{
	Use:   "vet <prospect-id>",
	Short: "Run the full vetting pipeline for a prospect",
	Long:  "Runs the website, identity, and budget validators concurrently, combines them with the conversation signal, and persists an immutable snapshot. A snapshot younger than the freshness window is returned as-is unless --force is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Orchestrator.Run(cmd.Context(), args[0], vetting.Options{ForceRefresh: vetForce})
		if errors.Is(err, vetting.ErrNoConversation) {
			return errors.New("prospect has no conversation; vetting impossible")
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	vetCmd.Flags().BoolVar(&vetForce, "force", false, "skip the snapshot freshness check")
	rootCmd.AddCommand(vetCmd)
}
