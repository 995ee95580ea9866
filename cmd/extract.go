package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var extractSessionID string

var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Append a user turn to a session and re-extract qualification fields",
	Long:  "Appends the given text as a user turn, re-derives the field extraction from the full transcript, and prints the extraction, completeness, and conversation-only categorization.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		text := strings.Join(args, " ")
		result, err := env.Sessions.StartOrContinueExtraction(cmd.Context(), extractSessionID, text)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSessionID, "session", "", "session id (required)")
	if err := extractCmd.MarkFlagRequired("session"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	rootCmd.AddCommand(extractCmd)
}
