package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sells-group/vetting-cli/internal/model"
)

var prospectFlags struct {
	SessionID     string
	Name          string
	Domain        string
	ContactName   string
	ContactRole   string
	Industry      string
	EmployeeCount int
}

var prospectCmd = &cobra.Command{
	Use:   "prospect",
	Short: "Manage prospects",
}

var prospectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a prospect against an intake session",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		p := model.Prospect{
			ID:        uuid.NewString(),
			SessionID: prospectFlags.SessionID,
			Company: model.CompanyProfile{
				Name:          prospectFlags.Name,
				Domain:        prospectFlags.Domain,
				ContactName:   prospectFlags.ContactName,
				ContactRole:   prospectFlags.ContactRole,
				Industry:      prospectFlags.Industry,
				EmployeeCount: prospectFlags.EmployeeCount,
			},
			CreatedAt: time.Now().UTC(),
		}
		if err := env.Store.SaveProspect(cmd.Context(), p); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

func init() {
	prospectAddCmd.Flags().StringVar(&prospectFlags.SessionID, "session", "", "intake session id (required)")
	prospectAddCmd.Flags().StringVar(&prospectFlags.Name, "name", "", "company name")
	prospectAddCmd.Flags().StringVar(&prospectFlags.Domain, "domain", "", "company domain")
	prospectAddCmd.Flags().StringVar(&prospectFlags.ContactName, "contact", "", "contact name")
	prospectAddCmd.Flags().StringVar(&prospectFlags.ContactRole, "role", "", "contact role")
	prospectAddCmd.Flags().StringVar(&prospectFlags.Industry, "industry", "", "industry")
	prospectAddCmd.Flags().IntVar(&prospectFlags.EmployeeCount, "employees", 0, "employee count")
	_ = prospectAddCmd.MarkFlagRequired("session")

	prospectCmd.AddCommand(prospectAddCmd)
	rootCmd.AddCommand(prospectCmd)
}
