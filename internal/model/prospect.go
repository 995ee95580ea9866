package model

import "time"

// CompanyProfile carries what is known about a prospect's company at
// vetting time. Industry and EmployeeCount may be conversation-inferred
// rather than verified.
type CompanyProfile struct {
	Name          string `json:"name"`
	Domain        string `json:"domain,omitempty"`
	ContactName   string `json:"contact_name,omitempty"`
	ContactRole   string `json:"contact_role,omitempty"`
	Industry      string `json:"industry,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
}

// Prospect ties a qualification session to the company being vetted.
type Prospect struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Company   CompanyProfile `json:"company"`
	CreatedAt time.Time      `json:"created_at"`
}
