package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadCustomersCSV(t *testing.T) {
	path := writeTempCSV(t, "customers.csv",
		"id,name,email,company,plan,mrr,health_score,nps_score,support_tickets,signup_date,last_login,churn_risk,logins,claims_count\n"+
			"1,Ada,ada@example.com,Acme,enterprise,2500,72.5,9,2,2024-01-15T00:00:00Z,2025-05-20T00:00:00Z,0.12,45,1\n"+
			"2,Ben,ben@example.com,Globex,starter,120,33,3,7,2023-07-01T00:00:00Z,,0.81,2,0\n")

	customers, err := LoadCustomersCSV(path)
	if err != nil {
		t.Fatalf("LoadCustomersCSV: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("got %d customers, want 2", len(customers))
	}

	ada := customers[0]
	if ada.ID != 1 || ada.Name != "Ada" || ada.Plan != "enterprise" {
		t.Errorf("fixed columns misparsed: %+v", ada)
	}
	if ada.MRR != 2500 || ada.HealthScore != 72.5 || ada.SupportTickets != 2 || ada.ChurnRisk != 0.12 {
		t.Errorf("numeric columns misparsed: %+v", ada)
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC); !ada.SignupDate.Equal(want) {
		t.Errorf("SignupDate = %v, want %v", ada.SignupDate, want)
	}
	// extra numeric columns land in the usage map
	if ada.FeatureUsage["logins"] != 45 || ada.FeatureUsage["claims_count"] != 1 {
		t.Errorf("FeatureUsage = %v", ada.FeatureUsage)
	}

	ben := customers[1]
	if !ben.LastLogin.IsZero() {
		t.Errorf("empty last_login should stay zero, got %v", ben.LastLogin)
	}
}

func TestLoadCustomersCSVRequiresID(t *testing.T) {
	path := writeTempCSV(t, "noid.csv", "name,plan\nAda,pro\n")
	if _, err := LoadCustomersCSV(path); err == nil {
		t.Fatalf("missing id column should fail")
	}
}

func TestLoadCustomersCSVMissingFile(t *testing.T) {
	if _, err := LoadCustomersCSV(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("missing file should fail")
	}
}

func TestLoadSessionsCSV(t *testing.T) {
	path := writeTempCSV(t, "sessions.csv",
		"customer_id,started_at,ended_at,pages_viewed\n"+
			"1,2025-05-20T10:00:00Z,2025-05-20T10:30:00Z,12\n"+
			"1,2025-05-21T09:00:00Z,2025-05-21T09:45:00Z,7\n")

	sessions, err := LoadSessionsCSV(path)
	if err != nil {
		t.Fatalf("LoadSessionsCSV: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].CustomerID != 1 || sessions[0].PagesViewed != 12 {
		t.Errorf("first session misparsed: %+v", sessions[0])
	}
	if got := sessions[0].EndedAt.Sub(sessions[0].StartedAt); got != 30*time.Minute {
		t.Errorf("session duration = %v, want 30m", got)
	}
}
