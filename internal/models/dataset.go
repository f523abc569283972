package models

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Fixed customer CSV columns. Any additional numeric column is treated as a
// feature usage counter keyed by its header name.
var customerColumns = map[string]bool{
	"id": true, "name": true, "email": true, "company": true, "plan": true,
	"mrr": true, "health_score": true, "nps_score": true,
	"support_tickets": true, "signup_date": true, "last_login": true,
	"churn_risk": true,
}

// LoadCustomersCSV reads a customer dataset. Timestamps are RFC 3339; an
// empty last_login stays zero and is defaulted downstream by the feature
// extractor.
func LoadCustomersCSV(filePath string) ([]*Customer, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading customer header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	if _, ok := col["id"]; !ok {
		return nil, fmt.Errorf("customer file %s has no id column", filePath)
	}

	var customers []*Customer
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		c := &Customer{FeatureUsage: make(map[string]float64)}
		c.ID, err = strconv.Atoi(fields[col["id"]])
		if err != nil {
			return nil, fmt.Errorf("invalid customer id %q: %w", fields[col["id"]], err)
		}
		c.Name = fieldAt(fields, col, "name")
		c.Email = fieldAt(fields, col, "email")
		c.Company = fieldAt(fields, col, "company")
		c.Plan = fieldAt(fields, col, "plan")
		c.MRR = floatAt(fields, col, "mrr")
		c.HealthScore = floatAt(fields, col, "health_score")
		c.NPSScore = floatAt(fields, col, "nps_score")
		c.SupportTickets = int(floatAt(fields, col, "support_tickets"))
		c.ChurnRisk = floatAt(fields, col, "churn_risk")
		c.SignupDate = timeAt(fields, col, "signup_date")
		c.LastLogin = timeAt(fields, col, "last_login")

		for name, idx := range col {
			if customerColumns[name] || idx >= len(fields) {
				continue
			}
			if v, err := strconv.ParseFloat(fields[idx], 64); err == nil {
				c.FeatureUsage[name] = v
			}
		}

		customers = append(customers, c)
	}

	return customers, nil
}

// LoadSessionsCSV reads session history keyed by customer id. Expected
// columns: customer_id, started_at, ended_at, pages_viewed.
func LoadSessionsCSV(filePath string) ([]*Session, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading session header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var sessions []*Session
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		id, err := strconv.Atoi(fields[col["customer_id"]])
		if err != nil {
			return nil, fmt.Errorf("invalid session customer id %q: %w", fields[col["customer_id"]], err)
		}
		sessions = append(sessions, &Session{
			CustomerID:  id,
			StartedAt:   timeAt(fields, col, "started_at"),
			EndedAt:     timeAt(fields, col, "ended_at"),
			PagesViewed: int(floatAt(fields, col, "pages_viewed")),
		})
	}

	return sessions, nil
}

func fieldAt(fields []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func floatAt(fields []string, col map[string]int, name string) float64 {
	v, _ := strconv.ParseFloat(fieldAt(fields, col, name), 64)
	return v
}

func timeAt(fields []string, col map[string]int, name string) time.Time {
	t, _ := time.Parse(time.RFC3339, fieldAt(fields, col, name))
	return t
}
