package scoring

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/retentia/churnsight/internal/models"
)

func TestPartitionedPath(t *testing.T) {
	base := t.TempDir()
	ts := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	event := map[string]interface{}{"timestamp": float64(ts.Unix())}

	fullPath, fileKey, err := partitionedPath(base, "output", TopicPredictions, event)
	if err != nil {
		t.Fatalf("partitionedPath: %v", err)
	}

	local := ts.Local()
	want := filepath.Join(base, "output", TopicPredictions,
		"year="+local.Format("2006"),
		"month="+local.Format("01"),
		"day="+local.Format("02"),
		"hour="+local.Format("15"))
	if fullPath != want {
		t.Errorf("fullPath = %q, want %q", fullPath, want)
	}
	if info, err := os.Stat(fullPath); err != nil || !info.IsDir() {
		t.Errorf("partition directory not created: %v", err)
	}
	if !strings.HasPrefix(fileKey, TopicPredictions+"_") {
		t.Errorf("fileKey = %q, want topic prefix", fileKey)
	}
}

func TestPartitionedPathRejectsMissingTimestamp(t *testing.T) {
	if _, _, err := partitionedPath(t.TempDir(), "output", TopicPredictions, map[string]interface{}{}); err == nil {
		t.Fatalf("event without timestamp should fail")
	}
}

func TestJSONOutputAppendsLines(t *testing.T) {
	base := t.TempDir()
	out := NewJSONOutput(base, "output")

	first := []byte(`{"timestamp":1748786400,"customerId":1}`)
	second := []byte(`{"timestamp":1748786400,"customerId":2}`)

	if err := out.WriteMessage(TopicPredictions, first); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if err := out.WriteMessage(TopicPredictions, second); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(base, "output", TopicPredictions, "year=*", "month=*", "day=*", "hour=*", "data.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one partition file, got %v (%v)", matches, err)
	}

	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
}

func TestCSVOutputWritesSortedHeader(t *testing.T) {
	base := t.TempDir()
	out := NewCSVOutput(base, "output")

	msg := []byte(`{"timestamp":1748786400,"customerId":3,"riskLevel":"high"}`)
	if err := out.WriteMessage(TopicPredictions, msg); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(base, "output", TopicPredictions, "year=*", "month=*", "day=*", "hour=*", "data.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one partition file, got %v (%v)", matches, err)
	}

	file, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header plus one record", len(rows))
	}

	header := rows[0]
	for i := 1; i < len(header); i++ {
		if header[i] < header[i-1] {
			t.Fatalf("header not sorted: %v", header)
		}
	}
	if len(rows[1]) != len(header) {
		t.Fatalf("record width %d does not match header width %d", len(rows[1]), len(header))
	}
}

func TestGetSchemaCoversAllTopics(t *testing.T) {
	for _, topic := range []string{TopicPredictions, TopicRecommendations, TopicImportances, TopicOutcomes} {
		if _, err := GetSchema(topic); err != nil {
			t.Errorf("GetSchema(%q): %v", topic, err)
		}
	}
	if _, err := GetSchema("unknown_topic"); err == nil {
		t.Errorf("unknown topic should fail")
	}
}

func TestDetermineOutputDestination(t *testing.T) {
	runner := &Runner{Config: &models.Config{}}
	out, err := runner.determineOutputDestination()
	if err != nil {
		t.Fatalf("default destination: %v", err)
	}
	if _, ok := out.(*ConsoleOutput); !ok {
		t.Fatalf("default destination should be console, got %T", out)
	}

	runner = &Runner{Config: &models.Config{OutputPath: t.TempDir(), OutputFormat: "xml"}}
	if _, err := runner.determineOutputDestination(); err == nil {
		t.Fatalf("unsupported format should fail")
	}

	runner = &Runner{Config: &models.Config{OutputPath: t.TempDir(), OutputFormat: "json"}}
	if out, err := runner.determineOutputDestination(); err != nil {
		t.Fatalf("json destination: %v", err)
	} else if _, ok := out.(*JSONOutput); !ok {
		t.Fatalf("want JSONOutput, got %T", out)
	}
}
