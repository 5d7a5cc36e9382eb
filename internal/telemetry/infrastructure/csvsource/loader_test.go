package csvsource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRead_HeaderAnyOrder(t *testing.T) {
	input := strings.Join([]string{
		"value,time,name",
		"1,2026-03-10T08:00:00Z,presence-101",
		"0,2026-03-10T08:01:00Z,BV101",
	}, "\n")

	records, skipped, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	want := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if !records[0].At.Equal(want) || records[0].DeviceName != "presence-101" || records[0].Value != 1 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestRead_ToleratesBadRows(t *testing.T) {
	input := strings.Join([]string{
		"time,name,value",
		"2026-03-10T08:00:00Z,presence-101,1",
		"not-a-time,presence-101,1",
		"2026-03-10T08:01:00Z,presence-101,not-a-number",
		"2026-03-10T08:02:00Z",
		"2026-03-10T08:03:00Z,presence-101,0",
	}, "\n")

	records, skipped, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if skipped != 3 {
		t.Errorf("skipped = %d, want 3", skipped)
	}
}

func TestRead_MissingColumnsFails(t *testing.T) {
	if _, _, err := Read(strings.NewReader("time,value\n2026-03-10T08:00:00Z,1\n")); err == nil {
		t.Error("header without a name column must error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	contents := "time,name,value\n2026-03-10T08:00:00Z,presence-101,1\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	records, _, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("missing file must error")
	}
}
