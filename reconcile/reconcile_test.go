package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"jobtrack/pkg/tracker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type cellUpdate struct {
	row, col int
	value    string
}

type fakeTable struct {
	updates []cellUpdate
	appends [][]string
}

func (f *fakeTable) UpdateCell(_ context.Context, row, col int, value string) error {
	f.updates = append(f.updates, cellUpdate{row, col, value})
	return nil
}

func (f *fakeTable) AppendRow(_ context.Context, values []string) error {
	f.appends = append(f.appends, values)
	return nil
}

var testHeader = []string{"Company", "Position", "Status", "Applied Date", "Response Date"}

func snapshotWith(rows ...[]string) [][]string {
	return append([][]string{testHeader}, rows...)
}

func TestBuildIndexNormalizesKeys(t *testing.T) {
	idx := BuildIndex(snapshotWith(
		[]string{" Acme Corp ", " Engineer ", "Applied", "06-01-2025", ""},
	))

	row, ok := idx.Lookup("acme corp", "engineer")
	if !ok {
		t.Fatal("Lookup() did not find normalized key")
	}
	if row != 2 {
		t.Errorf("Lookup() row = %d, want 2", row)
	}

	if _, ok := idx.Lookup("ACME CORP", "  Engineer"); !ok {
		t.Error("Lookup() case/whitespace variant not found")
	}
}

func TestBuildIndexSkipsIncompleteRows(t *testing.T) {
	idx := BuildIndex(snapshotWith(
		[]string{"Acme", "", "Applied", "", ""},
		[]string{"", "Engineer", "Applied", "", ""},
		[]string{"OnlyCompany"},
	))
	if idx.Len() != 0 {
		t.Errorf("index holds %d keys, want 0", idx.Len())
	}
}

func TestBuildIndexLastRowWins(t *testing.T) {
	idx := BuildIndex(snapshotWith(
		[]string{"Acme", "Engineer", "Applied", "06-01-2025", ""},
		[]string{"Initech", "SRE", "Applied", "06-02-2025", ""},
		[]string{"acme", "engineer", "Rejected", "06-01-2025", "06-10-2025"},
	))

	row, ok := idx.Lookup("Acme", "Engineer")
	if !ok {
		t.Fatal("Lookup() did not find key")
	}
	if row != 4 {
		t.Errorf("Lookup() row = %d, want the later duplicate row 4", row)
	}
}

func TestReconcileUpdatesExistingRow(t *testing.T) {
	snapshot := snapshotWith(
		[]string{"Initech", "SRE", "Applied", "06-02-2025", ""},
		[]string{"OtherCo", "Analyst", "Applied", "06-03-2025", ""},
		[]string{"Globex", "Manager", "Applied", "06-04-2025", ""},
		[]string{"Acme", "Engineer", "Applied", "06-05-2025", ""},
	)
	table := &fakeTable{}
	engine := NewEngine(table, snapshot[0], BuildIndex(snapshot), testLogger())

	signal := &tracker.Signal{
		Company:   "Acme",
		JobTitle:  "Engineer",
		Status:    tracker.StatusRejected,
		Responded: true,
	}
	action, err := engine.Reconcile(context.Background(), signal, "Tue, 01 Jul 2025 10:00:00 -0400")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if action.Appended || action.Row != 5 {
		t.Errorf("Reconcile() action = %+v, want update of row 5", action)
	}
	if len(table.appends) != 0 {
		t.Errorf("Reconcile() appended %d rows, want 0", len(table.appends))
	}

	want := []cellUpdate{
		{row: 5, col: 5, value: "07-01-2025"}, // Response Date
		{row: 5, col: 3, value: "Rejected"},   // Status
	}
	if len(table.updates) != len(want) {
		t.Fatalf("Reconcile() made %d updates, want %d: %+v", len(table.updates), len(want), table.updates)
	}
	for i, u := range want {
		if table.updates[i] != u {
			t.Errorf("update[%d] = %+v, want %+v", i, table.updates[i], u)
		}
	}
}

func TestReconcileNeverRewritesAppliedDate(t *testing.T) {
	snapshot := snapshotWith([]string{"Acme", "Engineer", "Applied", "06-05-2025", ""})
	table := &fakeTable{}
	engine := NewEngine(table, snapshot[0], BuildIndex(snapshot), testLogger())

	// An application event for an already-tracked row: nothing dated to
	// write, only the status cell changes.
	signal := &tracker.Signal{
		Company:  "Acme",
		JobTitle: "Engineer",
		Status:   tracker.StatusApplied,
		Applied:  true,
	}
	if _, err := engine.Reconcile(context.Background(), signal, "Mon, 30 Jun 2025 09:00:00 -0700"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	for _, u := range table.updates {
		if u.col == 4 {
			t.Errorf("Reconcile() wrote applied-date cell: %+v", u)
		}
	}
	if len(table.updates) != 1 || table.updates[0].col != 3 {
		t.Errorf("Reconcile() updates = %+v, want only the status cell", table.updates)
	}
}

func TestReconcileAppendsNewRow(t *testing.T) {
	snapshot := snapshotWith([]string{"Initech", "SRE", "Applied", "06-02-2025", ""})
	table := &fakeTable{}
	engine := NewEngine(table, snapshot[0], BuildIndex(snapshot), testLogger())

	signal := &tracker.Signal{
		Company:  "Acme",
		JobTitle: "Backend Engineer",
		Status:   tracker.StatusApplied,
		Applied:  true,
	}
	action, err := engine.Reconcile(context.Background(), signal, "Mon, 30 Jun 2025 09:00:00 -0700")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !action.Appended || action.Row != 3 {
		t.Errorf("Reconcile() action = %+v, want append at row 3", action)
	}
	if len(table.appends) != 1 {
		t.Fatalf("Reconcile() appended %d rows, want 1", len(table.appends))
	}

	wantRow := []string{"Acme", "Backend Engineer", "Applied", "06-30-2025", ""}
	got := table.appends[0]
	if len(got) != 5 {
		t.Fatalf("appended row has %d fields, want 5: %v", len(got), got)
	}
	for i := range wantRow {
		if got[i] != wantRow[i] {
			t.Errorf("appended row[%d] = %q, want %q", i, got[i], wantRow[i])
		}
	}
}

func TestReconcileConsecutiveAppendsGetDistinctRows(t *testing.T) {
	snapshot := snapshotWith([]string{"Initech", "SRE", "Applied", "06-02-2025", ""})
	table := &fakeTable{}
	engine := NewEngine(table, snapshot[0], BuildIndex(snapshot), testLogger())

	first := &tracker.Signal{Company: "Acme", JobTitle: "Engineer", Status: "Applied", Applied: true}
	second := &tracker.Signal{Company: "Globex", JobTitle: "Manager", Status: "Applied", Applied: true}

	a1, err := engine.Reconcile(context.Background(), first, "Mon, 30 Jun 2025 09:00:00 -0700")
	if err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	a2, err := engine.Reconcile(context.Background(), second, "Mon, 30 Jun 2025 10:00:00 -0700")
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}

	if a1.Row != 3 || a2.Row != 4 {
		t.Errorf("append rows = %d, %d, want 3, 4", a1.Row, a2.Row)
	}

	// A later signal for the first key must update the row it was assigned,
	// not append a duplicate application.
	followUp := &tracker.Signal{Company: "acme", JobTitle: "ENGINEER", Status: "Rejected", Responded: true}
	a3, err := engine.Reconcile(context.Background(), followUp, "Tue, 01 Jul 2025 10:00:00 -0400")
	if err != nil {
		t.Fatalf("follow-up Reconcile() error = %v", err)
	}
	if a3.Appended || a3.Row != 3 {
		t.Errorf("follow-up action = %+v, want update of row 3", a3)
	}
}

func TestReconcileMissingColumn(t *testing.T) {
	header := []string{"Company", "Position", "Status", "Applied Date"} // no Response Date
	snapshot := append([][]string{header}, []string{"Acme", "Engineer", "Applied", "06-05-2025"})
	table := &fakeTable{}
	engine := NewEngine(table, header, BuildIndex(snapshot), testLogger())

	signal := &tracker.Signal{Company: "Acme", JobTitle: "Engineer", Status: "Rejected", Responded: true}
	_, err := engine.Reconcile(context.Background(), signal, "Tue, 01 Jul 2025 10:00:00 -0400")

	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("Reconcile() error = %v, want MissingColumnError", err)
	}
	if missing.Column != "Response Date" {
		t.Errorf("MissingColumnError column = %q, want %q", missing.Column, "Response Date")
	}
}

func TestReconcileInvalidDate(t *testing.T) {
	snapshot := snapshotWith()
	table := &fakeTable{}
	engine := NewEngine(table, snapshot[0], BuildIndex(snapshot), testLogger())

	signal := &tracker.Signal{Company: "Acme", JobTitle: "Engineer", Status: "Applied", Applied: true}
	_, err := engine.Reconcile(context.Background(), signal, "sometime last week")

	var badDate *InvalidDateError
	if !errors.As(err, &badDate) {
		t.Fatalf("Reconcile() error = %v, want InvalidDateError", err)
	}
	if len(table.appends) != 0 || len(table.updates) != 0 {
		t.Error("Reconcile() touched the table despite the bad date")
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Mon, 30 Jun 2025 09:00:00 -0700", "06-30-2025", false},
		{"Tue, 1 Jul 2025 10:00:00 -0400", "07-01-2025", false},
		{"Mon, 30 Jun 2025 09:00:00 GMT", "06-30-2025", false},
		{"Mon, 30 Jun 2025 09:00:00 -0700 (PDT)", "06-30-2025", false},
		{"30 Jun 2025 09:00:00 -0700", "06-30-2025", false},
		{"  Mon, 30 Jun 2025 09:00:00 -0700  ", "06-30-2025", false},
		{"not a date", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := formatDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("formatDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("formatDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
