package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testHierarchy = `{
	"Sensor": {},
	"Temperature": {"superclass": ["Sensor"], "min": 0, "max": 100, "unitMeasure": ["C"]},
	"RoomTemperature": {"superclass": ["Temperature"]},
	"Humidity": {"superclass": ["Sensor"], "min": 0, "max": 100, "unitMeasure": ["%"]},
	"Pressure": {"min": 950, "max": 1050, "unitMeasure": ["hPa"]}
}`

// run executes the command line args against testHierarchy and returns what it
// printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "class_hierarchy.json")
	if err := os.WriteFile(path, []byte(testHierarchy), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--hierarchy", path))
	err := cmd.Execute()
	return out.String(), err
}

func TestOntologyCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"ontology", "types"}, want: "Humidity\nPressure\nRoomTemperature\nSensor\nTemperature\n"},
		{args: []string{"ontology", "roots"}, want: "Pressure\nSensor\n"},
		{args: []string{"ontology", "subclasses", "Sensor"}, want: "Humidity\nTemperature\n"},
		{args: []string{"ontology", "subclasses", "--all", "Sensor"}, want: "Humidity\nRoomTemperature\nTemperature\n"},
		{args: []string{"ontology", "subclasses", "Pressure"}, want: "(none)\n"},
		{args: []string{"ontology", "superclasses", "RoomTemperature"}, want: "Temperature\n"},
		{args: []string{"ontology", "superclasses", "-a", "RoomTemperature"}, want: "Sensor\nTemperature\n"},
		{args: []string{"ontology", "compatible", "Temperature"}, want: "RoomTemperature\nSensor\nTemperature\n"},
		{args: []string{"ontology", "compatible", "Temperature", "Humidity"}, want: "false\n"},
		{args: []string{"ontology", "compatible", "Humidity", "Sensor"}, want: "true\n"},
		{args: []string{"ontology", "tree"}, want: `Pressure [950, 1050] hPa
Sensor
  Humidity [0, 100] %
  Temperature [0, 100] C
    RoomTemperature
`},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := run(t, tt.args...)
			if err != nil {
				t.Fatal("Execute():", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOntologyCommands_Details(t *testing.T) {
	got, err := run(t, "ontology", "details", "Temperature")
	if err != nil {
		t.Fatal("Execute():", err)
	}
	for _, want := range []string{`"name": "Temperature"`, `"superclass": [`, `"min": 0`, `"unitMeasure": [`} {
		if !strings.Contains(got, want) {
			t.Errorf("details output lacks %s:\n%s", want, got)
		}
	}

	if _, err := run(t, "ontology", "details", "Foo"); err == nil {
		t.Error("details of an unknown class succeeded, want error")
	}
}

func TestOntologyCommands_Generate(t *testing.T) {
	got, err := run(t, "ontology", "generate", "Pressure", "-n", "3")
	if err != nil {
		t.Fatal("Execute():", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 3 {
		t.Fatalf("generate printed %d lines, want 3:\n%s", len(lines), got)
	}
	for _, l := range lines {
		if !strings.HasSuffix(l, " hPa") {
			t.Errorf("generated reading %q lacks its unit", l)
		}
	}

	for _, args := range [][]string{
		{"ontology", "generate", "Sensor"},
		{"ontology", "generate", "Foo"},
		{"ontology", "generate", "Pressure", "-n", "0"},
	} {
		if _, err := run(t, args...); err == nil {
			t.Errorf("%v succeeded, want error", args)
		}
	}
}

func TestSimulateCommand(t *testing.T) {
	// The default in-memory store holds no digital twins.
	got, err := run(t, "simulate")
	if err != nil {
		t.Fatal("Execute():", err)
	}
	if got != "" {
		t.Errorf("simulate printed %q, want nothing", got)
	}
	if _, err := run(t, "simulate", "nope"); err == nil {
		t.Error("simulate of an unknown twin succeeded, want error")
	}
}

func TestIngestCommand_Unconfigured(t *testing.T) {
	if _, err := run(t, "ingest"); err == nil {
		t.Error("ingest without reported_url succeeded, want error")
	}
}
