package ontology

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
)

func isMalformed(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr) && errors.Is(err, ErrMalformed)
}

func TestLoad_FormatsAgree(t *testing.T) {
	ctx := context.Background()
	fromJSON, err := LoadFile(ctx, "testdata/class_hierarchy.json")
	if err != nil {
		t.Fatal("LoadFile(json):", err)
	}
	fromYAML, err := LoadFile(ctx, "testdata/class_hierarchy.yaml")
	if err != nil {
		t.Fatal("LoadFile(yaml):", err)
	}
	if diff := cmp.Diff(fromJSON.Hierarchy(), fromYAML.Hierarchy()); diff != "" {
		t.Errorf("JSON and YAML hierarchies differ (-json +yaml):\n%s", diff)
	}
}

func TestLoad_ForcedFormat(t *testing.T) {
	const doc = "Speed:\n  min: 0\n  max: 300\n  unitMeasure: [km/h]\n"
	m, err := Load(context.Background(), strings.NewReader(doc), WithFormat(FormatYAML))
	if err != nil {
		t.Fatal("Load():", err)
	}
	c, ok := m.SensorDetails("Speed")
	if !ok || c.CanonicalUnit() != "km/h" {
		t.Errorf("SensorDetails(Speed) = %+v, %v; want a class measured in km/h", c, ok)
	}
}

func TestLoad_NullFields(t *testing.T) {
	const doc = `{"A": {"superclass": null, "min": null, "max": 4, "unitMeasure": null}}`
	m, err := Load(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatal("Load():", err)
	}
	if diff := cmp.Diff([]string{"A"}, m.RootClasses()); diff != "" {
		t.Errorf("RootClasses() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.GenerateValue("A"); ok {
		t.Error("GenerateValue(A) available without min")
	}
}

func TestLoad_EmptyHierarchy(t *testing.T) {
	m, err := Load(context.Background(), strings.NewReader("{}"))
	if err != nil {
		t.Fatal("Load():", err)
	}
	if got := m.SensorTypes(); len(got) != 0 {
		t.Errorf("SensorTypes() = %v, want empty", got)
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{name: "Empty", doc: ""},
		{name: "EmptyYAML", doc: "", format: FormatYAML},
		{name: "Null", doc: "null"},
		{name: "Array", doc: `["Temperature"]`},
		{name: "Truncated", doc: `{"A": {"min": 1`},
		{name: "TrailingData", doc: `{"A": {}} {"B": {}}`},
		{name: "NullClass", doc: `{"A": null}`},
		{name: "NullClassYAML", doc: "A:\n", format: FormatYAML},
		{name: "ScalarClass", doc: `{"A": 42}`},
		{name: "SuperclassString", doc: `{"A": {"superclass": "B"}}`},
		{name: "SuperclassNumber", doc: `{"A": {"superclass": [1]}}`},
		{name: "UnitString", doc: `{"A": {"unitMeasure": "C"}}`},
		{name: "MinString", doc: `{"A": {"min": "0"}}`},
		{name: "MinExceedsMax", doc: `{"A": {"min": 5, "max": 1}}`},
		{name: "NaNYAML", doc: "A:\n  mean: .nan\n", format: FormatYAML},
		{name: "EmptySuperclassName", doc: `{"A": {"superclass": [""]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), strings.NewReader(tt.doc), WithFormat(tt.format))
			if !isMalformed(err) {
				t.Errorf("Load() error = %v, want a malformed LoadError", err)
			}
		})
	}
}

func TestLoad_DanglingReferences(t *testing.T) {
	ctx := context.Background()
	if _, err := LoadFile(ctx, "testdata/class_hierarchy.json"); err != nil {
		t.Errorf("LoadFile() error = %v, want dangling references tolerated", err)
	}
	_, err := LoadFile(ctx, "testdata/class_hierarchy.json", WithStrictReferences())
	if !isMalformed(err) {
		t.Errorf("LoadFile(strict) error = %v, want a malformed LoadError", err)
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadFile() error = %v, want a not-found LoadError", err)
	}
}

func TestOpenBucket(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer func() { _ = bucket.Close() }()

	data, err := os.ReadFile("testdata/class_hierarchy.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := bucket.WriteAll(ctx, "ontology/classes.yaml", data, nil); err != nil {
		t.Fatal("WriteAll():", err)
	}

	m, err := OpenBucket(ctx, bucket, "ontology/classes.yaml")
	if err != nil {
		t.Fatal("OpenBucket():", err)
	}
	if diff := cmp.Diff([]string{"Pressure", "Sensor"}, m.RootClasses()); diff != "" {
		t.Errorf("RootClasses() mismatch (-want +got):\n%s", diff)
	}

	_, err = OpenBucket(ctx, bucket, "ontology/absent.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenBucket(absent) error = %v, want ErrNotFound", err)
	}
}

func TestOpenURL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	data, err := os.ReadFile("testdata/class_hierarchy.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "classes.json"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := OpenURL(ctx, "file://"+filepath.ToSlash(dir)+"/classes.json")
	if err != nil {
		t.Fatal("OpenURL():", err)
	}
	if !m.IsSensorCompatible("Thermohygrometer", "Humidity") {
		t.Error("IsSensorCompatible(Thermohygrometer, Humidity) = false, want true")
	}

	_, err = OpenURL(ctx, "file://"+filepath.ToSlash(dir)+"/absent.json")
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenURL(absent) error = %v, want a not-found LoadError", err)
	}
}

func TestSplitObjectURL(t *testing.T) {
	tests := []struct {
		url        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{url: "file:///var/lib/classes.json", wantBucket: "file:///var/lib/", wantKey: "classes.json"},
		{url: "s3://bucket/ontology/classes.yaml?region=eu-west-1", wantBucket: "s3://bucket?region=eu-west-1", wantKey: "ontology/classes.yaml"},
		{url: "mem://bucket", wantErr: true},
		{url: "/var/lib/classes.json", wantErr: true},
	}
	for _, tt := range tests {
		bucket, key, err := splitObjectURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitObjectURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if bucket != tt.wantBucket || key != tt.wantKey {
			t.Errorf("splitObjectURL(%q) = %q, %q; want %q, %q", tt.url, bucket, key, tt.wantBucket, tt.wantKey)
		}
	}
}
