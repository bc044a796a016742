package valmap

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateSnapshot(t *testing.T) {
	m := dumpFixture()
	ForType[Person](m).Property("unknown", ElementField)

	before := time.Now().UTC()
	snap, err := CreateSnapshot(m)
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	if snap.Version != SnapshotVersion {
		t.Errorf("Version = %q", snap.Version)
	}
	if snap.Timestamp.Before(before) || snap.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v", snap.Timestamp)
	}

	if len(snap.Types) != 1 || snap.Types[0].Type != "valmap.Person" {
		t.Fatalf("Types = %+v", snap.Types)
	}
	person := snap.Types[0]
	if len(person.Constraints) != 3 || len(person.Cascades) != 1 {
		t.Errorf("expected 3 constraints and 1 cascade, got %d and %d", len(person.Constraints), len(person.Cascades))
	}
	for _, c := range person.Constraints {
		if c.Source != OriginProgrammatic {
			t.Errorf("%s source = %q", c.Location, c.Source)
		}
	}

	if len(snap.Errors) != 1 || snap.Errors[0].Code != ErrCodeUnknownProperty {
		t.Errorf("Errors = %+v", snap.Errors)
	}
}

func TestCreateSnapshot_ExcludeTypes(t *testing.T) {
	m := NewConstraintMapping()
	ForType[Person](m).Constraint(NotNull())
	ForType[Address](m).Constraint(NotNull())

	snap, err := CreateSnapshot(m, WithExcludeTypes("VALMAP.PERSON"))
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	if len(snap.Types) != 1 || snap.Types[0].Type != "valmap.Address" {
		t.Errorf("Types = %+v", snap.Types)
	}
}

func TestCreateSnapshot_NilMapping(t *testing.T) {
	if _, err := CreateSnapshot(nil); !errors.Is(err, ErrNilMapping) {
		t.Errorf("CreateSnapshot(nil) = %v, want ErrNilMapping", err)
	}
}

func TestWriteSnapshot_RoundTrip(t *testing.T) {
	snap, err := CreateSnapshot(dumpFixture())
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	dir := t.TempDir()
	path, err := WriteSnapshot(snap, filepath.Join(dir, "nested", "mapping-{{timestamp}}.json"))
	if err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	wantName := "mapping-" + snap.Timestamp.Format("20060102-150405") + ".json"
	if filepath.Base(path) != wantName {
		t.Errorf("path = %q, want base %q", path, wantName)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, found %d entries", len(entries))
	}

	read, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if !read.Timestamp.Equal(snap.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", read.Timestamp, snap.Timestamp)
	}
	if len(read.Types) != 1 || len(read.Types[0].Constraints) != 3 {
		t.Fatalf("Types = %+v", read.Types)
	}
	if got := read.Types[0].Constraints[1].Params["max"]; got != float64(50) {
		t.Errorf("max = %v", got)
	}
}

func TestWriteSnapshot_Nil(t *testing.T) {
	if _, err := WriteSnapshot(nil, filepath.Join(t.TempDir(), "x.json")); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("WriteSnapshot(nil) = %v, want ErrNilSnapshot", err)
	}
}

func TestReadSnapshot_UnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	data, _ := json.Marshal(MappingSnapshot{Version: "9.9"})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	_, err := ReadSnapshot(path)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("ReadSnapshot() = %v, want ErrUnsupportedVersion", err)
	}
}

func TestReadSnapshot_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := ReadSnapshot(path)
	if err == nil || !strings.Contains(err.Error(), "decode snapshot") {
		t.Errorf("ReadSnapshot() = %v", err)
	}

	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadSnapshot(missing) = %v", err)
	}
}

func TestExpandPathWithTime(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		template string
		want     string
	}{
		{"mapping.json", "mapping.json"},
		{"mapping-{{timestamp}}.json", "mapping-20240305-130709.json"},
		{"{{timestamp}}/{{timestamp}}.json", "20240305-130709/20240305-130709.json"},
	}

	for _, tt := range tests {
		if got := ExpandPathWithTime(tt.template, ts); got != tt.want {
			t.Errorf("ExpandPathWithTime(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func BenchmarkCreateSnapshot(b *testing.B) {
	m := dumpFixture()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := CreateSnapshot(m); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteSnapshot(b *testing.B) {
	snap, err := CreateSnapshot(dumpFixture())
	if err != nil {
		b.Fatal(err)
	}
	path := filepath.Join(b.TempDir(), "mapping.json")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := WriteSnapshot(snap, path); err != nil {
			b.Fatal(err)
		}
	}
}
