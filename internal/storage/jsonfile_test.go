package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	s, err := OpenJSON(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	return s
}

func TestJSONStore_MissingFilesYieldDefaults(t *testing.T) {
	s := openJSONStore(t)

	p, err := s.LoadProfile()
	if err != nil || len(p) != 0 {
		t.Errorf("LoadProfile = %v, %v; want empty, nil", p, err)
	}
	m, err := s.LoadMemory()
	if err != nil || len(m) != 0 {
		t.Errorf("LoadMemory = %v, %v; want empty, nil", m, err)
	}
	if _, err := s.LoadPosition(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadPosition err = %v, want ErrNotFound", err)
	}
}

func TestJSONStore_ProfileRoundTripOnDisk(t *testing.T) {
	s := openJSONStore(t)

	if err := s.SaveProfile(map[string]string{"name": "Anna"}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir(), profileFile))
	if err != nil {
		t.Fatalf("reading profile file: %v", err)
	}
	var onDisk map[string]string
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("profile file is not a JSON object: %v", err)
	}
	if onDisk["name"] != "Anna" {
		t.Errorf("on-disk profile = %v", onDisk)
	}
}

func TestJSONStore_MemoryFileFormat(t *testing.T) {
	s := openJSONStore(t)

	if err := s.SaveMemory([]Exchange{{User: "hi", Assistant: "hello"}}); err != nil {
		t.Fatalf("SaveMemory: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir(), memoryFile))
	if err != nil {
		t.Fatalf("reading memory file: %v", err)
	}
	var onDisk []map[string]string
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("memory file is not a JSON array: %v", err)
	}
	if len(onDisk) != 1 || onDisk[0]["user"] != "hi" || onDisk[0]["assistant"] != "hello" {
		t.Errorf("on-disk memory = %v", onDisk)
	}
}

func TestJSONStore_SaveOverwrites(t *testing.T) {
	s := openJSONStore(t)

	s.SaveMemory([]Exchange{{User: "a"}, {User: "b"}, {User: "c"}})
	s.SaveMemory([]Exchange{{User: "c"}})

	m, err := s.LoadMemory()
	if err != nil {
		t.Fatalf("LoadMemory: %v", err)
	}
	if len(m) != 1 || m[0].User != "c" {
		t.Errorf("LoadMemory = %+v, want only the last save", m)
	}
}

func TestJSONStore_Position(t *testing.T) {
	s := openJSONStore(t)

	if err := s.SavePosition(Position{X: 120, Y: 640}); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}
	p, err := s.LoadPosition()
	if err != nil {
		t.Fatalf("LoadPosition: %v", err)
	}
	if p != (Position{X: 120, Y: 640}) {
		t.Errorf("LoadPosition = %+v", p)
	}
}

func TestJSONStore_FilePermissions(t *testing.T) {
	s := openJSONStore(t)
	if err := s.SaveProfile(map[string]string{"name": "Anna"}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	info, err := os.Stat(filepath.Join(s.Dir(), profileFile))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("profile file mode = %o, want 600", perm)
	}
}

func TestJSONStore_CorruptFileIsAnError(t *testing.T) {
	s := openJSONStore(t)
	if err := os.WriteFile(filepath.Join(s.Dir(), memoryFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadMemory(); err == nil {
		t.Error("expected parse error for corrupt memory file")
	}
}

func TestOpen_Drivers(t *testing.T) {
	dir := t.TempDir()

	js, err := Open(DriverJSON, dir)
	if err != nil {
		t.Fatalf("Open(json): %v", err)
	}
	if _, ok := js.(*JSONStore); !ok {
		t.Errorf("Open(json) = %T", js)
	}

	sq, err := Open(DriverSQLite, dir)
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer sq.Close()
	if _, ok := sq.(InteractionStore); !ok {
		t.Errorf("Open(sqlite) = %T, want an InteractionStore", sq)
	}

	if _, err := Open("bolt", dir); err == nil {
		t.Error("expected error for unknown driver")
	}
}
