package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	creds, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if creds.APIKey != "" || creds.ReplicaID != "" || creds.PersonaID != "" {
		t.Errorf("expected zero-value credentials, got %+v", creds)
	}
	if creds.Complete() {
		t.Error("zero-value credentials should not be complete")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	want := &Credentials{
		ReplicaID: "r-abc123",
		PersonaID: "p-def456",
		APIKey:    "key-789",
	}
	if err := Save(dir, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *want {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, want)
	}
	if !got.Complete() {
		t.Error("saved credentials should be complete")
	}

	info, err := os.Stat(filepath.Join(dir, credentialsFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credentials file mode = %o, want 0600", info.Mode().Perm())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, &Credentials{ReplicaID: "r-file", PersonaID: "p-file", APIKey: "key-file"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Setenv("PARLEY_API_KEY", "key-env")
	t.Setenv("PARLEY_REPLICA_ID", "r-env")

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.APIKey != "key-env" {
		t.Errorf("api key = %q, want env override", got.APIKey)
	}
	if got.ReplicaID != "r-env" {
		t.Errorf("replica id = %q, want env override", got.ReplicaID)
	}
	if got.PersonaID != "p-file" {
		t.Errorf("persona id = %q, want file value", got.PersonaID)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, credentialsFile), []byte("{not yaml: ["), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for corrupt credentials file")
	}
}
