package main

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestBackupRestoreRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dataDir, "kb"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"agora.db":             "not a real database",
		"kb/knowledge_base.txt": "CATEGORY: Hardware\nTITLE: test\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	archive := filepath.Join(t.TempDir(), "backup.tar.zst")
	if err := writeArchive(dataDir, archive); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	restoreDir := t.TempDir()
	if err := restoreArchive(archive, restoreDir); err != nil {
		t.Fatalf("restore archive: %v", err)
	}

	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(restoreDir, name))
		if err != nil {
			t.Fatalf("read restored %s: %v", name, err)
		}
		if string(got) != content {
			t.Errorf("restored %s = %q, want %q", name, got, content)
		}
	}
}

func TestRestoreSkipsEscapingPaths(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.tar.zst")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	tw := tar.NewWriter(zw)
	entries := map[string]string{
		"../escape.txt": "outside",
		"ok.txt":        "fine",
	}
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("header %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zstd: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	restoreDir := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(restoreDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := restoreArchive(archive, restoreDir); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := os.Stat(filepath.Join(restoreDir, "ok.txt")); err != nil {
		t.Errorf("expected ok.txt restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(restoreDir), "escape.txt")); !os.IsNotExist(err) {
		t.Errorf("traversal entry escaped the data directory")
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 << 20, "3.0 MiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatSize(tc.size); got != tc.want {
			t.Errorf("formatSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}
