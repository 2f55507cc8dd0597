package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllowedExtension(t *testing.T) {
	cases := []struct {
		name  string
		allow bool
	}{
		{name: "proposal.pdf", allow: true},
		{name: "proposal.PDF", allow: true},
		{name: "writeup.doc", allow: true},
		{name: "writeup.docx", allow: true},
		{name: "payload.exe", allow: false},
		{name: "archive.zip", allow: false},
		{name: "noextension", allow: false},
	}
	for _, tc := range cases {
		if got := AllowedExtension(tc.name); got != tc.allow {
			t.Fatalf("AllowedExtension(%q) = %v, want %v", tc.name, got, tc.allow)
		}
	}
}

func TestLocalStoreWritesFileAndReturnsReference(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	if !svc.ServesLocal() {
		t.Fatal("expected local mode")
	}

	stored, err := svc.Store(context.Background(), "proposal.pdf", strings.NewReader("%PDF-1.4 fake"), 13)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if stored.Name != "proposal.pdf" {
		t.Fatalf("original name lost: %q", stored.Name)
	}
	if stored.MediaType != "application/pdf" {
		t.Fatalf("unexpected media type: %q", stored.MediaType)
	}
	if !strings.HasPrefix(stored.URL, "/uploads/att_") || !strings.HasSuffix(stored.URL, ".pdf") {
		t.Fatalf("unexpected URL shape: %q", stored.URL)
	}

	onDisk := filepath.Join(dir, strings.TrimPrefix(stored.URL, "/uploads/"))
	contents, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(contents) != "%PDF-1.4 fake" {
		t.Fatalf("stored contents mismatch: %q", contents)
	}
}

func TestStoreRejectsDisallowedType(t *testing.T) {
	svc, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	if _, err := svc.Store(context.Background(), "malware.exe", strings.NewReader("nope"), 4); err == nil {
		t.Fatal("expected unsupported type error")
	}
}
