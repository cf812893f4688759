package uploads

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/config"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewStore(config.UploadsConfig{Root: t.TempDir(), MaxMB: 1})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestSaveAndOpen(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save("dlv_1", "screenshot.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if !strings.HasPrefix(rel, "dlv_1/") {
		t.Errorf("Expected per-deliverable subdir, got %q", rel)
	}
	if strings.Contains(rel, "screenshot") {
		t.Errorf("Stored name must not echo the client filename, got %q", rel)
	}

	f, err := store.Open(rel)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if buf.String() != "png-bytes" {
		t.Errorf("Content mismatch: %q", buf.String())
	}
}

func TestSave_Validation(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name     string
		fileName string
		mime     string
	}{
		{"Bad Mime", "notes.txt", "text/plain"},
		{"Bad Extension", "clip.mov", "video/mp4"},
		{"Mime Extension Mismatch", "script.sh", "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save("dlv_1", tt.fileName, tt.mime, strings.NewReader("x"))
			if !stderrors.Is(err, errors.ErrInvalidStatus) {
				t.Fatalf("Expected rejection, got %v", err)
			}
		})
	}
}

func TestSave_TooLarge(t *testing.T) {
	store := newTestStore(t)

	big := bytes.Repeat([]byte("a"), int(store.MaxBytes())+1)
	_, err := store.Save("dlv_1", "big.png", "image/png", bytes.NewReader(big))
	if !stderrors.Is(err, errors.ErrPayloadTooLarge) {
		t.Fatalf("Expected payload too large, got %v", err)
	}
}

func TestOpen_TraversalRejected(t *testing.T) {
	store := newTestStore(t)

	for _, rel := range []string{"../outside.txt", "dlv_1/../../etc/passwd"} {
		if _, err := store.Open(rel); !stderrors.Is(err, errors.ErrNotFound) {
			t.Errorf("Expected not found for %q, got %v", rel, err)
		}
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../evil.pdf", "evil.pdf"},
		{"C:\\Users\\x\\evil.pdf", "evil.pdf"},
		{"", "proof"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
