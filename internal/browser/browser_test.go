package browser

import (
	"path/filepath"
	"testing"
)

func TestCommandRejectsUnsafeURLs(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/post", false},
		{"http://example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
	}

	for _, tt := range tests {
		_, err := command("linux", tt.url)
		if tt.wantErr && err == nil {
			t.Errorf("command(%q): expected error, got nil", tt.url)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("command(%q): unexpected error: %v", tt.url, err)
		}
	}
}

func TestCommandPerPlatform(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"windows", "rundll32"},
	}
	for _, tt := range tests {
		cmd, err := command(tt.goos, "https://example.com")
		if err != nil {
			t.Fatalf("command(%s): %v", tt.goos, err)
		}
		if got := filepath.Base(cmd.Args[0]); got != tt.want {
			t.Errorf("command(%s) runs %q, want %q", tt.goos, got, tt.want)
		}
		if last := cmd.Args[len(cmd.Args)-1]; last != "https://example.com" {
			t.Errorf("command(%s) last arg = %q, want the URL", tt.goos, last)
		}
	}
}
