package buildinfo

import (
	"strings"
	"testing"
)

func TestCachePrefix(t *testing.T) {
	oldV, oldC := Version, Commit
	defer func() { Version, Commit = oldV, oldC }()

	tests := []struct {
		version, commit, want string
	}{
		{"v1.2.0", "abcdef0123", "v1.2.0:"},
		{"dev", "abcdef0123", "dev-abcdef0:"},
		{"dev", "none", "dev-none:"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := CachePrefix(); got != tt.want {
			t.Errorf("CachePrefix() with %s/%s = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}

func TestTemplate(t *testing.T) {
	if !strings.HasPrefix(Template(), "{{.Name}} version ") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "commit: ") {
		t.Errorf("String() = %q", String())
	}
}
