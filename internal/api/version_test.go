package api

import (
	"strings"
	"testing"
)

func TestParseServerVersion(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		want      string
		wantMin   string
		wantError bool
	}{
		{"version only", `version="1.2.0"`, "1.2.0", "", false},
		{"with min client", `version="1.2.0";x=1, min_client="1.0.0"`, "1.2.0", "1.0.0", false},
		{"empty", "", "", "", true},
		{"missing version key", `other="1.0"`, "", "", true},
		{"not a dictionary", "?!bad", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServerVersion(tt.header)
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error for %q", tt.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServerVersion(%q): %v", tt.header, err)
			}
			if got.Version != tt.want {
				t.Errorf("Version = %q, want %q", got.Version, tt.want)
			}
			if got.MinClient != tt.wantMin {
				t.Errorf("MinClient = %q, want %q", got.MinClient, tt.wantMin)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name           string
		server, min    string
		want           bool
	}{
		{"equal", "1.0.0", "1.0.0", true},
		{"server newer", "1.2.0", "1.0.0", true},
		{"server older", "0.9.0", "1.0.0", false},
		{"v-prefixed server", "v1.2.0", "1.0.0", true},
		{"non-semver equal", "2026-01", "2026-01", true},
		{"non-semver mismatch", "2026-01", "2026-02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compatible(tt.server, tt.min); got != tt.want {
				t.Errorf("Compatible(%q, %q) = %v, want %v", tt.server, tt.min, got, tt.want)
			}
		})
	}
}

func TestBuildSyncMeta(t *testing.T) {
	header, err := BuildSyncMeta("req-123", "1.0.0")
	if err != nil {
		t.Fatalf("BuildSyncMeta: %v", err)
	}
	if !strings.Contains(header, `req="req-123"`) {
		t.Errorf("header %q missing request id member", header)
	}
	if !strings.Contains(header, `client="1.0.0"`) {
		t.Errorf("header %q missing client version member", header)
	}
}
