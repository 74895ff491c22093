package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tjfontaine/edge-content-gateway/internal/pipeline"
)

func TestThreatGuard(t *testing.T) {
	g := NewThreatGuard("X-Threat-Score", DefaultThreatScoreMax, nil)

	tests := []struct {
		name    string
		score   string
		blocked bool
	}{
		{"no header", "", false},
		{"at threshold", "5", false},
		{"above threshold", "6", true},
		{"not a number", "high", false},
		{"padded", " 42 ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/shoes", nil)
			if tt.score != "" {
				r.Header.Set("X-Threat-Score", tt.score)
			}

			res, err := g.Intercept(r.Context(), r)
			if err != nil {
				t.Fatalf("Intercept() error = %v", err)
			}
			blocked := res.Action == pipeline.ActionShortCircuit
			if blocked != tt.blocked {
				t.Fatalf("blocked = %v, want %v", blocked, tt.blocked)
			}
			if blocked {
				if res.Response.Status != http.StatusForbidden {
					t.Errorf("Status = %d, want 403", res.Response.Status)
				}
				if res.Response.Header.Get("X-Threat-Blocked") != "true" {
					t.Error("expected X-Threat-Blocked header")
				}
			}
		})
	}
}

func TestNewThreatGuard_Disabled(t *testing.T) {
	if g := NewThreatGuard("", 5, nil); g != nil {
		t.Errorf("NewThreatGuard(\"\") = %v, want nil", g)
	}
}
