package safehttp

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsPrivate(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"192.168.0.10", true},
		{"169.254.169.254", true},
		{"::1", true},
		{"0.0.0.0", true},
		{"8.8.8.8", false},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := IsPrivate(net.ParseIP(tt.ip)); got != tt.want {
				t.Errorf("IsPrivate(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestNewTransport_BlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	blocked := &http.Client{Transport: NewTransport(Options{BlockPrivateNetworks: true})}
	if resp, err := blocked.Get(srv.URL); err == nil {
		resp.Body.Close()
		t.Fatal("expected loopback request to be refused")
	}

	open := &http.Client{Transport: NewTransport(Options{})}
	resp, err := open.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
