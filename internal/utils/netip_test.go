package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "10.0.0.5:4242", want: "10.0.0.5"},
		{name: "ipv6 remote addr", remote: "[::1]:4242", want: "::1"},
		{
			name:    "proxy headers ignored when untrusted",
			remote:  "10.0.0.5:4242",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "10.0.0.5",
		},
		{
			name:       "first forwarded for",
			remote:     "127.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8"},
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:   "cloudflare header wins",
			remote: "127.0.0.1:80",
			headers: map[string]string{
				"CF-Connecting-IP": "9.9.9.9",
				"X-Forwarded-For":  "1.2.3.4",
			},
			trustProxy: true,
			want:       "9.9.9.9",
		},
		{
			name:       "real ip fallback",
			remote:     "127.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "8.8.8.8"},
			trustProxy: true,
			want:       "8.8.8.8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m, invalid := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.4 ", "", "not-an-ip", "fd00::/8"})
	if len(invalid) != 1 || invalid[0] != "not-an-ip" {
		t.Errorf("invalid = %v, want [not-an-ip]", invalid)
	}

	tests := map[string]bool{
		"10.1.2.3":        true,
		"192.168.1.4":     true,
		"192.168.1.5":     false,
		"::ffff:10.9.9.9": true,
		"fd00::1":         true,
		"2001:db8::1":     false,
		"garbage":         false,
	}
	for ip, want := range tests {
		if got := m.Allow(ip); got != want {
			t.Errorf("Allow(%q) = %v, want %v", ip, got, want)
		}
	}

	empty, _ := NewIPMatcher(nil)
	if !empty.IsEmpty() {
		t.Error("NewIPMatcher(nil).IsEmpty() = false")
	}
}
