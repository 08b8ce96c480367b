package s3

import "testing"

func TestSplitEndpoint(t *testing.T) {
	cases := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"minio:9000", false, "minio:9000", false},
		{"minio:9000", true, "minio:9000", true},
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"  ", false, "", false},
	}
	for _, tc := range cases {
		host, secure := splitEndpoint(tc.raw, tc.useSSL)
		if host != tc.wantHost || secure != tc.wantSecure {
			t.Fatalf("splitEndpoint(%q, %v) = %q,%v want %q,%v", tc.raw, tc.useSSL, host, secure, tc.wantHost, tc.wantSecure)
		}
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
