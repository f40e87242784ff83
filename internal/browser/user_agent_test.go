package browser

import "testing"

func TestNormalizeDesktopUserAgent(t *testing.T) {
	desktop := "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty falls back", "", defaultDesktopUserAgent},
		{"whitespace falls back", "   ", defaultDesktopUserAgent},
		{"desktop kept", desktop, desktop},
		{"mobile rejected", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", defaultDesktopUserAgent},
		{"android rejected", "Mozilla/5.0 (Linux; Android 14) Chrome/130.0.0.0", defaultDesktopUserAgent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeDesktopUserAgent(tc.in); got != tc.want {
				t.Fatalf("NormalizeDesktopUserAgent(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
