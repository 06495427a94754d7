package autofill

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

// getCICompatibleChromeOptions returns Chrome allocator options that work in CI environments.
func getCICompatibleChromeOptions() []chromedp.ExecAllocatorOption {
	options := []chromedp.ExecAllocatorOption{}

	// Add CI-specific options when running in CI environment
	if os.Getenv("CI") == "true" {
		options = append(options,
			chromedp.NoSandbox,
			chromedp.NoFirstRun,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-default-apps", true),
		)
	}
	return options
}

// getCIMinTimeout stretches short timeouts on slow CI machines.
func getCIMinTimeout(requested time.Duration) time.Duration {
	const ciMinimum = 90 * time.Second
	if requested == 0 || os.Getenv("CI") != "true" || requested >= ciMinimum {
		return requested
	}
	return ciMinimum
}

func newTestChromeOptions(t *testing.T, timeout time.Duration) NewChromeOptions {
	t.Helper()
	return NewChromeOptions{
		Headless:    true,
		Timeout:     getCIMinTimeout(timeout),
		UserDataDir: filepath.Join(t.TempDir(), "chromeUserData"),
		Flags:       getCICompatibleChromeOptions(),
	}
}

// requireChrome skips the test when no Chrome binary is installed.
func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	if _, err := os.Stat("/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"); err == nil {
		return
	}
	t.Skip("chrome is not installed")
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "autofill.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustStaticDocument(t *testing.T, markup string) *StaticDocument {
	t.Helper()
	doc, err := NewStaticDocument(markup)
	if err != nil {
		t.Fatalf("NewStaticDocument() error: %v", err)
	}
	return doc
}

func mustProfile(t *testing.T, p Provider) ProviderProfile {
	t.Helper()
	profile, err := Profile(p)
	if err != nil {
		t.Fatalf("Profile(%v) error: %v", p, err)
	}
	return profile
}

func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestGetCIMinTimeout(t *testing.T) {
	tests := []struct {
		name      string
		ciValue   string
		requested time.Duration
		want      time.Duration
	}{
		{
			name:      "local environment keeps requested timeout",
			ciValue:   "",
			requested: 30 * time.Second,
			want:      30 * time.Second,
		},
		{
			name:      "CI enforces minimum timeout",
			ciValue:   "true",
			requested: 10 * time.Second,
			want:      90 * time.Second,
		},
		{
			name:      "CI keeps longer timeout unchanged",
			ciValue:   "true",
			requested: 2 * time.Minute,
			want:      2 * time.Minute,
		},
		{
			name:      "zero timeout stays zero in CI",
			ciValue:   "true",
			requested: 0,
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCIEnv(t, tt.ciValue)
			if got := getCIMinTimeout(tt.requested); got != tt.want {
				t.Fatalf("getCIMinTimeout(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}

func setCIEnv(t *testing.T, value string) {
	t.Helper()
	const key = "CI"

	original, had := os.LookupEnv(key)
	if value == "" {
		_ = os.Unsetenv(key)
	} else {
		_ = os.Setenv(key, value)
	}

	t.Cleanup(func() {
		if !had {
			_ = os.Unsetenv(key)
			return
		}
		_ = os.Setenv(key, original)
	})
}
