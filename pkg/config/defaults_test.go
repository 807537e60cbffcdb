package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LANGUAGES", "en, fr ,,de")
	t.Setenv("OPTION_FETCH_TIMEOUT", "250ms")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("FORM_TOKEN_TTL", "2h")
	t.Setenv("FORM_STATE_TTL", "")
	t.Cleanup(Load)

	Load()

	if Port != "9090" {
		t.Errorf("Port = %q", Port)
	}
	if diff := cmp.Diff([]string{"en", "fr", "de"}, Languages); diff != "" {
		t.Errorf("Languages mismatch (-want +got):\n%s", diff)
	}
	if OptionFetchTimeout != 250*time.Millisecond {
		t.Errorf("OptionFetchTimeout = %v", OptionFetchTimeout)
	}
	if !LogToFile {
		t.Error("LogToFile not overridden")
	}
	if FormStateTTL != 2*time.Hour {
		t.Errorf("FormStateTTL = %v, want the token ttl", FormStateTTL)
	}
	if DBMaxOpenConns != 10 {
		t.Errorf("invalid int should keep the default, got %d", DBMaxOpenConns)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ASSET_BASE_URL", "FORM_TOKEN_TTL", "ADMIN_TOKEN"} {
		t.Setenv(key, "")
	}
	Load()

	if Port != "8080" || AssetBaseURL != "/media" || FormTokenTTL != 24*time.Hour {
		t.Errorf("defaults = %q %q %v", Port, AssetBaseURL, FormTokenTTL)
	}
	if AdminToken != "" {
		t.Errorf("AdminToken = %q, want empty", AdminToken)
	}
}
