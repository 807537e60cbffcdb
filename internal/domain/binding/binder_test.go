package binding

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBindPrefersRecordValue(t *testing.T) {
	b := NewBinder(NewMemoryStore(), nil)

	got := b.Bind(Scope{FormID: "f", NodeID: 1, Key: "value", RecordID: "7", RecordValue: "X", HasRecord: true}, "Y")
	if got != "X" {
		t.Errorf("with record: got %q, want %q", got, "X")
	}

	got = b.Bind(Scope{FormID: "f", NodeID: 2, Key: "value"}, "Y")
	if got != "Y" {
		t.Errorf("without record: got %q, want %q", got, "Y")
	}
}

func TestBindKeepsLiveEditAcrossRerenders(t *testing.T) {
	b := NewBinder(NewMemoryStore(), nil)
	scope := Scope{FormID: "f", NodeID: 1, Key: "value", RecordID: "7", RecordValue: "X", HasRecord: true}

	b.Bind(scope, "Y")
	if err := b.Edit("f", 1, "value", "edited"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if got := b.Bind(scope, "Y"); got != "edited" {
			t.Fatalf("render %d: got %q, want %q", i, got, "edited")
		}
	}
}

func TestBindReinitialisesOnRecordChange(t *testing.T) {
	b := NewBinder(NewMemoryStore(), nil)

	b.Bind(Scope{FormID: "f", NodeID: 1, Key: "value"}, "new")
	b.Edit("f", 1, "value", "typed")

	got := b.Bind(Scope{FormID: "f", NodeID: 1, Key: "value", RecordID: "7", RecordValue: "from record 7", HasRecord: true}, "new")
	if got != "from record 7" {
		t.Errorf("got %q, want record value after identity change", got)
	}
}

func TestEditBeforeFirstRenderAdoptsRecord(t *testing.T) {
	b := NewBinder(NewMemoryStore(), nil)
	b.Edit("f", 3, "value", "early")

	scope := Scope{FormID: "f", NodeID: 3, Key: "value", RecordID: "9", RecordValue: "rec", HasRecord: true}
	if got := b.Bind(scope, "d"); got != "early" {
		t.Errorf("got %q, want early edit", got)
	}
	if got := b.Bind(scope, "d"); got != "early" {
		t.Errorf("second bind: got %q", got)
	}
}

func TestFormsAreIsolated(t *testing.T) {
	b := NewBinder(NewMemoryStore(), nil)
	b.Bind(Scope{FormID: "a", NodeID: 1, Key: "value"}, "d")
	b.Edit("a", 1, "value", "only-a")

	if got := b.Bind(Scope{FormID: "b", NodeID: 1, Key: "value"}, "d"); got != "d" {
		t.Errorf("form b saw %q", got)
	}
	if err := b.Forget("a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Current("a", 1, "value"); ok {
		t.Error("forgotten form still has state")
	}
}

func TestPurgeExpiredDropsIdleForms(t *testing.T) {
	store := NewMemoryStore()
	b := NewBinder(store, nil)
	base := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base.Add(-2 * time.Hour) }
	b.Bind(Scope{FormID: "abandoned", NodeID: 1, Key: "value"}, "x")
	store.now = func() time.Time { return base.Add(-time.Minute) }
	b.Bind(Scope{FormID: "active", NodeID: 1, Key: "value"}, "y")
	b.Touch("viewed")
	b.now = func() time.Time { return base }

	if got := b.PurgeExpired(); got != 0 {
		t.Fatalf("purge without ttl dropped %d forms", got)
	}
	b.SetIdleTTL(time.Hour)
	if got := b.PurgeExpired(); got != 1 {
		t.Fatalf("PurgeExpired = %d, want 1", got)
	}
	if _, ok := b.Current("abandoned", 1, "value"); ok {
		t.Error("idle form kept its state")
	}
	if got, ok := b.Current("active", 1, "value"); !ok || got != "y" {
		t.Errorf("active form = %q %v", got, ok)
	}
	if got := store.FormCount(); got != 1 {
		t.Errorf("FormCount = %d, want 1", got)
	}

	// Editing counts as use.
	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	b.Edit("active", 1, "value", "z")
	b.now = func() time.Time { return base.Add(150 * time.Minute) }
	b.PurgeExpired()
	if got, ok := b.Current("active", 1, "value"); !ok || got != "z" {
		t.Errorf("edited form purged: %q %v", got, ok)
	}
}

func TestToggle(t *testing.T) {
	tests := []struct {
		raw, on, off, want string
	}{
		{"1", "1", "", "1"},
		{"", "1", "", ""},
		{"true", "1", "0", "1"},
		{"false", "1", "0", "0"},
		{"yes", "Y", "N", "Y"},
		{"N", "Y", "N", "N"},
		{"garbage", "1", "0", "0"},
	}
	for _, tt := range tests {
		if got := Toggle(tt.raw, tt.on, tt.off); got != tt.want {
			t.Errorf("Toggle(%q, %q, %q) = %q, want %q", tt.raw, tt.on, tt.off, got, tt.want)
		}
	}
}

func TestToggleNeverProducesThirdValue(t *testing.T) {
	on, off := "on-value", "off-value"
	for _, raw := range []string{"", "1", "0", "true", "false", on, off, "x", "null"} {
		got := Toggle(raw, on, off)
		if got != on && got != off {
			t.Errorf("Toggle(%q) = %q", raw, got)
		}
	}
}

func TestJoinAndSplitValues(t *testing.T) {
	joined := JoinValues([]string{"a", " ", "b", "c "}, "")
	if joined != "a b c" {
		t.Errorf("JoinValues = %q", joined)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, SplitValues("a  b c", "")); diff != "" {
		t.Errorf("SplitValues (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x y", "z"}, SplitValues("x y,z", ",")); diff != "" {
		t.Errorf("SplitValues with comma (-want +got):\n%s", diff)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{nil, "", false},
		{"s", "s", true},
		{float64(3), "3", true},
		{2.5, "2.5", true},
		{true, "true", true},
		{[]any{"a", float64(1), nil}, "a 1", true},
	}
	for _, tt := range tests {
		got, ok := Stringify(tt.in, "")
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Stringify(%#v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCanonicalFormats(t *testing.T) {
	if got := CanonicalDate("2024-03-05T10:11:12Z"); got != "2024-03-05" {
		t.Errorf("CanonicalDate = %q", got)
	}
	if got := CanonicalDate("not a date"); got != "" {
		t.Errorf("CanonicalDate(invalid) = %q", got)
	}
	if got := CanonicalTime("9:30 PM"); got != "21:30" {
		t.Errorf("CanonicalTime = %q", got)
	}
	if got := CanonicalDateTime("2024-03-05 10:11"); got != "2024-03-05T10:11" {
		t.Errorf("CanonicalDateTime = %q", got)
	}
	if got := CanonicalColor("#ABC", "#000000"); got != "#aabbcc" {
		t.Errorf("CanonicalColor = %q", got)
	}
	if got := CanonicalColor("zzz", "#000000"); got != "#000000" {
		t.Errorf("CanonicalColor(invalid) = %q", got)
	}
	if got := ClampNumber("7.4", 0, 5, 1, 0); got != 5 {
		t.Errorf("ClampNumber = %v", got)
	}
	if got := ClampNumber("2.6", 0, 5, 1, 0); got != 3 {
		t.Errorf("ClampNumber snap = %v", got)
	}
	if got := FormatNumber(ClampNumber("0.3", 0, 1, 0.1, 0)); got != "0.3" {
		t.Errorf("ClampNumber fractional step = %s, want 0.3", got)
	}
	if got := FormatNumber(ClampNumber("0.74", 0.05, 1, 0.1, 0)); got != "0.75" {
		t.Errorf("ClampNumber fractional min = %s, want 0.75", got)
	}
}

func TestTranslationsRoundTrip(t *testing.T) {
	encoded := EncodeTranslations([]string{"en", "fr"}, map[string]string{"en": "Hello"})
	want := `[{"language_id":"en","value":"Hello"},{"language_id":"fr","value":""}]`
	if encoded != want {
		t.Fatalf("EncodeTranslations = %s", encoded)
	}

	decoded, ok := DecodeTranslations(encoded)
	if !ok {
		t.Fatal("DecodeTranslations failed")
	}
	if diff := cmp.Diff(map[string]string{"en": "Hello", "fr": ""}, decoded); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	fromObject, ok := DecodeTranslations(map[string]any{"de": "Hallo"})
	if !ok || fromObject["de"] != "Hallo" {
		t.Errorf("object form: %v %v", fromObject, ok)
	}
	if _, ok := DecodeTranslations("plain text"); ok {
		t.Error("plain text decoded as translations")
	}
}
