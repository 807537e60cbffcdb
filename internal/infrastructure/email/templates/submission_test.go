package templates

import (
	"strings"
	"testing"
)

func TestSubmissionEmailContent(t *testing.T) {
	out := GetSubmissionEmailContent(SubmissionEmailProps{
		PageTitle:    "Contact",
		SubmissionID: "01H",
		Values: map[string][]string{
			"name":     {"<Ada>"},
			"tags":     {"a", "b"},
			"secret":   {"hunter2"},
			"_st_form": {"f1"},
		},
		Redacted: map[string]bool{"secret": true},
	})

	for _, want := range []string{"New submission on Contact", "&lt;Ada&gt;", "a, b", "(hidden)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"hunter2", "_st_form"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("leaked %q in:\n%s", unwanted, out)
		}
	}
	if strings.Index(out, ">name<") > strings.Index(out, ">tags<") {
		t.Error("fields not in name order")
	}

	page := GetEmailLayout(EmailLayoutProps{Content: out})
	if !strings.Contains(page, "&lt;Ada&gt;") || !strings.Contains(page, "Sent by styletree") {
		t.Error("layout did not embed content")
	}
}
