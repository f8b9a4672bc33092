package utils

import "testing"

func TestParseDisposableList(t *testing.T) {
	body := "# comment\nmailinator.com\n  TempMail.NET  \n\n10minutemail.com\n"
	set := ParseDisposableList(body)

	if len(set) != 3 {
		t.Fatalf("got %d domains, want 3", len(set))
	}
	for _, domain := range []string{"mailinator.com", "tempmail.net", "10minutemail.com"} {
		if _, ok := set[domain]; !ok {
			t.Errorf("missing %q", domain)
		}
	}
}

func TestParseRoleList(t *testing.T) {
	set, err := ParseRoleList([]byte(`["admin", "Sales", " info ", ""]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("got %d entries, want 3", len(set))
	}
	for _, local := range []string{"admin", "sales", "info"} {
		if _, ok := set[local]; !ok {
			t.Errorf("missing %q", local)
		}
	}
}

func TestParseRoleListRejectsGarbage(t *testing.T) {
	if _, err := ParseRoleList([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed feed")
	}
}

func TestParseTypoList(t *testing.T) {
	body := "gamil.com: gmail.com\nhotnail.com:hotmail.com\nmalformed line\n:\n"
	mapping := ParseTypoList(body)

	if len(mapping) != 2 {
		t.Fatalf("got %d entries, want 2", len(mapping))
	}
	if mapping["gamil.com"] != "gmail.com" {
		t.Errorf("gamil.com maps to %q", mapping["gamil.com"])
	}
	if mapping["hotnail.com"] != "hotmail.com" {
		t.Errorf("hotnail.com maps to %q", mapping["hotnail.com"])
	}
}

func TestListFeedServesDefaultsBeforeRefresh(t *testing.T) {
	feed := NewListFeed(ListFeedConfig{}, nil)

	lists := feed.Lists()
	if _, ok := lists.Disposable["mailinator.com"]; !ok {
		t.Error("feed without a refresh does not serve the built-in disposable list")
	}
}

func TestListFeedRefreshFailureKeepsPrevious(t *testing.T) {
	// No URLs configured: every fetch fails, nothing is replaced.
	feed := NewListFeed(ListFeedConfig{}, nil)
	before := feed.Lists()

	if err := feed.Refresh(); err == nil {
		t.Fatal("expected error when every feed is unavailable")
	}

	after := feed.Lists()
	if len(after.Disposable) != len(before.Disposable) || len(after.Role) != len(before.Role) {
		t.Error("failed refresh replaced the served lists")
	}
}
