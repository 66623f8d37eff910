package fingerprint

import "testing"

func TestEntryDisplayName(t *testing.T) {
	withComment := Entry{Stem: "photo1", SourcePath: "/archive/2019/photo1.jpg"}
	if got := withComment.DisplayName(); got != "/archive/2019/photo1.jpg" {
		t.Errorf("DisplayName = %q; want the stored source path", got)
	}

	withoutComment := Entry{Stem: "photo1"}
	if got := withoutComment.DisplayName(); got != "photo1" {
		t.Errorf("DisplayName = %q; want the stem", got)
	}
}
