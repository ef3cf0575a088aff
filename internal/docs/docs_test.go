package docs

import (
	"reflect"
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	t.Parallel()

	want := []string{"api", "config", "export", "keys"}
	if got := Topics(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Topics() = %#v; want %#v", got, want)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	body, ok := Get(" Keys ")
	if !ok || !strings.HasPrefix(body, "# TUI keys") {
		t.Fatalf("Get(keys) = %q, %v", body, ok)
	}
	for _, bad := range []string{"", "nope", "../docs", "keys.md"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("Get(%q) should fail", bad)
		}
	}
}
