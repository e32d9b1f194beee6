package config

import (
	"reflect"
	"testing"
	"time"

	kit "transitplan/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	c := New().Prefix("SERVICE_").Prefix("PGSQL_")
	if got := c.Key("DBURL"); got != "SERVICE_PGSQL_DBURL" {
		t.Fatalf("Key = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("CFGT_")
	t.Setenv("CFGT_DBURL", "  postgres://x  ")
	t.Setenv("CFGT_BLANK", "   ")

	if got := c.MustString("DBURL"); got != "postgres://x" {
		t.Fatalf("MustString = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("BLANK") })
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMayValues(t *testing.T) {
	c := New().Prefix("PLANNING_")
	t.Setenv("PLANNING_HEARTBEAT", "5s")
	t.Setenv("PLANNING_TIMEOUT", "soon")
	t.Setenv("PLANNING_AUDIT", "false")
	t.Setenv("PLANNING_METRICS", "maybe")
	t.Setenv("PLANNING_MAX_CONNS", "12")
	t.Setenv("PLANNING_BAD_INT", "twelve")
	t.Setenv("PLANNING_NAME", "nightly")

	if got := c.MayDuration("HEARTBEAT", time.Second); got != 5*time.Second {
		t.Fatalf("heartbeat = %v", got)
	}
	if got := c.MayDuration("TIMEOUT", 30*time.Second); got != 30*time.Second {
		t.Fatalf("bad duration should fall back, got %v", got)
	}
	if c.MayBool("AUDIT", true) {
		t.Fatalf("audit should be false")
	}
	if !c.MayBool("METRICS", true) {
		t.Fatalf("bad bool should fall back to true")
	}
	if got := c.MayInt("MAX_CONNS", 4); got != 12 {
		t.Fatalf("max conns = %d", got)
	}
	if got := c.MayInt("BAD_INT", 4); got != 4 {
		t.Fatalf("bad int should fall back, got %d", got)
	}
	if got := c.MayString("NAME", "x"); got != "nightly" {
		t.Fatalf("name = %q", got)
	}
	if got := c.MayString("UNSET", "x"); got != "x" {
		t.Fatalf("unset = %q", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("PLANNING_")
	t.Setenv("PLANNING_DISABLED_FILTERS", " one-duty-per-day , ,time-overlap,")
	t.Setenv("PLANNING_EMPTY", " , ")

	got := c.MayCSV("DISABLED_FILTERS", nil)
	if want := []string{"one-duty-per-day", "time-overlap"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("csv = %v", got)
	}
	def := []string{"a"}
	if got := c.MayCSV("EMPTY", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("blank items should fall back, got %v", got)
	}
	if got := c.MayCSV("UNSET", nil); got != nil {
		t.Fatalf("unset = %v", got)
	}
}
