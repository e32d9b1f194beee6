package version

import "testing"

func TestInfo(t *testing.T) {
	SetService("")
	if got := Info(); got.Service != "transitplan" || got.Version != "dev" {
		t.Fatalf("Info = %+v", got)
	}
	SetService("transitplan-plan")
	defer SetService("transitplan")
	if got := Info().Service; got != "transitplan-plan" {
		t.Fatalf("Service = %q", got)
	}
}
