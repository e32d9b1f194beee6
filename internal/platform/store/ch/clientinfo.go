package ch

import (
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"transitplan/internal/core/version"
)

// BuildClientInfo names this process in system.query_log
// role is the binary's part in planning (api or plan); app is the binary name
func BuildClientInfo(role, app string) clickhouse.ClientInfo {
	b := version.Info()
	host, _ := os.Hostname()
	or := func(s string) string {
		if s = strings.TrimSpace(s); s == "" {
			return "unknown"
		}
		return s
	}
	return clickhouse.ClientInfo{Products: []struct{ Name, Version string }{
		{Name: or(app), Version: or(b.Version)},
		{Name: "role", Version: or(role)},
		{Name: "commit", Version: or(b.Commit)},
		{Name: "host", Version: or(host)},
	}}
}
