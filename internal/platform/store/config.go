package store

import (
	"time"

	"transitplan/internal/platform/config"
)

// Config selects and configures the backends Open connects
type Config struct {
	AppName string

	PG  PGConfig
	CH  CHConfig
	RDS RedisConfig
}

// PGConfig configures postgres
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
	LogSQL   bool
	Slow     time.Duration

	// ConnectAttempts bounds the startup ping loop; 0 uses pg.DefaultRetry
	ConnectAttempts int
}

// CHConfig configures the clickhouse audit sink
type CHConfig struct {
	Enabled bool
	URL     string

	// Role is reported to the server as client info, e.g. api or plan
	Role string
}

// RedisConfig configures the submission guard backend
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// FromEnv reads backend settings; clickhouse and redis are enabled by setting their address
//
//	SERVICE_PGSQL_DBURL        postgres url, required
//	SERVICE_PGSQL_MAX_CONNS    pool size (8)
//	SERVICE_PGSQL_LOG_SQL      trace every statement (false)
//	SERVICE_PGSQL_SLOW         slow statement threshold (500ms)
//	SERVICE_PGSQL_CONNECT_ATTEMPTS  startup pings (20)
//	SERVICE_CLICKHOUSE_DBURL   clickhouse dsn, optional
//	SERVICE_REDIS_ADDR         redis host:port, optional
//	SERVICE_REDIS_PASSWORD, SERVICE_REDIS_DB
func FromEnv(root config.Conf, app, role string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	rds := root.Prefix("SERVICE_REDIS_")

	chURL := ch.MayString("DBURL", "")
	rdsAddr := rds.MayString("ADDR", "")
	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:         true,
			URL:             pg.MustString("DBURL"),
			MaxConns:        int32(pg.MayInt("MAX_CONNS", 8)),
			LogSQL:          pg.MayBool("LOG_SQL", false),
			Slow:            pg.MayDuration("SLOW", 500*time.Millisecond),
			ConnectAttempts: pg.MayInt("CONNECT_ATTEMPTS", 20),
		},
		CH: CHConfig{Enabled: chURL != "", URL: chURL, Role: role},
		RDS: RedisConfig{
			Enabled:  rdsAddr != "",
			Addr:     rdsAddr,
			Password: rds.MayString("PASSWORD", ""),
			DB:       rds.MayInt("DB", 0),
		},
	}
}
