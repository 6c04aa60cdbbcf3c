package core

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// supported database engines
const (
	EngineMemory   = "memory"
	EngineSQLite   = "sqlite3"
	EnginePostgres = "postgres"
)

type DatabaseConfig struct {
	Engine     string
	DSN        string // sqlite3: file path, ":memory:" or a full "file:" URI
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	DisableTLS bool
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DataSourceName returns the driver specific connection string.
func (c DatabaseConfig) DataSourceName() string {
	if c.Engine != EnginePostgres {
		if strings.HasPrefix(c.DSN, "file:") {
			return withForeignKeys(c.DSN)
		}
		if c.DSN == ":memory:" {
			return "file::memory:?cache=shared&_foreign_keys=on"
		}
		return "file:" + c.DSN + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	}

	sslMode := "require"
	if c.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   c.Engine,
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Address(),
		Path:     c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// withForeignKeys turns on SQLite foreign keys in a "file:" URI that does not set them.
func withForeignKeys(dsn string) string {
	var rawQuery string
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		rawQuery = dsn[i+1:]
	}
	q, _ := url.ParseQuery(rawQuery)
	if q.Has("_foreign_keys") || q.Has("_fk") {
		return dsn
	}

	switch {
	case rawQuery != "":
		return dsn + "&_foreign_keys=on"
	case strings.HasSuffix(dsn, "?"):
		return dsn + "_foreign_keys=on"
	default:
		return dsn + "?_foreign_keys=on"
	}
}
