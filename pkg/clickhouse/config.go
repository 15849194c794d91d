package clickhouse

import "time"

// ClientOption tunes the chart store connection.
type ClientOption func(*ClientConfig)

// ClientConfig describes where the charts table lives and how rows reach it.
type ClientConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	DialTimeout time.Duration
	ReadTimeout time.Duration
	MaxExecTime time.Duration // server side cap for the recent-charts scans

	UseHTTP bool
	// chart rows arrive one request at a time; async_insert lets the server batch them
	AsyncInsert  bool
	WaitForAsync bool
}

// WithAddr points the client at host:port.
func WithAddr(host string, port int) ClientOption {
	return func(c *ClientConfig) {
		c.Host = host
		if port > 0 {
			c.Port = port
		}
	}
}

// WithAuth selects the database holding the charts table and the account used for it.
func WithAuth(database, user, password string) ClientOption {
	return func(c *ClientConfig) {
		if database != "" {
			c.Database = database
		}
		if user != "" {
			c.User = user
		}
		c.Password = password
	}
}

// WithPool bounds the database/sql pool. Zero values keep the defaults.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if maxOpen > 0 {
			c.MaxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			c.MaxIdleConns = maxIdle
		}
		if lifetime > 0 {
			c.ConnMaxLifetime = lifetime
		}
	}
}

// WithTimeouts sets the dial and read deadlines and max_execution_time.
func WithTimeouts(dial, read, query time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
		c.MaxExecTime = query
	}
}

// WithInserts picks the protocol and the async_insert mode for chart writes.
func WithInserts(useHTTP, async, wait bool) ClientOption {
	return func(c *ClientConfig) {
		c.UseHTTP = useHTTP
		c.AsyncInsert = async
		c.WaitForAsync = wait
	}
}
