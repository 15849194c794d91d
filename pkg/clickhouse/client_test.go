package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	o := Options(ClientConfig{
		Host:         "ch",
		Port:         8123,
		Database:     "astrochart",
		User:         "u",
		Password:     "p",
		UseHTTP:      true,
		AsyncInsert:  true,
		WaitForAsync: true,
		MaxExecTime:  90 * time.Second,
	})

	assert.Equal(t, []string{"ch:8123"}, o.Addr)
	assert.Equal(t, clickhouse.HTTP, o.Protocol)
	assert.Equal(t, "astrochart", o.Auth.Database)
	assert.Equal(t, 90, o.Settings["max_execution_time"])
	assert.Equal(t, 1, o.Settings["async_insert"])
	assert.Equal(t, 1, o.Settings["wait_for_async_insert"])
}

func TestOptionsNativeDefaults(t *testing.T) {
	o := Options(ClientConfig{Host: "localhost", Port: 9000})
	assert.Equal(t, clickhouse.Native, o.Protocol)
	assert.Empty(t, o.Settings)
}

func TestClientOptionsKeepDefaultsForZeroValues(t *testing.T) {
	cfg := newClientConfig(
		WithAddr("ch", 0),
		WithAuth("astrochart", "", "secret"),
		WithPool(20, 0, 0),
		WithTimeouts(0, 3*time.Second, time.Minute),
		WithInserts(false, true, true),
	)

	assert.Equal(t, "ch", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "astrochart", cfg.Database)
	assert.Equal(t, "default", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 20, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.MaxExecTime)
	assert.True(t, cfg.AsyncInsert)
	assert.True(t, cfg.WaitForAsync)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.ErrorContains(t, err, "host is required")
}

func TestInitSchemaStopsAtFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(db)
	defer c.Close()

	mock.ExpectExec("CREATE DATABASE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("syntax error"))

	err = c.InitSchema(context.Background(), []string{
		"CREATE DATABASE IF NOT EXISTS astrochart",
		"CREATE TABLE IF NOT EXISTS astrochart.charts (id String) ENGINE = Memory",
		"SELECT 1",
	})
	assert.ErrorContains(t, err, "init schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}
