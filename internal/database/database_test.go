package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-insights-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := Connect(DriverSQLite, "file:database_migrate?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range models.AllModels() {
		require.True(t, db.Migrator().HasTable(model))
	}
	require.True(t, db.Migrator().HasTable("ai_sessions"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "dsn")
	require.Error(t, err)
}

func TestConnectRequiresDSN(t *testing.T) {
	_, err := Connect(DriverPostgres, "")
	require.Error(t, err)

	_, err = Connect(DriverSQLite, "")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "")
	require.Error(t, err)

	_, err = ConnectNATS("", "insights")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "probe", "1", 0).Err())

	addr := server.Addr()
	server.Close()
	_, err = ConnectRedis(context.Background(), "redis://"+addr)
	require.Error(t, err)
}
