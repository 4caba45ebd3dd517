package db

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/packfinderz-settlement/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ledgerRow struct {
	ID     int
	Amount int64
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerRow{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&ledgerRow{Amount: 8500}).Error
	}))

	var count int64
	require.NoError(t, conn.Model(&ledgerRow{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&ledgerRow{Amount: -5000}).Error; err != nil {
			return err
		}
		return errors.New("balance update failed")
	})
	require.Error(t, err)

	require.NoError(t, conn.Model(&ledgerRow{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "rollback should discard the second row")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	conn := newTestDB(t)
	client := Wrap(conn)

	require.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&ledgerRow{Amount: 100}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	})

	var count int64
	require.NoError(t, conn.Model(&ledgerRow{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{DSN: "x", Driver: "mysql"}, nil)
	require.Error(t, err)
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{DSN: "file::memory:", Driver: DriverSQLite}, nil)
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(gorm.ErrRecordNotFound))
	require.False(t, IsNotFound(errors.New("other")))
}
