package logic

import (
	"context"
	"testing"
	"time"

	"fantasy-backend/internal/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 2024-01-15 是周一
var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func daysAgo(n int, hour int) time.Time {
	d := fixedNow.AddDate(0, 0, -n)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) (*db.GormStore, *gorm.DB) {
	t.Helper()
	conn, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db.NewGormStore(conn), conn
}

func addRecord(t *testing.T, store db.Store, r db.Record) *db.Record {
	t.Helper()
	if r.UserID == "" {
		r.UserID = "u1"
	}
	if r.Title == "" {
		r.Title = "记录"
	}
	if r.Content == "" {
		r.Content = "内容"
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = fixedNow
	}
	require.NoError(t, store.CreateRecord(context.Background(), &r))
	return &r
}
