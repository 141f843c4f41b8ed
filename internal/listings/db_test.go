package listings

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/foodshare-backend/pkg/db/models"
)

// openTestDB opens a per-test in-memory SQLite database with the listing
// schema migrated. Conditional-update semantics under test are plain
// single-statement SQL, identical across SQLite and Postgres.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Listing{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}
