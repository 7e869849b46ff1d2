package thredds

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const ledgerFile = "ledger.db"

// DiskCache stores fetched documents as files under a root directory, one file
// per URI at <root>/<uri>. A SQLite ledger in the root records what was cached
// and when.
type DiskCache struct {
	root string
	db   *gorm.DB
}

// ledgerEntry is one row of the ledger.
type ledgerEntry struct {
	Key       string `gorm:"primaryKey"`
	Size      int64
	FetchedAt time.Time `gorm:"index"`
}

func (ledgerEntry) TableName() string {
	return "entries"
}

// OpenDiskCache opens or creates a disk cache at the given root directory.
func OpenDiskCache(root string) (*DiskCache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	// Pure Go driver, registered as "sqlite".
	dsn := filepath.Join(root, ledgerFile) + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// Workers write concurrently; SQLite wants a single writer.
	sqlDB.SetMaxOpenConns(1)

	c := &DiskCache{root: root, db: db}
	if err := c.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return c, nil
}

// Close closes the ledger database.
func (c *DiskCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Root returns the cache root directory.
func (c *DiskCache) Root() string {
	return c.root
}

func (c *DiskCache) initSchema() error {
	return c.db.AutoMigrate(&ledgerEntry{})
}

// Path returns the file a key is stored in.
func (c *DiskCache) Path(key string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(key, "/")))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("cache key %q escapes cache root", key)
	}
	return filepath.Join(c.root, rel), nil
}

// Get reads a cached document. A missing file is a miss, not an error.
func (c *DiskCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := c.Path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put writes a document, creating parent directories, and records it in the ledger.
func (c *DiskCache) Put(ctx context.Context, key string, data []byte) error {
	path, err := c.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}

	entry := &ledgerEntry{Key: key, Size: int64(len(data)), FetchedAt: time.Now().UTC()}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// concurrent readers see either the old or the new document, never a partial one.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Stats returns ledger statistics.
func (c *DiskCache) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}
	db := c.db.WithContext(ctx)

	if err := db.Model(&ledgerEntry{}).Count(&stats.Entries).Error; err != nil {
		return nil, err
	}
	if stats.Entries == 0 {
		return stats, nil
	}
	if err := db.Model(&ledgerEntry{}).Select("COALESCE(SUM(size), 0)").Scan(&stats.Bytes).Error; err != nil {
		return nil, err
	}

	var oldest, newest ledgerEntry
	if err := db.Order("fetched_at").Take(&oldest).Error; err != nil {
		return nil, err
	}
	if err := db.Order("fetched_at desc").Take(&newest).Error; err != nil {
		return nil, err
	}
	stats.Oldest, stats.Newest = oldest.FetchedAt, newest.FetchedAt
	return stats, nil
}

// CacheStats contains statistics about the disk cache.
type CacheStats struct {
	Entries int64
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}
