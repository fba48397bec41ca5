package sqlite

import (
	"fmt"
	"strings"

	"github.com/OpenCHAMI/powerctl/internal/cache"
	"github.com/OpenCHAMI/powerctl/internal/util"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const TABLE_NAME = "powerctl_ports"

var columns = []string{"name", "mode", "model", "host", "idx", "cmd_on", "cmd_off", "cmd_cycle", "delay", "credentials"}

// PortCache stores port descriptors in a sqlite database at Path.
type PortCache struct {
	Path string
}

var _ cache.Cache[power.Port] = (*PortCache)(nil)

func New(path string) *PortCache {
	return &PortCache{Path: path}
}

// CreatePortsIfNotExists() opens the database, creating the file and the
// table as needed. The caller closes the returned handle.
func CreatePortsIfNotExists(path string) (*sqlx.DB, error) {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		name 		TEXT NOT NULL PRIMARY KEY,
		mode 		TEXT,
		model 		TEXT,
		host 		TEXT,
		idx 		TEXT,
		cmd_on 		TEXT,
		cmd_off 	TEXT,
		cmd_cycle 	TEXT,
		delay 		INTEGER,
		credentials TEXT
	);
	`, TABLE_NAME)
	if err := util.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return db, nil
}

// Insert adds ports or replaces existing ports with the same name.
func (c *PortCache) Insert(ports ...power.Port) error {
	if len(ports) == 0 {
		return fmt.Errorf("no ports to insert")
	}
	for _, port := range ports {
		if err := port.Validate(); err != nil {
			return err
		}
	}

	// create database if it doesn't already exist
	db, err := CreatePortsIfNotExists(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	sql := fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (:%s);`,
		TABLE_NAME, strings.Join(columns, ", "), strings.Join(columns, ", :"))
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, port := range ports {
		if _, err := tx.NamedExec(sql, &port); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert port '%s': %w", port.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes ports by name. Unknown names are ignored.
func (c *PortCache) Delete(names ...string) error {
	if len(names) == 0 {
		return fmt.Errorf("no ports to delete")
	}
	if _, exists := util.PathExists(c.Path); !exists {
		return fmt.Errorf("no cache found at %s", c.Path)
	}
	db, err := sqlx.Open("sqlite3", c.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	query, args, err := sqlx.In(fmt.Sprintf(`DELETE FROM %s WHERE name IN (?);`, TABLE_NAME), names)
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := db.Exec(db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete ports: %w", err)
	}
	return nil
}

// Get returns every cached port ordered by name. A missing database is
// not created.
func (c *PortCache) Get() ([]power.Port, error) {
	// check if path exists first to prevent creating the database
	if _, exists := util.PathExists(c.Path); !exists {
		return nil, fmt.Errorf("no cache found at %s", c.Path)
	}
	db, err := sqlx.Open("sqlite3", c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ports := []power.Port{}
	err = db.Select(&ports, fmt.Sprintf("SELECT %s FROM %s ORDER BY name ASC;", strings.Join(columns, ", "), TABLE_NAME))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve ports: %w", err)
	}
	return ports, nil
}
