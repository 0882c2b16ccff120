package migrations

import (
	"sort"
	"time"

	"vesting-indexer/database"
	"vesting-indexer/logger"

	"gorm.io/gorm"
)

type migration struct {
	version     string
	description string
	execute     func(db *gorm.DB) error
}

type migrationContainer struct {
	migrations []migration
}

var Container = migrationContainer{}

func (c *migrationContainer) Add(version, description string, execute func(db *gorm.DB) error) {
	c.migrations = append(c.migrations, migration{
		version:     version,
		description: description,
		execute:     execute,
	})
}

// ExecuteAll runs migrations not yet recorded as completed, in version
// order, recording each outcome
func (c *migrationContainer) ExecuteAll(db *gorm.DB) error {
	executed, err := database.FetchMigrations(db)
	if err != nil {
		return err
	}
	executedByVersion := make(map[string]database.Migration, len(executed))
	for _, m := range executed {
		executedByVersion[m.Version] = m
	}

	pending := make([]migration, 0, len(c.migrations))
	for _, m := range c.migrations {
		if record, ok := executedByVersion[m.version]; ok && record.Status == database.MigrationCompleted {
			continue
		}
		pending = append(pending, m)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })

	for _, m := range pending {
		if err := c.executeOne(db, m); err != nil {
			return err
		}
	}
	return nil
}

func (c *migrationContainer) executeOne(db *gorm.DB, m migration) error {
	record := database.Migration{
		Version:     m.version,
		Description: m.description,
		ExecutedAt:  time.Now(),
		Status:      database.MigrationPending,
	}
	if err := database.CreateMigration(db, &record); err != nil {
		return err
	}

	start := time.Now()
	err := m.execute(db)
	record.Duration = int(time.Since(start).Milliseconds())
	if err != nil {
		record.Status = database.MigrationFailed
		if updateErr := database.UpdateMigration(db, &record); updateErr != nil {
			logger.Error("cannot record failed migration %s: %v", m.version, updateErr)
		}
		return err
	}

	record.Status = database.MigrationCompleted
	if err := database.UpdateMigration(db, &record); err != nil {
		return err
	}
	logger.Info("executed migration %s (%s)", m.version, m.description)
	return nil
}
