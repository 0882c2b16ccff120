// Stubs for the reconciliation job. These handle the direct interactions
// with the store; the actual logic is in reconcile.go, which is unit-tested.
package cronjob

import (
	"vesting-indexer/database"

	"gorm.io/gorm"
)

type reconcileDBGorm struct {
	db *gorm.DB
}

func NewReconcileDBGorm(db *gorm.DB) reconcileDB {
	return reconcileDBGorm{db: db}
}

func (r reconcileDBGorm) CountVaults() (int64, error) {
	return database.CountVaults(r.db)
}

func (r reconcileDBGorm) FetchVaultAddresses() ([]string, error) {
	return database.FetchVaultAddresses(r.db)
}

func (r reconcileDBGorm) CreateVaults(vaults []*database.Vault) error {
	return database.CreateVaults(r.db, vaults)
}
