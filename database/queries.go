package database

import (
	"time"

	"gorm.io/gorm"
)

// State & migrations
/////////////////////////////////////////////////////////////////////////////////////////

func FetchState(db *gorm.DB, name string) (State, error) {
	var currentState State
	err := db.Where(&State{Name: name}).First(&currentState).Error
	return currentState, err
}

func CreateState(db *gorm.DB, s *State) error {
	return db.Create(s).Error
}

func UpdateState(db *gorm.DB, s *State) error {
	return db.Save(s).Error
}

// UpdateStateCursor persists s only if the stored cursor still matches
// expectedNextIndex. Returns false when another writer moved the cursor in
// the meantime, e.g. an operator rollback racing an indexing batch.
func UpdateStateCursor(db *gorm.DB, s *State, expectedNextIndex uint64) (bool, error) {
	res := db.Model(&State{}).
		Where("id = ? AND next_db_index = ?", s.ID, expectedNextIndex).
		Updates(map[string]interface{}{
			"next_db_index":    s.NextDBIndex,
			"last_chain_index": s.LastChainIndex,
			"updated":          s.Updated,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func FetchMigrations(db *gorm.DB) ([]Migration, error) {
	var migrations []Migration
	err := db.Order("version asc").Find(&migrations).Error
	return migrations, err
}

func CreateMigration(db *gorm.DB, m *Migration) error {
	return db.Create(m).Error
}

func UpdateMigration(db *gorm.DB, m *Migration) error {
	return db.Save(m).Error
}

// Vaults
/////////////////////////////////////////////////////////////////////////////////////////

func FetchVault(db *gorm.DB, address string) (Vault, error) {
	var vault Vault
	err := db.Where(&Vault{Address: address}).First(&vault).Error
	return vault, err
}

func FetchVaultByID(db *gorm.DB, id uint64) (Vault, error) {
	var vault Vault
	err := db.First(&vault, id).Error
	return vault, err
}

func CountVaults(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Vault{}).Count(&count).Error
	return count, err
}

func FetchVaultAddresses(db *gorm.DB) ([]string, error) {
	var addresses []string
	err := db.Model(&Vault{}).Pluck("address", &addresses).Error
	return addresses, err
}

func CreateVaults(db *gorm.DB, vaults []*Vault) error {
	if len(vaults) == 0 {
		return nil
	}
	return db.Create(&vaults).Error
}

func UpdateVault(db *gorm.DB, v *Vault) error {
	return db.Save(v).Error
}

// Vesting schedules
/////////////////////////////////////////////////////////////////////////////////////////

// Schedules are returned oldest first; release processing depends on this order.
func FetchVaultSchedules(db *gorm.DB, vaultID uint64) ([]VestingSchedule, error) {
	var schedules []VestingSchedule
	err := db.Where(&VestingSchedule{VaultID: vaultID}).Order("id asc").Find(&schedules).Error
	return schedules, err
}

func CreateVestingSchedules(db *gorm.DB, schedules []*VestingSchedule) error {
	if len(schedules) == 0 {
		return nil
	}
	return db.Create(&schedules).Error
}

func UpdateVestingSchedule(db *gorm.DB, s *VestingSchedule) error {
	return db.Save(s).Error
}

// Schedules with a cliff ending in [from, to] that were not notified yet
func FetchUpcomingCliffs(db *gorm.DB, from, to time.Time) ([]VestingSchedule, error) {
	var schedules []VestingSchedule
	err := db.
		Where("cliff_end IS NOT NULL AND cliff_end >= ? AND cliff_end <= ?", from, to).
		Where("cliff_notified = ?", false).
		Find(&schedules).Error
	return schedules, err
}

func FetchSchedulesAboveBlock(db *gorm.DB, blockNumber uint64) ([]VestingSchedule, error) {
	var schedules []VestingSchedule
	err := db.Where("block_number > ?", blockNumber).Find(&schedules).Error
	return schedules, err
}

func DeleteSchedulesAboveBlock(db *gorm.DB, blockNumber uint64) (int64, error) {
	res := db.Where("block_number > ?", blockNumber).Delete(&VestingSchedule{})
	return res.RowsAffected, res.Error
}

// Beneficiaries
/////////////////////////////////////////////////////////////////////////////////////////

func FetchBeneficiary(db *gorm.DB, vaultID uint64, address string) (Beneficiary, error) {
	var beneficiary Beneficiary
	err := db.Where(&Beneficiary{VaultID: vaultID, Address: address}).First(&beneficiary).Error
	return beneficiary, err
}

func FetchVaultBeneficiaries(db *gorm.DB, vaultID uint64) ([]Beneficiary, error) {
	var beneficiaries []Beneficiary
	err := db.Where(&Beneficiary{VaultID: vaultID}).Order("id asc").Find(&beneficiaries).Error
	return beneficiaries, err
}

func CreateBeneficiary(db *gorm.DB, b *Beneficiary) error {
	return db.Create(b).Error
}

func UpdateBeneficiary(db *gorm.DB, b *Beneficiary) error {
	return db.Save(b).Error
}

// Claims
/////////////////////////////////////////////////////////////////////////////////////////

func CreateClaim(db *gorm.DB, c *Claim) error {
	return db.Create(c).Error
}

func FetchClaimByTxHash(db *gorm.DB, txHash string) (Claim, error) {
	var claim Claim
	err := db.Where(&Claim{TxHash: txHash}).First(&claim).Error
	return claim, err
}

func FetchClaimsWithoutPrice(db *gorm.DB, limit int) ([]Claim, error) {
	var claims []Claim
	err := db.Where("price_usd IS NULL").Order("id asc").Limit(limit).Find(&claims).Error
	return claims, err
}

func FetchUserClaims(db *gorm.DB, userAddress string) ([]Claim, error) {
	var claims []Claim
	err := db.Where(&Claim{UserAddress: userAddress}).Order("id asc").Find(&claims).Error
	return claims, err
}

func UpdateClaim(db *gorm.DB, c *Claim) error {
	return db.Save(c).Error
}

func DeleteClaimsAboveBlock(db *gorm.DB, blockNumber uint64) (int64, error) {
	res := db.Where("block_number > ?", blockNumber).Delete(&Claim{})
	return res.RowsAffected, res.Error
}
