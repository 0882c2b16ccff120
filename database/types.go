package database

type MigrationStatus string

const (
	MigrationPending   MigrationStatus = "PENDING"
	MigrationCompleted MigrationStatus = "COMPLETED"
	MigrationFailed    MigrationStatus = "FAILED"
)

// Vault ledger event types, as reported by the ledger source

type VaultEventType string

const (
	VaultEventCreated VaultEventType = "VAULT_CREATED"
	VaultEventTopUp   VaultEventType = "TOP_UP"
	VaultEventClaim   VaultEventType = "CLAIM"
)
