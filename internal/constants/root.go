package constants

import "time"

// RecurrenceType is the persisted tag of a habit's recurrence rule
type RecurrenceType string

// ChangeKind identifies the mutation carried by a queued pending change
type ChangeKind string

// ChangeStatus tracks a pending change through the sync queue
type ChangeStatus string

const (
	AppName            = "atoms"
	DefaultKeyringUser = "remote-connection"
	DefaultConfigPath  = "~/.config/atoms/atoms.db"
	Version            = "v0.3.0"

	// RemoteDSNEnvVar overrides the keyring when set
	RemoteDSNEnvVar = "ATOMS_REMOTE_DSN"

	// DateFormat is the canonical ledger key format (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat is used by the heatmap command (YYYY-MM)
	MonthFormat = "2006-01"

	// TimestampFormat is fixed-width so stored UTC timestamps sort lexically
	TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "atoms-"
	BackupFileSuffix = ".db"

	// Sync constants
	SyncLockfileName     = "atoms-sync.lock"
	SyncDrainBatchSize   = 100
	SyncRunTimeout       = 2 * time.Minute
	DefaultExportVersion = 1

	// Recurrence constants
	RecurrenceDaily    RecurrenceType = "daily"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
	RecurrenceMonthly  RecurrenceType = "monthly"

	// Pending change kinds
	ChangeSetCompletion ChangeKind = "set_completion"
	ChangeUpsertHabit   ChangeKind = "upsert_habit"
	ChangeDeleteHabit   ChangeKind = "delete_habit"

	// Pending change statuses
	ChangePending ChangeStatus = "pending"
	ChangeFailed  ChangeStatus = "failed"

	// Heat buckets, evaluated top-down
	HeatFull   = 100
	HeatHigh   = 75
	HeatMedium = 50
	HeatLow    = 25
	HeatNone   = 0
)
