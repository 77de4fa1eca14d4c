package systemdb

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ContractType is the closed enum callers normalize legacy string checks to.
type ContractType string

const (
	ContractTypeMarketplace       ContractType = "marketplace"
	ContractTypeSPOReward         ContractType = "spo-reward"
	ContractTypeMint              ContractType = "mint"
	ContractTypeTreasuryLiquidity ContractType = "treasury-liquidity"
	ContractTypeValidatorRegistry ContractType = "validator-registry"
)

// Contract is a Contract row, identified by (tenant_id, contract_id).
type Contract struct {
	ID             int64
	TenantID       int64
	ContractID     int64
	ContractType   ContractType
	Description    sql.NullString
	Version        float32
	Plutus         string // hex script bytes
	Address        string
	PolicyID       sql.NullString
	Deprecated     bool
	DrasilLqdty    sql.NullInt64
	CustomerLqdty  sql.NullInt64
	ExternalLqdty  sql.NullInt64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Tenant is the tenant row: every contract, key locator, and accrual is
// scoped under a tenant's identity and allowed-address set.
type Tenant struct {
	ID              int64
	TenantID        int64
	APIPubkey       sql.NullString
	Username        string
	Email           string
	Role            string
	Permissions     []string
	CompanyName     sql.NullString
	CardanoWallet   sql.NullString
	WalletVerified  bool
	DrasilPubkey    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MultisigKeyLocator is a MultisigKeyLocator row: for
// (tenant_id, contract_id, version) an ordered vector of ciphertexts, one
// per signing key.
type MultisigKeyLocator struct {
	ID            int64
	TenantID      int64
	ContractID    int64
	Version       float32
	FeeWalletAddr sql.NullString
	Fee           sql.NullInt64
	Ciphertexts   []string // hex salt||nonce||aead_stream per signing key
	Deprecated    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PayoutStatus is the payout_status column of PayoutRequest.
type PayoutStatus string

const (
	PayoutPending       PayoutStatus = "pending"
	PayoutUserApproved  PayoutStatus = "user-approved"
	PayoutAdminApproved PayoutStatus = "admin-approved"
	PayoutSubmitted     PayoutStatus = "submitted"
	PayoutConfirmed     PayoutStatus = "confirmed"
	PayoutCancelled     PayoutStatus = "cancelled"
)

// PayoutRequest is a payout-request row.
type PayoutRequest struct {
	ID               uuid.UUID
	TenantID         int64
	ContractID       int64
	ValueJSON        []byte // ada + per-asset quantities
	TxHash           sql.NullString
	UserSig          sql.NullString
	AdminSig         sql.NullString
	BlockchainStatus sql.NullString
	PayoutStatus     PayoutStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PayoutHash binds a PayoutRequest to the hash the user signed over, per
// a companion table stores the payout-hash signed by the user;
// approval binds hash(current-row) == stored-hash".
type PayoutHash struct {
	PayoutID  uuid.UUID
	Hash      string
	SignedAt  time.Time
}

// RewardAccrual is a reward-accrual row.
type RewardAccrual struct {
	ID             int64
	StakeAddr      string
	PaymentAddr    string
	AssetFp        string
	ContractID     int64
	TenantID       int64
	TotalEarned    string // big.Rat decimal string, exact arithmetic
	TotalClaimed   string
	Oneshot        bool
	LastCalcEpoch  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Claim is a claim row.
type Claim struct {
	ID                 uuid.UUID
	StakeAddr          string
	PaymentAddr        string
	AssetFp            string
	Amount             string
	ContractID         int64
	TenantID           int64
	TxHash             string
	InvalidationReason sql.NullString
	CreatedAt          time.Time
}

// CalcMode is a TokenWhitelist calculation mode.
type CalcMode string

const (
	CalcRelationalToAdaStake       CalcMode = "relational-to-ada-stake"
	CalcFixedEndEpoch              CalcMode = "fixed-end-epoch"
	CalcAirdrop                    CalcMode = "airdrop"
	CalcCustomFreeloaderz          CalcMode = "custom/freeloaderz"
	CalcCustomFixedPerEpoch        CalcMode = "custom/fixed-per-epoch"
	CalcCustomFixedPerEpochNonAcc  CalcMode = "custom/fixed-per-epoch-non-acc"
	CalcCustomThreshold            CalcMode = "custom/threshold"
	CalcCustomCapped               CalcMode = "custom/capped"
)

// TokenWhitelist is a TokenWhitelist row.
type TokenWhitelist struct {
	ID           int64
	ContractID   int64
	TenantID     int64
	AssetFp      string
	Mode         CalcMode
	Equation     string
	Modifier     string
	VestingDate  sql.NullTime
	StartEpoch   int
	EndEpoch     sql.NullInt64
	PoolList     []string // pool-ids or whitelist-id sentinels (prefixed "wl:")
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WlAlloc is the address-whitelist allocation table recovered from
// the reward engine's address-whitelist path
//.
type WlAlloc struct {
	ID          int64
	WhitelistID string
	TenantID    int64
	StakeAddr   string
	Weight      string // decimal string, same "stake" role as delegated ada
}

// MintProject is a MintProject row.
type MintProject struct {
	ID              int64
	TenantID        int64
	ContractID      int64
	StorageLocation string
	MaxPerAddress   int
	NftTableName    string
	LinkedWhitelist sql.NullString
	CreatedAt       time.Time
}

// Nft is a per-NFT row.
type Nft struct {
	ID          int64
	ProjectID   int64
	AssetName   string
	Fingerprint string
	MetadataJSON []byte
	Minted      bool
	TxHash      sql.NullString
}

// MintReward is a per-claimant pre-aggregated row.
type MintReward struct {
	ID          int64
	ProjectID   int64
	PaymentAddr string
	NftIDs      []int64
	ValueBytes  [][]byte
	Processed   bool
	Minted      bool
}

// DiscountRule is a discount rule: (policy_id, optional
// fingerprint, metadata-path).
type DiscountRule struct {
	ID           int64
	ContractID   int64
	TenantID     int64
	PolicyID     string
	Fingerprint  sql.NullString
	MetadataPath string // dot-separated path into the asset's mint metadata
}
