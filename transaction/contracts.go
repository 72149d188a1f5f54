// Package transaction defines the KleverChain transaction data model: the
// closed set of contract payload variants, the tagged envelope that carries
// them, the raw (unsigned) transaction record and its signed wrapper, and
// the canonical operations over them (content hash, fee accounting, wire
// projection).
//
// All types encode through the wire package; the `wire:"N"` field numbers
// below are part of the network contract and must not be renumbered.
package transaction

import (
	"fmt"
	"reflect"

	"github.com/klever-io/klever-connect-sub000/wire"
)

// ContractType is the numeric discriminant of a contract payload. The set is
// closed; values outside it are carried opaquely (see UnknownVariantError).
type ContractType int32

const (
	TransferType                ContractType = 0
	CreateAssetType             ContractType = 1
	CreateValidatorType         ContractType = 2
	ValidatorConfigType         ContractType = 3
	FreezeType                  ContractType = 4
	UnfreezeType                ContractType = 5
	DelegateType                ContractType = 6
	UndelegateType              ContractType = 7
	WithdrawType                ContractType = 8
	ClaimType                   ContractType = 9
	UnjailType                  ContractType = 10
	AssetTriggerType            ContractType = 11
	SetAccountNameType          ContractType = 12
	ProposalType                ContractType = 13
	VoteType                    ContractType = 14
	ConfigITOType               ContractType = 15
	SetITOPricesType            ContractType = 16
	BuyType                     ContractType = 17
	SellType                    ContractType = 18
	CancelMarketOrderType       ContractType = 19
	CreateMarketplaceType       ContractType = 20
	ConfigMarketplaceType       ContractType = 21
	UpdateAccountPermissionType ContractType = 22
	DepositType                 ContractType = 23
	ITOTriggerType              ContractType = 24
	SmartContractType           ContractType = 63
)

var contractTypeNames = map[ContractType]string{
	TransferType:                "Transfer",
	CreateAssetType:             "CreateAsset",
	CreateValidatorType:         "CreateValidator",
	ValidatorConfigType:         "ValidatorConfig",
	FreezeType:                  "Freeze",
	UnfreezeType:                "Unfreeze",
	DelegateType:                "Delegate",
	UndelegateType:              "Undelegate",
	WithdrawType:                "Withdraw",
	ClaimType:                   "Claim",
	UnjailType:                  "Unjail",
	AssetTriggerType:            "AssetTrigger",
	SetAccountNameType:          "SetAccountName",
	ProposalType:                "Proposal",
	VoteType:                    "Vote",
	ConfigITOType:               "ConfigITO",
	SetITOPricesType:            "SetITOPrices",
	BuyType:                     "Buy",
	SellType:                    "Sell",
	CancelMarketOrderType:       "CancelMarketOrder",
	CreateMarketplaceType:       "CreateMarketplace",
	ConfigMarketplaceType:       "ConfigMarketplace",
	UpdateAccountPermissionType: "UpdateAccountPermission",
	DepositType:                 "Deposit",
	ITOTriggerType:              "ITOTrigger",
	SmartContractType:           "SmartContract",
}

func (t ContractType) String() string {
	if s, ok := contractTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ContractType(%d)", int32(t))
}

// Contract is the envelope pairing a contract-type discriminant with its
// encoded payload. The parameter bytes are kept verbatim so an envelope with
// an unrecognized type can be relayed without loss.
type Contract struct {
	Type      ContractType `wire:"1" json:"type"`
	Parameter []byte       `wire:"2" json:"parameter,omitempty"`
}

// TransferContract moves an amount of the native coin (empty AssetID) or a
// KDA to another account.
type TransferContract struct {
	ToAddress []byte `wire:"1" json:"toAddress"`
	Amount    int64  `wire:"2" json:"amount"`
	AssetID   []byte `wire:"3" json:"assetId,omitempty"`
}

// FreezeContract locks an amount into a new staking bucket.
type FreezeContract struct {
	AssetID []byte `wire:"1" json:"assetId,omitempty"`
	Amount  int64  `wire:"2" json:"amount"`
}

// UnfreezeContract releases one staking bucket.
type UnfreezeContract struct {
	AssetID  []byte `wire:"1" json:"assetId,omitempty"`
	BucketID []byte `wire:"2" json:"bucketId"`
}

// DelegateContract delegates a frozen bucket to a validator.
type DelegateContract struct {
	ToAddress []byte `wire:"1" json:"toAddress"`
	BucketID  []byte `wire:"2" json:"bucketId"`
}

// UndelegateContract removes the delegation of a bucket.
type UndelegateContract struct {
	BucketID []byte `wire:"1" json:"bucketId"`
}

// Withdrawal destinations.
type WithdrawKind int32

const (
	WithdrawStaking    WithdrawKind = 0
	WithdrawKDAPool    WithdrawKind = 1
	WithdrawValidator  WithdrawKind = 2
	WithdrawDelegation WithdrawKind = 3
	WithdrawITO        WithdrawKind = 4
)

// WithdrawContract moves matured funds out of staking, pools or ITOs.
type WithdrawContract struct {
	AssetID    []byte       `wire:"1" json:"assetId,omitempty"`
	Kind       WithdrawKind `wire:"2" json:"withdrawType"`
	Amount     int64        `wire:"3" json:"amount,omitempty"`
	CurrencyID []byte       `wire:"4" json:"currencyId,omitempty"`
}

// Claimable reward classes.
type ClaimKind int32

const (
	ClaimStaking    ClaimKind = 0
	ClaimAllowance  ClaimKind = 1
	ClaimMarketFees ClaimKind = 2
)

// ClaimContract collects pending rewards or allowances for the given id.
type ClaimContract struct {
	Kind ClaimKind `wire:"1" json:"claimType"`
	ID   []byte    `wire:"2" json:"id,omitempty"`
}

// UnjailContract asks to release the sender's validator from jail.
type UnjailContract struct{}

// SetAccountNameContract sets the sender's human-readable account name.
type SetAccountNameContract struct {
	Name string `wire:"1" json:"name"`
}

// ProposalParameter is one network-parameter change inside a proposal.
type ProposalParameter struct {
	Key   int32  `wire:"1" json:"key"`
	Value []byte `wire:"2" json:"value"`
}

// ProposalContract submits a governance proposal.
type ProposalContract struct {
	Parameters     []ProposalParameter `wire:"1" json:"parameters,omitempty"`
	Description    string              `wire:"2" json:"description,omitempty"`
	EpochsDuration uint32              `wire:"3" json:"epochsDuration"`
}

// Vote directions.
type VoteKind int32

const (
	VoteYes  VoteKind = 0
	VoteNo   VoteKind = 1
	VoteVeto VoteKind = 2
)

// VoteContract casts a stake-weighted vote on an open proposal.
type VoteContract struct {
	ProposalID uint64   `wire:"1" json:"proposalId"`
	Amount     int64    `wire:"2" json:"amount"`
	Kind       VoteKind `wire:"3" json:"voteType"`
}

// Asset classes.
type AssetKind int32

const (
	AssetFungible     AssetKind = 0
	AssetNonFungible  AssetKind = 1
	AssetSemiFungible AssetKind = 2
)

// AssetProperties are the owner-decided capabilities of an asset, fixed at
// creation.
type AssetProperties struct {
	CanFreeze      bool `wire:"1" json:"canFreeze"`
	CanWipe        bool `wire:"2" json:"canWipe"`
	CanPause       bool `wire:"3" json:"canPause"`
	CanMint        bool `wire:"4" json:"canMint"`
	CanBurn        bool `wire:"5" json:"canBurn"`
	CanChangeOwner bool `wire:"6" json:"canChangeOwner"`
	CanAddRoles    bool `wire:"7" json:"canAddRoles"`
}

// AssetAttributes are the mutable flags of an asset.
type AssetAttributes struct {
	IsPaused         bool `wire:"1" json:"isPaused"`
	IsNFTMintStopped bool `wire:"2" json:"isNFTMintStopped"`
}

// CreateAssetContract registers a new asset (KDA) under the sender.
type CreateAssetContract struct {
	Kind          AssetKind        `wire:"1" json:"type"`
	Name          string           `wire:"2" json:"name"`
	Ticker        string           `wire:"3" json:"ticker"`
	OwnerAddress  []byte           `wire:"4" json:"ownerAddress"`
	Precision     uint32           `wire:"5" json:"precision"`
	InitialSupply int64            `wire:"6" json:"initialSupply"`
	MaxSupply     int64            `wire:"7" json:"maxSupply"`
	Properties    *AssetProperties `wire:"8" json:"properties,omitempty"`
	Attributes    *AssetAttributes `wire:"9" json:"attributes,omitempty"`
}

// ValidatorConfig is the operational configuration of a validator.
type ValidatorConfig struct {
	BLSPublicKey        []byte `wire:"1" json:"blsPublicKey"`
	RewardAddress       []byte `wire:"2" json:"rewardAddress,omitempty"`
	CanDelegate         bool   `wire:"3" json:"canDelegate"`
	Commission          uint32 `wire:"4" json:"commission"`
	MaxDelegationAmount int64  `wire:"5" json:"maxDelegationAmount,omitempty"`
	Name                string `wire:"6" json:"name,omitempty"`
}

// CreateValidatorContract registers a new validator.
type CreateValidatorContract struct {
	OwnerAddress []byte           `wire:"1" json:"ownerAddress"`
	Config       *ValidatorConfig `wire:"2" json:"config"`
}

// ValidatorConfigContract updates an existing validator's configuration.
type ValidatorConfigContract struct {
	Config *ValidatorConfig `wire:"1" json:"config"`
}

// Asset trigger operations.
type AssetTriggerKind int32

const (
	AssetTriggerMint        AssetTriggerKind = 0
	AssetTriggerBurn        AssetTriggerKind = 1
	AssetTriggerWipe        AssetTriggerKind = 2
	AssetTriggerPause       AssetTriggerKind = 3
	AssetTriggerResume      AssetTriggerKind = 4
	AssetTriggerChangeOwner AssetTriggerKind = 5
	AssetTriggerAddRole     AssetTriggerKind = 6
	AssetTriggerRemoveRole  AssetTriggerKind = 7
)

// AssetTriggerContract performs a management operation on an existing asset.
type AssetTriggerContract struct {
	Kind      AssetTriggerKind `wire:"1" json:"triggerType"`
	AssetID   []byte           `wire:"2" json:"assetId"`
	ToAddress []byte           `wire:"3" json:"toAddress,omitempty"`
	Amount    int64            `wire:"4" json:"amount,omitempty"`
}

// ITOPackPrice is one pack size and its price inside an ITO configuration.
type ITOPackPrice struct {
	Amount int64 `wire:"1" json:"amount"`
	Price  int64 `wire:"2" json:"price"`
}

// ITOPack groups the pack prices for one payment currency.
type ITOPack struct {
	CurrencyID []byte         `wire:"1" json:"currencyId"`
	Prices     []ITOPackPrice `wire:"2" json:"prices"`
}

// ConfigITOContract opens or reconfigures an initial token offering.
type ConfigITOContract struct {
	AssetID                []byte    `wire:"1" json:"assetId"`
	ReceiverAddress        []byte    `wire:"2" json:"receiverAddress"`
	Status                 int32     `wire:"3" json:"status"`
	MaxAmount              int64     `wire:"4" json:"maxAmount,omitempty"`
	DefaultLimitPerAddress int64     `wire:"5" json:"defaultLimitPerAddress,omitempty"`
	Packs                  []ITOPack `wire:"6" json:"packs,omitempty"`
}

// SetITOPricesContract replaces the pack prices of a running ITO.
type SetITOPricesContract struct {
	AssetID []byte    `wire:"1" json:"assetId"`
	Packs   []ITOPack `wire:"2" json:"packs"`
}

// Buy order targets.
type BuyKind int32

const (
	BuyITO    BuyKind = 0
	BuyMarket BuyKind = 1
)

// BuyContract buys from an ITO or accepts a marketplace order.
type BuyContract struct {
	Kind       BuyKind `wire:"1" json:"buyType"`
	ID         []byte  `wire:"2" json:"id"`
	CurrencyID []byte  `wire:"3" json:"currencyId,omitempty"`
	Amount     int64   `wire:"4" json:"amount"`
}

// Marketplace order styles.
type MarketKind int32

const (
	MarketBuyItNow MarketKind = 0
	MarketAuction  MarketKind = 1
)

// SellContract lists an asset on a marketplace.
type SellContract struct {
	Kind          MarketKind `wire:"1" json:"marketType"`
	MarketplaceID []byte     `wire:"2" json:"marketplaceId"`
	AssetID       []byte     `wire:"3" json:"assetId"`
	CurrencyID    []byte     `wire:"4" json:"currencyId,omitempty"`
	Price         int64      `wire:"5" json:"price,omitempty"`
	ReservePrice  int64      `wire:"6" json:"reservePrice,omitempty"`
	EndTime       int64      `wire:"7" json:"endTime,omitempty"`
}

// CancelMarketOrderContract withdraws an open marketplace order.
type CancelMarketOrderContract struct {
	OrderID []byte `wire:"1" json:"orderId"`
}

// CreateMarketplaceContract registers a new marketplace.
type CreateMarketplaceContract struct {
	Name               string `wire:"1" json:"name"`
	ReferralAddress    []byte `wire:"2" json:"referralAddress,omitempty"`
	ReferralPercentage uint32 `wire:"3" json:"referralPercentage,omitempty"`
}

// ConfigMarketplaceContract updates an existing marketplace.
type ConfigMarketplaceContract struct {
	MarketplaceID      []byte `wire:"1" json:"marketplaceId"`
	Name               string `wire:"2" json:"name,omitempty"`
	ReferralAddress    []byte `wire:"3" json:"referralAddress,omitempty"`
	ReferralPercentage uint32 `wire:"4" json:"referralPercentage,omitempty"`
}

// PermissionSigner is one signer entry of an account permission.
type PermissionSigner struct {
	Address []byte `wire:"1" json:"address"`
	Weight  int64  `wire:"2" json:"weight"`
}

// Permission kinds.
type PermissionKind int32

const (
	PermissionOwner PermissionKind = 0
	PermissionUser  PermissionKind = 1
)

// AccountPermission describes one multi-signature permission set.
type AccountPermission struct {
	Kind       PermissionKind     `wire:"1" json:"type"`
	Name       string             `wire:"2" json:"permissionName,omitempty"`
	Threshold  int64              `wire:"3" json:"threshold"`
	Operations []byte             `wire:"4" json:"operations,omitempty"`
	Signers    []PermissionSigner `wire:"5" json:"signers"`
}

// UpdateAccountPermissionContract replaces the sender's permission sets.
type UpdateAccountPermissionContract struct {
	Permissions []AccountPermission `wire:"1" json:"permissions"`
}

// Deposit destinations.
type DepositKind int32

const (
	DepositFPR     DepositKind = 0
	DepositKDAPool DepositKind = 1
)

// DepositContract pays funds into an FPR or KDA fee pool.
type DepositContract struct {
	Kind       DepositKind `wire:"1" json:"depositType"`
	ID         []byte      `wire:"2" json:"id"`
	CurrencyID []byte      `wire:"3" json:"currencyId,omitempty"`
	Amount     int64       `wire:"4" json:"amount"`
}

// ITO trigger operations.
type ITOTriggerKind int32

const (
	ITOTriggerSetPrices       ITOTriggerKind = 0
	ITOTriggerUpdateStatus    ITOTriggerKind = 1
	ITOTriggerUpdateReceiver  ITOTriggerKind = 2
	ITOTriggerUpdateMaxAmount ITOTriggerKind = 3
	ITOTriggerUpdateTimes     ITOTriggerKind = 4
)

// ITOTriggerContract performs a management operation on a running ITO.
type ITOTriggerContract struct {
	Kind            ITOTriggerKind `wire:"1" json:"triggerType"`
	AssetID         []byte         `wire:"2" json:"assetId"`
	ReceiverAddress []byte         `wire:"3" json:"receiverAddress,omitempty"`
	Status          int32          `wire:"4" json:"status,omitempty"`
	MaxAmount       int64          `wire:"5" json:"maxAmount,omitempty"`
	Packs           []ITOPack      `wire:"6" json:"packs,omitempty"`
	StartTime       int64          `wire:"7" json:"startTime,omitempty"`
	EndTime         int64          `wire:"8" json:"endTime,omitempty"`
}

// Smart-contract invocation styles.
type SCKind int32

const (
	SCInvoke  SCKind = 0
	SCDeploy  SCKind = 1
	SCUpgrade SCKind = 2
)

// CallValue is one asset amount attached to a smart-contract call.
type CallValue struct {
	AssetID []byte `wire:"1" json:"assetId,omitempty"`
	Amount  int64  `wire:"2" json:"amount"`
}

// SmartContract invokes, deploys or upgrades a contract. Input carries the
// call arguments opaquely; argument packing is the caller's concern.
type SmartContract struct {
	Kind           SCKind      `wire:"1" json:"scType"`
	Address        []byte      `wire:"2" json:"address,omitempty"`
	CallValue      []CallValue `wire:"3" json:"callValue,omitempty"`
	Input          []byte      `wire:"4" json:"input,omitempty"`
	VirtualMachine uint32      `wire:"5" json:"virtualMachine,omitempty"`
}

// UnknownVariantError is returned when decoding an envelope whose
// discriminant is outside the known set. It carries the raw parameter bytes
// so the caller can relay the contract verbatim instead of dropping it.
type UnknownVariantError struct {
	Type ContractType
	Raw  []byte
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown contract variant %d (%d parameter bytes)", int32(e.Type), len(e.Raw))
}

// contractRegistry maps each discriminant to a payload factory. The set is
// closed: additions here are network upgrades.
var contractRegistry = map[ContractType]func() interface{}{
	TransferType:                func() interface{} { return &TransferContract{} },
	CreateAssetType:             func() interface{} { return &CreateAssetContract{} },
	CreateValidatorType:         func() interface{} { return &CreateValidatorContract{} },
	ValidatorConfigType:         func() interface{} { return &ValidatorConfigContract{} },
	FreezeType:                  func() interface{} { return &FreezeContract{} },
	UnfreezeType:                func() interface{} { return &UnfreezeContract{} },
	DelegateType:                func() interface{} { return &DelegateContract{} },
	UndelegateType:              func() interface{} { return &UndelegateContract{} },
	WithdrawType:                func() interface{} { return &WithdrawContract{} },
	ClaimType:                   func() interface{} { return &ClaimContract{} },
	UnjailType:                  func() interface{} { return &UnjailContract{} },
	AssetTriggerType:            func() interface{} { return &AssetTriggerContract{} },
	SetAccountNameType:          func() interface{} { return &SetAccountNameContract{} },
	ProposalType:                func() interface{} { return &ProposalContract{} },
	VoteType:                    func() interface{} { return &VoteContract{} },
	ConfigITOType:               func() interface{} { return &ConfigITOContract{} },
	SetITOPricesType:            func() interface{} { return &SetITOPricesContract{} },
	BuyType:                     func() interface{} { return &BuyContract{} },
	SellType:                    func() interface{} { return &SellContract{} },
	CancelMarketOrderType:       func() interface{} { return &CancelMarketOrderContract{} },
	CreateMarketplaceType:       func() interface{} { return &CreateMarketplaceContract{} },
	ConfigMarketplaceType:       func() interface{} { return &ConfigMarketplaceContract{} },
	UpdateAccountPermissionType: func() interface{} { return &UpdateAccountPermissionContract{} },
	DepositType:                 func() interface{} { return &DepositContract{} },
	ITOTriggerType:              func() interface{} { return &ITOTriggerContract{} },
	SmartContractType:           func() interface{} { return &SmartContract{} },
}

// typeOfPayload is the reverse of contractRegistry, built at init.
var typeOfPayload = map[reflect.Type]ContractType{}

func init() {
	for ct, factory := range contractRegistry {
		typeOfPayload[reflect.TypeOf(factory()).Elem()] = ct
	}
}

// NewContract wraps a typed payload into its envelope, inferring the
// discriminant from the payload's concrete type.
func NewContract(payload interface{}) (Contract, error) {
	t := reflect.TypeOf(payload)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	ct, ok := typeOfPayload[t]
	if !ok {
		return Contract{}, fmt.Errorf("not a contract payload type: %T", payload)
	}
	raw, err := wire.Marshal(payload)
	if err != nil {
		return Contract{}, fmt.Errorf("encode %s payload: %w", ct, err)
	}
	return Contract{Type: ct, Parameter: raw}, nil
}

// DecodePayload dispatches the envelope's parameter bytes on its
// discriminant and returns the typed payload. For a discriminant outside
// the known set it returns *UnknownVariantError carrying the raw bytes;
// the envelope itself stays intact for relay.
func (c Contract) DecodePayload() (interface{}, error) {
	factory, ok := contractRegistry[c.Type]
	if !ok {
		return nil, &UnknownVariantError{Type: c.Type, Raw: c.Parameter}
	}
	payload := factory()
	if err := wire.Unmarshal(c.Parameter, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", c.Type, err)
	}
	return payload, nil
}
