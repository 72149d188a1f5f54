package builder

import (
	"errors"
	"fmt"

	"github.com/klever-io/klever-connect-sub000/address"
	"github.com/klever-io/klever-connect-sub000/transaction"
)

// One method per contract variant. Each validates its parameters and
// appends one envelope to the ordered contract list; multiple calls
// accumulate multiple operations in a single atomic transaction.

// TransferParams configures one transfer operation. An empty AssetID means
// the native coin.
type TransferParams struct {
	To      string
	Amount  int64
	AssetID string
}

// Transfer appends a transfer of the native coin or a KDA.
func (b *Builder) Transfer(p TransferParams) *Builder {
	if b.err != nil {
		return b
	}
	to, err := address.NewAddress(p.To)
	if err != nil {
		return b.fail(fmt.Errorf("builder: transfer: %w", err))
	}
	if p.Amount < 0 {
		return b.fail(fmt.Errorf("builder: transfer: negative amount %d", p.Amount))
	}
	return b.add(&transaction.TransferContract{
		ToAddress: to.Bytes(),
		Amount:    p.Amount,
		AssetID:   assetID(p.AssetID),
	})
}

// FreezeParams configures one freeze operation.
type FreezeParams struct {
	Amount  int64
	AssetID string
}

// Freeze appends a freeze of funds into a new staking bucket.
func (b *Builder) Freeze(p FreezeParams) *Builder {
	if b.err != nil {
		return b
	}
	if p.Amount <= 0 {
		return b.fail(fmt.Errorf("builder: freeze: non-positive amount %d", p.Amount))
	}
	return b.add(&transaction.FreezeContract{
		AssetID: assetID(p.AssetID),
		Amount:  p.Amount,
	})
}

// UnfreezeParams configures one unfreeze operation.
type UnfreezeParams struct {
	BucketID string
	AssetID  string
}

// Unfreeze appends the release of one staking bucket.
func (b *Builder) Unfreeze(p UnfreezeParams) *Builder {
	if b.err != nil {
		return b
	}
	if p.BucketID == "" {
		return b.fail(errors.New("builder: unfreeze: empty bucket id"))
	}
	return b.add(&transaction.UnfreezeContract{
		AssetID:  assetID(p.AssetID),
		BucketID: []byte(p.BucketID),
	})
}

// DelegateParams configures one delegation.
type DelegateParams struct {
	To       string
	BucketID string
}

// Delegate appends the delegation of a frozen bucket to a validator.
func (b *Builder) Delegate(p DelegateParams) *Builder {
	if b.err != nil {
		return b
	}
	to, err := address.NewAddress(p.To)
	if err != nil {
		return b.fail(fmt.Errorf("builder: delegate: %w", err))
	}
	if p.BucketID == "" {
		return b.fail(errors.New("builder: delegate: empty bucket id"))
	}
	return b.add(&transaction.DelegateContract{
		ToAddress: to.Bytes(),
		BucketID:  []byte(p.BucketID),
	})
}

// Undelegate appends the removal of a bucket's delegation.
func (b *Builder) Undelegate(bucketID string) *Builder {
	if b.err != nil {
		return b
	}
	if bucketID == "" {
		return b.fail(errors.New("builder: undelegate: empty bucket id"))
	}
	return b.add(&transaction.UndelegateContract{BucketID: []byte(bucketID)})
}

// WithdrawParams configures one withdraw operation.
type WithdrawParams struct {
	Kind       transaction.WithdrawKind
	AssetID    string
	Amount     int64
	CurrencyID string
}

// Withdraw appends a withdrawal of matured funds.
func (b *Builder) Withdraw(p WithdrawParams) *Builder {
	if b.err != nil {
		return b
	}
	if p.Amount < 0 {
		return b.fail(fmt.Errorf("builder: withdraw: negative amount %d", p.Amount))
	}
	return b.add(&transaction.WithdrawContract{
		AssetID:    assetID(p.AssetID),
		Kind:       p.Kind,
		Amount:     p.Amount,
		CurrencyID: assetID(p.CurrencyID),
	})
}

// Claim appends a reward claim for the given id.
func (b *Builder) Claim(kind transaction.ClaimKind, id string) *Builder {
	if b.err != nil {
		return b
	}
	return b.add(&transaction.ClaimContract{Kind: kind, ID: []byte(id)})
}

// Unjail appends a validator unjail request.
func (b *Builder) Unjail() *Builder {
	if b.err != nil {
		return b
	}
	return b.add(&transaction.UnjailContract{})
}

// SetAccountName appends an account name change.
func (b *Builder) SetAccountName(name string) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		return b.fail(errors.New("builder: set account name: empty name"))
	}
	return b.add(&transaction.SetAccountNameContract{Name: name})
}

// VoteParams configures one governance vote.
type VoteParams struct {
	ProposalID uint64
	Amount     int64
	Kind       transaction.VoteKind
}

// Vote appends a stake-weighted vote on an open proposal.
func (b *Builder) Vote(p VoteParams) *Builder {
	if b.err != nil {
		return b
	}
	if p.Amount < 0 {
		return b.fail(fmt.Errorf("builder: vote: negative amount %d", p.Amount))
	}
	return b.add(&transaction.VoteContract{
		ProposalID: p.ProposalID,
		Amount:     p.Amount,
		Kind:       p.Kind,
	})
}

// Proposal appends a governance proposal.
func (b *Builder) Proposal(c *transaction.ProposalContract) *Builder {
	if b.err != nil {
		return b
	}
	if c == nil || (len(c.Parameters) == 0 && c.Description == "") {
		return b.fail(errors.New("builder: proposal: empty proposal"))
	}
	return b.add(c)
}

// CreateAssetParams configures a new asset registration.
type CreateAssetParams struct {
	Kind          transaction.AssetKind
	Name          string
	Ticker        string
	Owner         string
	Precision     uint32
	InitialSupply int64
	MaxSupply     int64
	Properties    *transaction.AssetProperties
	Attributes    *transaction.AssetAttributes
}

// CreateAsset appends the registration of a new asset.
func (b *Builder) CreateAsset(p CreateAssetParams) *Builder {
	if b.err != nil {
		return b
	}
	if p.Name == "" || p.Ticker == "" {
		return b.fail(errors.New("builder: create asset: name and ticker are required"))
	}
	if p.Precision > 8 {
		return b.fail(fmt.Errorf("builder: create asset: precision %d out of range [0,8]", p.Precision))
	}
	if p.InitialSupply < 0 || p.MaxSupply < 0 {
		return b.fail(errors.New("builder: create asset: negative supply"))
	}
	if p.MaxSupply > 0 && p.InitialSupply > p.MaxSupply {
		return b.fail(errors.New("builder: create asset: initial supply exceeds max supply"))
	}
	owner, err := address.NewAddress(p.Owner)
	if err != nil {
		return b.fail(fmt.Errorf("builder: create asset: owner: %w", err))
	}
	return b.add(&transaction.CreateAssetContract{
		Kind:          p.Kind,
		Name:          p.Name,
		Ticker:        p.Ticker,
		OwnerAddress:  owner.Bytes(),
		Precision:     p.Precision,
		InitialSupply: p.InitialSupply,
		MaxSupply:     p.MaxSupply,
		Properties:    p.Properties,
		Attributes:    p.Attributes,
	})
}

// SmartContractParams configures a smart-contract call.
type SmartContractParams struct {
	Kind      transaction.SCKind
	Address   string // required for invoke and upgrade, empty for deploy
	CallValue []transaction.CallValue
	Input     []byte
}

// SmartContract appends a contract invocation, deployment or upgrade.
func (b *Builder) SmartContract(p SmartContractParams) *Builder {
	if b.err != nil {
		return b
	}
	var scAddr []byte
	if p.Kind != transaction.SCDeploy {
		addr, err := address.NewAddress(p.Address)
		if err != nil {
			return b.fail(fmt.Errorf("builder: smart contract: %w", err))
		}
		scAddr = addr.Bytes()
	}
	for _, cv := range p.CallValue {
		if cv.Amount < 0 {
			return b.fail(fmt.Errorf("builder: smart contract: negative call value %d", cv.Amount))
		}
	}
	return b.add(&transaction.SmartContract{
		Kind:      p.Kind,
		Address:   scAddr,
		CallValue: p.CallValue,
		Input:     p.Input,
	})
}

// The remaining variants take their payload record directly; the payload
// shape is the parameter set.

// CreateValidator appends a validator registration.
func (b *Builder) CreateValidator(c *transaction.CreateValidatorContract) *Builder {
	return b.addRecord(c, c == nil || c.Config == nil, "create validator")
}

// ValidatorConfig appends a validator reconfiguration.
func (b *Builder) ValidatorConfig(c *transaction.ValidatorConfigContract) *Builder {
	return b.addRecord(c, c == nil || c.Config == nil, "validator config")
}

// AssetTrigger appends an asset management operation.
func (b *Builder) AssetTrigger(c *transaction.AssetTriggerContract) *Builder {
	return b.addRecord(c, c == nil || len(c.AssetID) == 0, "asset trigger")
}

// ConfigITO appends an ITO configuration.
func (b *Builder) ConfigITO(c *transaction.ConfigITOContract) *Builder {
	return b.addRecord(c, c == nil || len(c.AssetID) == 0, "config ITO")
}

// SetITOPrices appends an ITO price update.
func (b *Builder) SetITOPrices(c *transaction.SetITOPricesContract) *Builder {
	return b.addRecord(c, c == nil || len(c.AssetID) == 0, "set ITO prices")
}

// Buy appends an ITO or marketplace buy order.
func (b *Builder) Buy(c *transaction.BuyContract) *Builder {
	return b.addRecord(c, c == nil || len(c.ID) == 0 || c.Amount < 0, "buy")
}

// Sell appends a marketplace listing.
func (b *Builder) Sell(c *transaction.SellContract) *Builder {
	return b.addRecord(c, c == nil || len(c.AssetID) == 0 || len(c.MarketplaceID) == 0, "sell")
}

// CancelMarketOrder appends the cancellation of an open order.
func (b *Builder) CancelMarketOrder(orderID string) *Builder {
	if b.err != nil {
		return b
	}
	if orderID == "" {
		return b.fail(errors.New("builder: cancel market order: empty order id"))
	}
	return b.add(&transaction.CancelMarketOrderContract{OrderID: []byte(orderID)})
}

// CreateMarketplace appends a marketplace registration.
func (b *Builder) CreateMarketplace(c *transaction.CreateMarketplaceContract) *Builder {
	return b.addRecord(c, c == nil || c.Name == "", "create marketplace")
}

// ConfigMarketplace appends a marketplace reconfiguration.
func (b *Builder) ConfigMarketplace(c *transaction.ConfigMarketplaceContract) *Builder {
	return b.addRecord(c, c == nil || len(c.MarketplaceID) == 0, "config marketplace")
}

// UpdateAccountPermission appends a replacement of the sender's permission
// sets.
func (b *Builder) UpdateAccountPermission(c *transaction.UpdateAccountPermissionContract) *Builder {
	return b.addRecord(c, c == nil || len(c.Permissions) == 0, "update account permission")
}

// Deposit appends a payment into an FPR or KDA fee pool.
func (b *Builder) Deposit(c *transaction.DepositContract) *Builder {
	return b.addRecord(c, c == nil || len(c.ID) == 0 || c.Amount <= 0, "deposit")
}

// ITOTrigger appends an ITO management operation.
func (b *Builder) ITOTrigger(c *transaction.ITOTriggerContract) *Builder {
	return b.addRecord(c, c == nil || len(c.AssetID) == 0, "ITO trigger")
}

// AddContract appends any contract payload without variant-specific
// validation, for callers assembling records themselves.
func (b *Builder) AddContract(payload interface{}) *Builder {
	return b.add(payload)
}

// addRecord is the shared guard for the record-taking variant methods.
func (b *Builder) addRecord(payload interface{}, invalid bool, what string) *Builder {
	if b.err != nil {
		return b
	}
	if invalid {
		return b.fail(fmt.Errorf("builder: %s: missing or invalid parameters", what))
	}
	return b.add(payload)
}

// assetID converts a textual asset id; empty means the native coin and
// encodes as no bytes at all.
func assetID(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
