package core

// ChainMetadata carries the slot-time (and, for v0, the slot number and
// block/finalized heights) visible to a running contract. Grounds on
// cargo-concordium/src/context.rs's ChainMetadata.
type ChainMetadata struct {
	SlotTime        int64 // milliseconds since epoch
	SlotNumber      uint64
	BlockHeight     uint64
	FinalizedHeight uint64
}

// IdentityAttribute is one attribute/value pair from an account's
// identity, as asserted by the chain's identity layer.
type IdentityAttribute struct {
	Tag   uint8
	Value []byte
}

// Policy is one credential's identity-attribute policy, attached to the
// account that owns the contract invocation. Supplements spec.md, which
// does not model identity policies; grounded on
// cargo-concordium/src/context.rs's Policy/Policies types.
type Policy struct {
	ValidTo    int64
	CreatedAt  int64
	Attributes []IdentityAttribute
}

// HasCommon is the capability every context (init or receive) provides:
// the parameter bytes and chain metadata. Mirrors the HasCommon trait
// split in rust-contracts/concordium-sc-base/src/traits.rs, kept here as
// an interface so host_dispatch.go can share decode logic across init
// and receive without a type switch at every call site.
type HasCommon interface {
	Parameter() []byte
	Metadata() ChainMetadata
	Policies() []Policy
}

// InitContext is visible during a contract's init entrypoint.
type InitContext struct {
	Param     []byte
	Meta      ChainMetadata
	Pol       []Policy
	Origin    AccountAddress
	InitOrigin AccountAddress
}

func (c *InitContext) Parameter() []byte     { return c.Param }
func (c *InitContext) Metadata() ChainMetadata { return c.Meta }
func (c *InitContext) Policies() []Policy    { return c.Pol }

// HasInitContext adds the init-only accessor.
type HasInitContext interface {
	HasCommon
	GetInitOrigin() AccountAddress
}

func (c *InitContext) GetInitOrigin() AccountAddress { return c.InitOrigin }

// Address is either an account or a contract, the two kinds of sender a
// receive invocation can have.
type Address struct {
	IsContract bool
	Account    AccountAddress
	Contract   ContractAddress
}

// ReceiveContext is visible during a contract's receive entrypoint.
type ReceiveContext struct {
	Param       []byte
	Meta        ChainMetadata
	Pol         []Policy
	Invoker     AccountAddress
	SelfAddress ContractAddress
	SelfBalance Amount
	Sender      Address
	Owner       AccountAddress
}

func (c *ReceiveContext) Parameter() []byte       { return c.Param }
func (c *ReceiveContext) Metadata() ChainMetadata { return c.Meta }
func (c *ReceiveContext) Policies() []Policy      { return c.Pol }

// HasReceiveContext adds the receive-only accessors.
type HasReceiveContext interface {
	HasCommon
	GetReceiveInvoker() AccountAddress
	GetReceiveSelfAddress() ContractAddress
	GetReceiveSelfBalance() Amount
	GetReceiveSender() Address
	GetReceiveOwner() AccountAddress
}

func (c *ReceiveContext) GetReceiveInvoker() AccountAddress     { return c.Invoker }
func (c *ReceiveContext) GetReceiveSelfAddress() ContractAddress { return c.SelfAddress }
func (c *ReceiveContext) GetReceiveSelfBalance() Amount         { return c.SelfBalance }
func (c *ReceiveContext) GetReceiveSender() Address             { return c.Sender }
func (c *ReceiveContext) GetReceiveOwner() AccountAddress       { return c.Owner }
