package transaction

import "encoding/json"

// RequestContract is one operation inside a build request: the discriminant
// plus the typed payload rendered as JSON rather than wire bytes.
type RequestContract struct {
	Type    ContractType `json:"type"`
	Payload interface{}  `json:"payload"`
}

// Request is the node-side build request: a plain JSON mirror of the raw
// transaction minus nonce and fees, which the node fills in before
// returning a signable transaction. It travels over a textual channel, so
// addresses are bech32 strings and blobs are hex. Field names are stable;
// there is no bit-exactness requirement on this shape.
//
// A Request is not wire-encoded and not signable; it is the output of the
// request-only build mode and the input of fee estimation.
type Request struct {
	Sender       string            `json:"sender"`
	Contracts    []RequestContract `json:"contracts"`
	PermissionID int32             `json:"permissionId,omitempty"`
	Data         []string          `json:"data,omitempty"`
	ChainID      string            `json:"chainId,omitempty"`
}

// MarshalJSON keeps the zero contract list rendered as [] rather than null,
// which some node versions reject.
func (r *Request) MarshalJSON() ([]byte, error) {
	type alias Request
	a := (*alias)(r)
	if a.Contracts == nil {
		a.Contracts = []RequestContract{}
	}
	return json.Marshal(a)
}
