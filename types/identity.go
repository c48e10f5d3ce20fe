package types

// Identity is an opaque, comparable reference to a caller, typically an
// account address supplied by the wallet/authentication layer. The core never
// inspects it; equality is the only operation it needs.
type Identity string

// NoIdentity is the zero Identity.
const NoIdentity Identity = ""

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i == NoIdentity }

// String returns the raw identity value.
func (i Identity) String() string { return string(i) }
