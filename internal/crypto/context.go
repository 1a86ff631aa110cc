package crypto

// Role is the purpose a Context was created for.
type Role uint8

const (
	// RoleSign marks a context used to produce signatures.
	RoleSign Role = iota + 1

	// RoleVerify marks a context used to check signatures.
	RoleVerify
)

// DefaultDST is the domain separation tag for certificate signatures.
var DefaultDST = []byte("QUORUMCORE_BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

// Context is a reusable signing or verifying context.
// It is created once per role and is safe to share between goroutines:
// nothing in it changes after construction.
type Context struct {
	role Role   // role is the purpose of the context
	dst  []byte // dst is the domain separation tag
}

// NewSigningContext creates a signing context for the given tag.
// A nil tag selects DefaultDST.
func NewSigningContext(dst []byte) *Context {
	return newContext(RoleSign, dst)
}

// NewVerifyingContext creates a verifying context for the given tag.
// A nil tag selects DefaultDST.
func NewVerifyingContext(dst []byte) *Context {
	return newContext(RoleVerify, dst)
}

func newContext(role Role, dst []byte) *Context {
	if dst == nil {
		dst = DefaultDST
	}

	tag := make([]byte, len(dst))
	copy(tag, dst)

	return &Context{role: role, dst: tag}
}

// Role returns the role of the context, zero for a nil context.
func (c *Context) Role() Role {
	if c == nil {
		return 0
	}
	return c.role
}

// String returns "sign", "verify" or "none".
func (r Role) String() string {
	switch r {
	case RoleSign:
		return "sign"
	case RoleVerify:
		return "verify"
	default:
		return "none"
	}
}

// can reports whether c is a non-nil context of the given role.
func (c *Context) can(role Role) bool {
	return c.Role() == role
}
