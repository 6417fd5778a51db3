package auth

// Gate reports whether the current client is authenticated.
type Gate interface {
	IsAuthenticated() bool
}

// GateFunc adapts a function to a Gate.
type GateFunc func() bool

// IsAuthenticated calls f.
func (f GateFunc) IsAuthenticated() bool { return f() }

// Open and Closed are constant gates.
var (
	Open   Gate = GateFunc(func() bool { return true })
	Closed Gate = GateFunc(func() bool { return false })
)
