package naming

import "sync"

// OutputClaims tracks which input produced each output path during one
// run. Two sources can normalize to the same name ("a.x264.mkv" and
// "a.h264.mkv"); only the first may write it. All methods are
// goroutine-safe.
type OutputClaims struct {
	mu     sync.Mutex
	owners map[string]string // output path → input path that owns it
}

// NewOutputClaims creates a ready-to-use tracker.
func NewOutputClaims() *OutputClaims {
	return &OutputClaims{owners: make(map[string]string)}
}

// Claim registers input as the owner of output. It returns the existing
// owner and false when a different input already claimed it.
func (c *OutputClaims) Claim(input, output string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, exists := c.owners[output]
	if exists && owner != input {
		return owner, false
	}
	c.owners[output] = input
	return input, true
}
