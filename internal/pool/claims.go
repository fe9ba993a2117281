package pool

import (
	"sync"

	"curator/internal/digest"
	"curator/internal/scanner"
)

// Claims records every digest bound to an entry during a run. A digest is
// claimed at most once; later claims fail.
type Claims struct {
	mu  sync.Mutex
	set map[digest.Digest]string
}

// NewClaims returns an empty claim registry.
func NewClaims() *Claims {
	return &Claims{set: make(map[digest.Digest]string)}
}

// Seed marks digests as already owned, for example by entries the scan found OK.
func (c *Claims) Seed(owner string, digests ...digest.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range digests {
		if _, ok := c.set[d]; !ok {
			c.set[d] = owner
		}
	}
}

// Claim binds d to owner. It reports false when d was already claimed.
func (c *Claims) Claim(d digest.Digest, owner string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.set[d]; ok {
		return false
	}
	c.set[d] = owner
	return true
}

// Release drops a claim held by owner, used when a write fails after the
// digest was reserved.
func (c *Claims) Release(d digest.Digest, owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set[d] == owner {
		delete(c.set, d)
	}
}

// Has reports whether d is claimed.
func (c *Claims) Has(d digest.Digest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.set[d]
	return ok
}

// Owner returns the entry holding d.
func (c *Claims) Owner(d digest.Digest) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.set[d]
	return owner, ok
}

// Len returns the number of claimed digests.
func (c *Claims) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.set)
}

// ClaimsFromScan seeds a registry with every digest a scan found owned: OK
// entries and the canonical owner of each duplicate group.
func ClaimsFromScan(result *scanner.Result) *Claims {
	c := NewClaims()
	if result == nil {
		return c
	}
	for _, owned := range result.OK {
		c.Seed(owned.Entry.ID, owned.Digest)
	}
	for _, group := range result.Duplicates {
		c.Seed(group.Canonical.ID, group.Digest)
	}
	return c
}
