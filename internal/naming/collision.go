package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks output paths claimed by input files and resolves
// duplicates (e.g. a/clip.mov and b/clip.mp4 both mapping to
// clip_rec709.mp4) by appending " - dupN" suffixes. Resolving inputs in
// submission order makes the result deterministic. Goroutine-safe.
type CollisionResolver struct {
	mu     sync.Mutex
	owners map[string]string // lowercased output path → owning input
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{owners: make(map[string]string)}
}

// Resolve returns the output path for input. An unclaimed requested path
// (or one input already owns) is returned unchanged; otherwise the lowest
// free " - dupN" variant is claimed.
func (cr *CollisionResolver) Resolve(input, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.claim(input, requested) {
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, n, ext))
		if cr.claim(input, candidate) {
			return candidate
		}
	}
}

// claim records input as the owner of path if it is free. Caller holds mu.
func (cr *CollisionResolver) claim(input, path string) bool {
	key := strings.ToLower(filepath.Clean(path))
	owner, taken := cr.owners[key]
	if taken && owner != input {
		return false
	}
	cr.owners[key] = input
	return true
}
