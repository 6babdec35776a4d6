// Package nameregistry resolves and reserves experiment names in a flat
// on-disk directory, so that concurrent invocations of the tool cannot pick
// the same name out from under one another.
package nameregistry

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var adjectives = []string{
	"swift", "calm", "bold", "quiet", "sharp", "bright", "dense", "wry",
	"stark", "terse", "loose", "tight", "grim", "lean", "keen", "blunt",
}

var nouns = []string{
	"otter", "falcon", "ember", "basin", "ridge", "lichen", "anvil", "cairn",
	"marsh", "quarry", "thicket", "shale", "grove", "delta", "spindle",
}

// Registry tracks reserved experiment names as zero-length files under Dir.
type Registry struct {
	Dir string
}

// New returns a Registry rooted at dir, creating it if necessary.
func New(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("nameregistry: create %s: %w", dir, err)
	}
	return &Registry{Dir: dir}, nil
}

func (r *Registry) path(name string) string {
	return filepath.Join(r.Dir, name)
}

// Exists reports whether name is already reserved.
func (r *Registry) Exists(name string) bool {
	_, err := os.Stat(r.path(name))
	return err == nil
}

// Reserve atomically creates the registry file for name, failing if it
// already exists. This is the race-free collision check: two concurrent
// invocations racing on the same name, only one Reserve call succeeds.
func (r *Registry) Reserve(name string) error {
	f, err := os.OpenFile(r.path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("nameregistry: name %q already reserved", name)
		}
		return fmt.Errorf("nameregistry: reserve %q: %w", name, err)
	}
	return f.Close()
}

// Generate produces a random name of the form "<adjective>-<noun>". It does
// not consult any registry; Resolve checks candidates for collisions and
// falls back to a uuid-suffixed name (the word lists are finite).
func Generate(r *rand.Rand) string {
	return fmt.Sprintf("%s-%s", adjectives[r.Intn(len(adjectives))], nouns[r.Intn(len(nouns))])
}

// Resolve settles on the experiment name to use for a run. If requested is
// non-empty, it is used as-is and the caller must still call Reserve (a
// requested name that collides is a configuration error, per §7.1). If
// requested is empty, Resolve generates names until it finds one that is
// not already reserved, falling back to a uuid-suffixed name after several
// attempts against the same registry.
func (r *Registry) Resolve(requested string, rnd *rand.Rand) (string, error) {
	if requested != "" {
		return requested, nil
	}
	const maxAttempts = 20
	for i := 0; i < maxAttempts; i++ {
		candidate := Generate(rnd)
		if !r.Exists(candidate) {
			return candidate, nil
		}
	}
	return fmt.Sprintf("run-%s", uuid.New().String()), nil
}
