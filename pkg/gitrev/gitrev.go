// Package gitrev resolves the current repository revision as an opaque
// string for embedding in a trial's log preamble.
package gitrev

import (
	"os/exec"
	"strings"
)

// Current returns the output of `git rev-parse HEAD` with trailing
// whitespace trimmed, or the empty string if git is unavailable or the
// working directory is not a repository. The revision is never more than
// an opaque identifier to the rest of the system.
func Current() string {
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
