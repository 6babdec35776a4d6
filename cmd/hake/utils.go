package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arnegard/hake/pkg/axis"
)

// parseTimeout parses §6's duration grammar: a bare integer is seconds, or
// the integer may carry a single s/m/h/d suffix; 0 means no limit (returns
// 0, nil).
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	unit := time.Second
	numeric := s
	switch s[len(s)-1] {
	case 's':
		unit, numeric = time.Second, s[:len(s)-1]
	case 'm':
		unit, numeric = time.Minute, s[:len(s)-1]
	case 'h':
		unit, numeric = time.Hour, s[:len(s)-1]
	case 'd':
		unit, numeric = 24*time.Hour, s[:len(s)-1]
	}

	n, err := strconv.ParseInt(numeric, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid --timeout %q: %w", s, err)
	}
	if n == 0 {
		return 0, nil
	}
	return time.Duration(n) * unit, nil
}

// resolveRecipe returns the recipe path: explicit -f value, else the first
// of Hakefile/Makefile that exists.
func resolveRecipe(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("recipe file %q: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, candidate := range []string{"Hakefile", "Makefile"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no recipe file found (tried Hakefile, Makefile); pass -f explicitly")
}

// splitPositional separates the positional args into the build target (the
// first token that isn't a KEY=VALUE pair) and the parameter Map built from
// every KEY=VALUE token, per §6's positional grammar.
func splitPositional(args []string) (target string, m axis.Map, err error) {
	for _, tok := range args {
		key, a, ok, parseErr := axis.ParseKV(tok)
		if parseErr != nil {
			return "", axis.Map{}, fmt.Errorf("axis %q: %w", tok, parseErr)
		}
		if ok {
			m.Add(key, a)
			continue
		}
		if target != "" {
			return "", axis.Map{}, fmt.Errorf("unexpected extra positional target %q (already have %q)", tok, target)
		}
		target = tok
	}
	return target, m, nil
}
