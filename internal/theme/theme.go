// Package theme stores the light/dark display preference.
package theme

import (
	"fmt"

	"github.com/sadopc/focuskit/internal/store"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// Current returns the stored theme, light when unset or unreadable.
func Current(kv store.KV) Theme {
	t, err := Parse(store.Value(kv, store.KeyTheme, string(Light)))
	if err != nil {
		return Light
	}
	return t
}

func Set(kv store.KV, t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	return kv.Set(store.KeyTheme, string(t))
}

// Toggle flips between light and dark and returns the new theme.
func Toggle(kv store.KV) (Theme, error) {
	next := Dark
	if Current(kv) == Dark {
		next = Light
	}
	if err := Set(kv, next); err != nil {
		return Current(kv), err
	}
	return next, nil
}
