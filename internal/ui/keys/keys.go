package keys

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Normalize converts tcell key names to the config format.
// tcell outputs "Ctrl-C" (hyphen) for bare Ctrl keys but config uses "Ctrl+C" (plus).
func Normalize(name string) string {
	return strings.ReplaceAll(name, "Ctrl-", "Ctrl+")
}

// Matches reports whether event is the key bound to binding. An empty
// binding never matches.
func Matches(event *tcell.EventKey, binding string) bool {
	if binding == "" || event == nil {
		return false
	}
	return Normalize(event.Name()) == binding
}
