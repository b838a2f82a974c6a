package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ctrl-C", "Ctrl+C"},
		{"Ctrl-K", "Ctrl+K"},
		{"Rune[j]", "Rune[j]"},
		{"Enter", "Enter"},
		{"Esc", "Esc"},
		{"Ctrl-Shift-A", "Ctrl+Shift-A"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		event   *tcell.EventKey
		binding string
		want    bool
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), "Rune[j]", true},
		{"other rune", tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone), "Rune[j]", false},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "Enter", true},
		{"ctrl", tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl), "Ctrl+R", true},
		{"empty binding", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "", false},
		{"nil event", nil, "Enter", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.event, tt.binding); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.binding, got, tt.want)
			}
		})
	}
}
