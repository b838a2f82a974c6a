package config

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// StyleWrapper wraps tcell.Style and implements TOML unmarshalling.
// In TOML it is represented as a table with optional "foreground",
// "background", and "attributes" string fields.
type StyleWrapper struct {
	tcell.Style

	// tview color tag parts, kept alongside the style for inline markup.
	fg, bg, attrs string
}

// UnmarshalTOML implements the toml.Unmarshaler interface.
func (s *StyleWrapper) UnmarshalTOML(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("expected table for style, got %T", data)
	}

	fg, _ := m["foreground"].(string)
	bg, _ := m["background"].(string)
	attrs, _ := m["attributes"].(string)

	mask, err := stringToAttrMask(attrs)
	if err != nil {
		return err
	}

	*s = newStyle(fg, bg, attrsToTviewString(attrs), mask)
	return nil
}

func newStyle(fg, bg, tviewAttrs string, mask tcell.AttrMask) StyleWrapper {
	style := tcell.StyleDefault
	if fg != "" {
		style = style.Foreground(tcell.GetColor(fg))
	}
	if bg != "" {
		style = style.Background(tcell.GetColor(bg))
	}
	if mask != 0 {
		style = style.Attributes(mask)
	}
	return StyleWrapper{Style: style, fg: fg, bg: bg, attrs: tviewAttrs}
}

// makeStyle builds a style from tview attribute letters ("b", "bu", ...).
func makeStyle(fg, bg, attrs string) StyleWrapper {
	var mask tcell.AttrMask
	for _, r := range attrs {
		mask |= tviewAttrs[r]
	}
	return newStyle(fg, bg, attrs, mask)
}

// Tag returns the tview color tag that applies the style inline.
func (s StyleWrapper) Tag() string {
	fg, bg := orDash(s.fg), orDash(s.bg)
	switch {
	case s.attrs != "":
		return "[" + fg + ":" + bg + ":" + s.attrs + "]"
	case s.bg != "":
		return "[" + fg + ":" + bg + ":-]"
	}
	return "[" + fg + "]"
}

// Reset returns the tag that undoes Tag.
func (s StyleWrapper) Reset() string {
	switch {
	case s.attrs != "":
		return "[-::-]"
	case s.bg != "":
		return "[-:-]"
	}
	return "[-]"
}

// Foreground returns the style's foreground color.
func (s StyleWrapper) Foreground() tcell.Color {
	fg, _, _ := s.Style.Decompose()
	return fg
}

// Background returns the style's background color.
func (s StyleWrapper) Background() tcell.Color {
	_, bg, _ := s.Style.Decompose()
	return bg
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var tviewAttrs = map[rune]tcell.AttrMask{
	'b': tcell.AttrBold,
	'i': tcell.AttrItalic,
	'u': tcell.AttrUnderline,
	'd': tcell.AttrDim,
	'r': tcell.AttrReverse,
	'l': tcell.AttrBlink,
	's': tcell.AttrStrikeThrough,
}

var attrLetters = map[string]string{
	"bold":          "b",
	"italic":        "i",
	"underline":     "u",
	"dim":           "d",
	"reverse":       "r",
	"blink":         "l",
	"strikethrough": "s",
}

// attrsToTviewString converts "bold|underline" into tview's "bu".
func attrsToTviewString(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "|") {
		b.WriteString(attrLetters[strings.TrimSpace(strings.ToLower(part))])
	}
	return b.String()
}

// stringToAttrMask parses a pipe-separated list of attribute names into
// a tcell.AttrMask. For example: "bold|underline".
func stringToAttrMask(s string) (tcell.AttrMask, error) {
	var mask tcell.AttrMask
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "none" || part == "" {
			continue
		}
		letter, ok := attrLetters[part]
		if !ok {
			return 0, fmt.Errorf("unknown style attribute: %q", part)
		}
		mask |= tviewAttrs[rune(letter[0])]
	}
	return mask, nil
}

// Theme holds the complete theme configuration.
type Theme struct {
	Preset       string            `toml:"preset"`
	Border       BorderTheme       `toml:"border"`
	Title        TitleTheme        `toml:"title"`
	ChannelsList ChannelsListTheme `toml:"channels_list"`
	StatusBar    StatusBarTheme    `toml:"status_bar"`
	Modal        ModalTheme        `toml:"modal"`
}

// BorderTheme configures border styling.
type BorderTheme struct {
	Focused StyleWrapper `toml:"focused"`
	Normal  StyleWrapper `toml:"normal"`
}

// TitleTheme configures title bar styling.
type TitleTheme struct {
	Focused StyleWrapper `toml:"focused"`
	Normal  StyleWrapper `toml:"normal"`
}

// ChannelsListTheme configures the channel list styling.
type ChannelsListTheme struct {
	Channel  StyleWrapper `toml:"channel"`
	Active   StyleWrapper `toml:"active"`
	Unread   StyleWrapper `toml:"unread"`
	Preview  StyleWrapper `toml:"preview"`
	Online   StyleWrapper `toml:"online"`
	Selected StyleWrapper `toml:"selected"`
}

// StatusBarTheme configures the status bar styling.
type StatusBarTheme struct {
	Text       StyleWrapper `toml:"text"`
	Background StyleWrapper `toml:"background"`
	Error      StyleWrapper `toml:"error"`
}

// ModalTheme configures popups such as the channel picker.
type ModalTheme struct {
	InputBackground StyleWrapper `toml:"input_background"`
	SecondaryText   StyleWrapper `toml:"secondary_text"`
}
