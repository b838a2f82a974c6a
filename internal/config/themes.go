package config

// BuiltinTheme returns a fully populated Theme for the given preset name.
// Unknown names fall back to "default".
func BuiltinTheme(name string) Theme {
	switch name {
	case "dark":
		return darkTheme()
	case "light":
		return lightTheme()
	case "monokai":
		return monokaiTheme()
	case "solarized_dark":
		return solarizedDarkTheme()
	case "solarized_light":
		return solarizedLightTheme()
	default:
		return defaultTheme()
	}
}

// BuiltinThemes lists every preset name.
func BuiltinThemes() []string {
	return []string{"default", "dark", "light", "monokai", "solarized_dark", "solarized_light"}
}

// palette holds the handful of colors a preset is derived from.
type palette struct {
	fg, muted, accent, active, online, unread, errFg, barFg, barBg string
}

func (p palette) theme(name string) Theme {
	return Theme{
		Preset: name,
		Border: BorderTheme{
			Focused: makeStyle(p.accent, "", ""),
			Normal:  makeStyle(p.muted, "", ""),
		},
		Title: TitleTheme{
			Focused: makeStyle(p.fg, "", "b"),
			Normal:  makeStyle(p.muted, "", ""),
		},
		ChannelsList: ChannelsListTheme{
			Channel:  makeStyle(p.fg, "", ""),
			Active:   makeStyle(p.active, "", "b"),
			Unread:   makeStyle(p.unread, "", "b"),
			Preview:  makeStyle(p.muted, "", "d"),
			Online:   makeStyle(p.online, "", ""),
			Selected: makeStyle(p.fg, "", "r"),
		},
		StatusBar: StatusBarTheme{
			Text:       makeStyle(p.barFg, "", ""),
			Background: makeStyle("", p.barBg, ""),
			Error:      makeStyle(p.errFg, "", "b"),
		},
		Modal: ModalTheme{
			InputBackground: makeStyle("", "", ""),
			SecondaryText:   makeStyle(p.muted, "", ""),
		},
	}
}

// defaultTheme uses the terminal's named colors.
func defaultTheme() Theme {
	return palette{
		fg: "white", muted: "gray", accent: "blue", active: "blue", online: "green",
		unread: "white", errFg: "red", barFg: "white", barBg: "darkblue",
	}.theme("default")
}

func darkTheme() Theme {
	return palette{
		fg: "#d0d0d0", muted: "#6c6c6c", accent: "#5f87d7", active: "#87afff", online: "#5faf5f",
		unread: "#ffffff", errFg: "#ff5f5f", barFg: "#d0d0d0", barBg: "#262626",
	}.theme("dark")
}

func lightTheme() Theme {
	return palette{
		fg: "#1c1c1c", muted: "#808080", accent: "#005fd7", active: "#005faf", online: "#008700",
		unread: "#000000", errFg: "#d70000", barFg: "#1c1c1c", barBg: "#d0d0d0",
	}.theme("light")
}

func monokaiTheme() Theme {
	return palette{
		fg: "#f8f8f2", muted: "#75715e", accent: "#66d9ef", active: "#a6e22e", online: "#a6e22e",
		unread: "#f8f8f2", errFg: "#f92672", barFg: "#f8f8f2", barBg: "#3e3d32",
	}.theme("monokai")
}

func solarizedDarkTheme() Theme {
	return palette{
		fg: "#839496", muted: "#586e75", accent: "#268bd2", active: "#2aa198", online: "#859900",
		unread: "#eee8d5", errFg: "#dc322f", barFg: "#93a1a1", barBg: "#073642",
	}.theme("solarized_dark")
}

func solarizedLightTheme() Theme {
	return palette{
		fg: "#657b83", muted: "#93a1a1", accent: "#268bd2", active: "#2aa198", online: "#859900",
		unread: "#073642", errFg: "#dc322f", barFg: "#073642", barBg: "#eee8d5",
	}.theme("solarized_light")
}
