package config

// Keybinds holds all keybinding configuration. Values are plain strings
// matching the tcell.EventKey.Name() format (e.g. "Rune[j]", "Ctrl+W", "Enter").
type Keybinds struct {
	Quit          string `toml:"quit"`
	Reload        string `toml:"reload"`
	ChannelPicker string `toml:"channel_picker"`
	ClearActive   string `toml:"clear_active"`

	ChannelsList   ChannelsListKeybinds   `toml:"channels_list"`
	ChannelsPicker ChannelsPickerKeybinds `toml:"channels_picker"`
}

// ChannelsListKeybinds holds keybindings for the channel list panel.
type ChannelsListKeybinds struct {
	Up            string `toml:"up"`
	Down          string `toml:"down"`
	Top           string `toml:"top"`
	Bottom        string `toml:"bottom"`
	SelectCurrent string `toml:"select_current"`
	LoadMore      string `toml:"load_more"`
}

// ChannelsPickerKeybinds holds keybindings for the channel picker popup.
type ChannelsPickerKeybinds struct {
	Close  string `toml:"close"`
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Select string `toml:"select"`
}
