package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/consts"
)

//go:embed config.toml
var defaultConfig []byte

// Config holds the application configuration.
type Config struct {
	UI          UI          `toml:"ui"`
	ChannelList ChannelList `toml:"channel_list"`

	Keybinds Keybinds `toml:"keybinds"`
	Theme    Theme    `toml:"theme"`
}

// UI controls presentation.
type UI struct {
	Mouse             bool `toml:"mouse"`
	ASCIIIcons        bool `toml:"ascii_icons"`
	ShowPreview       bool `toml:"show_preview"`
	LoadMoreThreshold int  `toml:"load_more_threshold"`
	Notifications     bool `toml:"notifications"`
}

// ChannelList configures how the channel list queries and reconciles.
type ChannelList struct {
	LockChannelOrder                       bool   `toml:"lock_channel_order"`
	AllowNewMessagesFromUnfilteredChannels bool   `toml:"allow_new_messages_from_unfiltered_channels"`
	SetActiveChannelOnMount                bool   `toml:"set_active_channel_on_mount"`
	CustomActiveChannel                    string `toml:"custom_active_channel"`
	PageLimit                              int    `toml:"page_limit"`
	ReorderOnUpdate                        bool   `toml:"reorder_on_update"`

	// HideTypes are filtered out of the panel but stay in the list.
	HideTypes []string `toml:"hide_types"`

	Sort    []SortField `toml:"sort"`
	Filters Filters     `toml:"filters"`
}

// SortField is one [[channel_list.sort]] entry.
type SortField struct {
	Field     string `toml:"field"`
	Direction string `toml:"direction"`
}

// Filters restricts which channels the query returns.
type Filters struct {
	Types           []string `toml:"types"`
	ExcludeArchived bool     `toml:"exclude_archived"`
	MemberOnly      bool     `toml:"member_only"`
}

var channelTypes = []string{
	chanlist.TypePublic,
	chanlist.TypePrivate,
	chanlist.TypeDM,
	chanlist.TypeGroupDM,
	chanlist.TypeShared,
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, consts.Name, "config.toml")
}

// Load reads the config from the given path. If the file does not exist,
// it writes the default config and loads that. Config loading is two-phase:
// embedded defaults are applied first, then the user file overlays on top.
func Load(path string) (*Config, error) {
	// Phase 1: unmarshal embedded defaults.
	var cfg Config
	if err := toml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}

	// Write default config if file does not exist.
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, defaultConfig, 0o600); err != nil {
			return nil, err
		}
	}

	// The preset fills every style before the user's own overrides apply.
	var probe struct {
		Theme struct {
			Preset string `toml:"preset"`
		} `toml:"theme"`
	}
	if _, err := toml.DecodeFile(path, &probe); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	preset := cfg.Theme.Preset
	if probe.Theme.Preset != "" {
		preset = probe.Theme.Preset
	}
	cfg.Theme = BuiltinTheme(preset)

	// Phase 2: overlay user file on top of defaults.
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// applyDefaults resolves computed defaults that can't be expressed in TOML.
func applyDefaults(cfg *Config) {
	if cfg.ChannelList.PageLimit == 0 {
		cfg.ChannelList.PageLimit = chanlist.DefaultPageLimit
	}
	if cfg.UI.LoadMoreThreshold < 0 {
		cfg.UI.LoadMoreThreshold = 0
	}
	if !slices.Contains(BuiltinThemes(), cfg.Theme.Preset) {
		cfg.Theme.Preset = "default"
	}
}

// validate checks that config values are within acceptable ranges.
func validate(cfg *Config) error {
	cl := cfg.ChannelList
	if cl.PageLimit < 1 || cl.PageLimit > chanlist.MaxPageLimit {
		return fmt.Errorf("channel_list.page_limit must be between 1 and %d, got %d",
			chanlist.MaxPageLimit, cl.PageLimit)
	}
	if _, err := cl.SortSpec(); err != nil {
		return fmt.Errorf("channel_list.sort: %w", err)
	}
	for _, t := range cl.Filters.Types {
		if !slices.Contains(channelTypes, t) {
			return fmt.Errorf("channel_list.filters.types: unknown type %q", t)
		}
	}
	for _, t := range cl.HideTypes {
		if !slices.Contains(channelTypes, t) {
			return fmt.Errorf("channel_list.hide_types: unknown type %q", t)
		}
	}
	return nil
}

// SortSpec converts the [[channel_list.sort]] entries.
func (cl ChannelList) SortSpec() (chanlist.SortSpec, error) {
	spec := make(chanlist.SortSpec, 0, len(cl.Sort))
	for _, s := range cl.Sort {
		dir, err := chanlist.ParseDirection(s.Direction)
		if err != nil {
			return nil, err
		}
		spec = append(spec, chanlist.SortOption{Field: chanlist.SortField(s.Field), Direction: dir})
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// ListOptions converts the table into options for chanlist.New. The config
// must have passed validation.
func (cl ChannelList) ListOptions() []chanlist.Option {
	spec, _ := cl.SortSpec()
	opts := []chanlist.Option{
		chanlist.WithPageLimit(cl.PageLimit),
		chanlist.WithSort(spec),
		chanlist.WithFilters(chanlist.Filters{
			Types:           slices.Clone(cl.Filters.Types),
			ExcludeArchived: cl.Filters.ExcludeArchived,
			MemberOnly:      cl.Filters.MemberOnly,
		}),
		chanlist.WithLockChannelOrder(cl.LockChannelOrder),
		chanlist.WithAllowNewMessagesFromUnfilteredChannels(cl.AllowNewMessagesFromUnfilteredChannels),
		chanlist.WithSetActiveChannelOnMount(cl.SetActiveChannelOnMount),
		chanlist.WithCustomActiveChannel(cl.CustomActiveChannel),
		chanlist.WithReorderOnUpdate(cl.ReorderOnUpdate),
	}
	if len(cl.HideTypes) > 0 {
		hidden := slices.Clone(cl.HideTypes)
		opts = append(opts, chanlist.WithRenderFilter(func(items []chanlist.Channel) []chanlist.Channel {
			return slices.DeleteFunc(items, func(c chanlist.Channel) bool {
				return slices.Contains(hidden, c.Type)
			})
		}))
	}
	return opts
}
