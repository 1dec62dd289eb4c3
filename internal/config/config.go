package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the config file the CLI looks for in the working directory.
const DefaultConfigPath = "spritesgg.config.json"

// Entity type names used as profile keys and in type_overrides.
const (
	TypeHero   = "hero"
	TypeEnemy  = "enemy"
	TypeNPC    = "npc"
	TypeItem   = "item"
	TypeWeapon = "weapon"
)

// KnownTypes lists every entity type name.
var KnownTypes = []string{TypeHero, TypeEnemy, TypeNPC, TypeItem, TypeWeapon}

// Stitch modes.
const (
	StitchMontage = "montage"
	StitchAppend  = "append"
)

// Backends.
const (
	BackendMagick = "magick"
	BackendNative = "native"
)

// Config holds all spritegg configuration.
type Config struct {
	// Frame pixel size [width, height].
	FrameSize []int `yaml:"frame_size" json:"frame_size"`

	// Direction order as stored in source folders.
	InputDirectionOrder []string `yaml:"input_direction_order" json:"input_direction_order"`

	// Attack folder candidates, highest priority first.
	AttackFolderPriority []string `yaml:"attack_folder_priority" json:"attack_folder_priority"`

	// Named extra attack folders (shield only).
	AttackExtraFolders []string `yaml:"attack_extra_folders" json:"attack_extra_folders"`

	// Per entity type layout.
	Profiles map[string]Profile `yaml:"profiles" json:"profiles"`

	// Exact folder name -> entity type.
	TypeOverrides map[string]string `yaml:"type_overrides" json:"type_overrides"`

	// Distribution root and target trees relative to it.
	GameRoot string   `yaml:"game_root" json:"game_root"`
	Targets  []string `yaml:"targets" json:"targets"`

	Stitch  StitchConfig  `yaml:"stitch" json:"stitch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// StitchConfig configures sheet composition.
type StitchConfig struct {
	Mode     string `yaml:"mode" json:"mode"`         // montage, append
	Backend  string `yaml:"backend" json:"backend"`   // magick, native
	Precheck bool   `yaml:"precheck" json:"precheck"` // validate frames first
	Timeout  string `yaml:"timeout" json:"timeout"`   // per backend call
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	File   string `yaml:"file" json:"file"`
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
}

// ServerConfig configures the HTTP bridge.
type ServerConfig struct {
	Host           string `yaml:"host" json:"host"`
	Port           int    `yaml:"port" json:"port"`
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`

	// BuilderConfig is the config path handed to spawned builds.
	BuilderConfig string `yaml:"builder_config" json:"builder_config"`

	// BuildTimeout bounds a whole spawned build. Empty means no bound;
	// stitch.timeout still applies to every backend call inside it.
	BuildTimeout string `yaml:"build_timeout" json:"build_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	rows := []string{"down", "left", "up", "right"}
	return &Config{
		FrameSize:            []int{128, 128},
		InputDirectionOrder:  []string{"down", "right", "up", "left"},
		AttackFolderPriority: []string{"Attack - Multiweapon", "Attack - Bow", "Attack"},
		AttackExtraFolders:   []string{"Attack - Orbe", "Attack - Orb"},
		Profiles: map[string]Profile{
			TypeWeapon: {
				Actions:           []string{"idle", "walk", "attack"},
				RowDirectionOrder: rows,
				FramesPerView:     explicitFrames(map[string]int{"walk": 9, "attack": 9, "idle": 9}),
			},
			TypeHero: {
				Actions:           []string{"walk", "attack", "idle"},
				RowDirectionOrder: rows,
				FramesPerView:     explicitFrames(map[string]int{"walk": 9, "attack": 9, "idle": 9}),
			},
			TypeEnemy: {
				Actions:           []string{"idle", "walk", "attack"},
				RowDirectionOrder: rows,
				FramesPerView:     explicitFrames(map[string]int{"idle": 8, "walk": 8, "attack": 8}),
			},
			TypeNPC: {
				Actions:           []string{"idle"},
				RowDirectionOrder: rows,
				FramesPerView:     map[string]FramesPerView{"idle": FramesPerViewAuto()},
			},
			TypeItem: {
				Actions:             []string{"idle"},
				RowDirectionOrder:   []string{"down"},
				InputDirectionOrder: []string{"down"},
				FramesPerView:       explicitFrames(map[string]int{"idle": 9}),
			},
		},
		TypeOverrides: map[string]string{},
		Targets: []string{
			"frontend-web/assets/images",
			"frontend-psg1/assets/images",
			"frontend-seeker/assets/images",
		},
		Stitch: StitchConfig{
			Mode:    StitchMontage,
			Backend: BackendMagick,
			Timeout: "300s",
		},
		Logging: LoggingConfig{
			File:   "build_sprites.log",
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8765,
			MaxConnections: 16,
		},
	}
}

func explicitFrames(m map[string]int) map[string]FramesPerView {
	out := make(map[string]FramesPerView, len(m))
	for k, n := range m {
		out[k] = FramesPerViewExplicit(n)
	}
	return out
}

// Load loads configuration from a JSON or YAML file, deep-merged over the
// defaults, then applies environment overrides. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		cfg, err = mergeOverDefaults(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeOverDefaults decodes data (JSON is valid YAML) into a generic tree,
// merges it over the defaults, and decodes the result into a Config.
func mergeOverDefaults(data []byte) (*Config, error) {
	var override map[string]interface{}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, err
	}

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	var base map[string]interface{}
	if err := yaml.Unmarshal(defaults, &base); err != nil {
		return nil, err
	}

	merged, err := yaml.Marshal(deepMerge(base, override))
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(merged, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// deepMerge merges override into base: nested maps merge key by key,
// everything else is replaced.
func deepMerge(base, override map[string]interface{}) map[string]interface{} {
	if base == nil {
		base = make(map[string]interface{}, len(override))
	}
	for key, value := range override {
		overrideMap, ok := value.(map[string]interface{})
		baseMap, baseOK := base[key].(map[string]interface{})
		if ok && baseOK {
			base[key] = deepMerge(baseMap, overrideMap)
			continue
		}
		base[key] = value
	}
	return base
}

// Save writes the configuration as YAML, or JSON for a .json path.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// FrameWidth returns the frame width in pixels.
func (c *Config) FrameWidth() int {
	if len(c.FrameSize) < 1 {
		return 0
	}
	return c.FrameSize[0]
}

// FrameHeight returns the frame height in pixels.
func (c *Config) FrameHeight() int {
	if len(c.FrameSize) < 2 {
		return 0
	}
	return c.FrameSize[1]
}

// Profile returns the profile for an entity type name.
func (c *Config) Profile(typeName string) (Profile, bool) {
	p, ok := c.Profiles[typeName]
	return p, ok
}

// GetStitchTimeout returns the per-call backend timeout.
func (c *Config) GetStitchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Stitch.Timeout)
	if err != nil || d <= 0 {
		return 300 * time.Second
	}
	return d
}

// GetBuildTimeout returns the bridge's whole-build timeout, zero when unset.
func (c *Config) GetBuildTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.BuildTimeout)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// ServerAddr returns host:port for the bridge.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.FrameSize) != 2 || c.FrameSize[0] <= 0 || c.FrameSize[1] <= 0 {
		return fmt.Errorf("frame_size must be [width, height] with positive values, got %v", c.FrameSize)
	}
	if len(c.InputDirectionOrder) == 0 {
		return fmt.Errorf("input_direction_order must have at least 1 entry")
	}

	for name, p := range c.Profiles {
		if len(p.Actions) == 0 {
			return fmt.Errorf("profile %s: actions must not be empty", name)
		}
		if len(p.RowDirectionOrder) == 0 {
			return fmt.Errorf("profile %s: row_direction_order must not be empty", name)
		}
		for key, f := range p.FramesPerView {
			if !f.Valid() {
				return fmt.Errorf("profile %s: frames_per_view.%s must be > 0 or %q", name, key, autoToken)
			}
		}
	}

	for folder, typ := range c.TypeOverrides {
		if !isKnownType(typ) {
			return fmt.Errorf("type_overrides.%s: unknown type %q (valid: %v)", folder, typ, KnownTypes)
		}
	}

	switch c.Stitch.Mode {
	case StitchMontage, StitchAppend:
	default:
		return fmt.Errorf("invalid stitch mode: %s (valid: %s, %s)", c.Stitch.Mode, StitchMontage, StitchAppend)
	}
	switch c.Stitch.Backend {
	case BackendMagick, BackendNative:
	default:
		return fmt.Errorf("invalid backend: %s (valid: %s, %s)", c.Stitch.Backend, BackendMagick, BackendNative)
	}
	if c.Stitch.Timeout != "" {
		if d, err := time.ParseDuration(c.Stitch.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("invalid stitch timeout: %q", c.Stitch.Timeout)
		}
	}
	if c.Server.BuildTimeout != "" {
		if d, err := time.ParseDuration(c.Server.BuildTimeout); err != nil || d <= 0 {
			return fmt.Errorf("invalid server build timeout: %q", c.Server.BuildTimeout)
		}
	}
	return nil
}

func isKnownType(name string) bool {
	for _, t := range KnownTypes {
		if t == name {
			return true
		}
	}
	return false
}
