// Package config loads orgchart settings from a YAML file and ORGCHART_*
// environment variables.
//
// Values are layered: [Default], then the file (if it exists), then the
// environment. Nested keys use a double underscore in variable names:
//
//	ORGCHART_LAYOUT__LINK_DISTANCE=200
//	ORGCHART_SERVER__ADDR=:9000
//	ORGCHART_CACHE__BACKEND=redis
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/viewport"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "ORGCHART_"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete settings tree.
type Config struct {
	Layout   Layout   `yaml:"layout" koanf:"layout"`
	Viewport Viewport `yaml:"viewport" koanf:"viewport"`
	Server   Server   `yaml:"server" koanf:"server"`
	Cache    Cache    `yaml:"cache" koanf:"cache"`
	Avatar   Avatar   `yaml:"avatar" koanf:"avatar"`
	Roster   Roster   `yaml:"roster" koanf:"roster"`
}

// Roster holds input checks.
type Roster struct {
	// Locations lists the known facility tags. Empty accepts any tag.
	Locations []string `yaml:"locations" koanf:"locations"`
}

// Layout holds the radius policy and simulation constants.
type Layout struct {
	BaseRadius      float64 `yaml:"base_radius" koanf:"base_radius" validate:"gt=0"`
	LineHeight      float64 `yaml:"line_height" koanf:"line_height" validate:"gte=0"`
	FontSize        float64 `yaml:"font_size" koanf:"font_size" validate:"gt=0"`
	MaxLabelWidth   float64 `yaml:"max_label_width" koanf:"max_label_width" validate:"gt=0"`
	LabelMargin     float64 `yaml:"label_margin" koanf:"label_margin" validate:"gte=0"`
	TeamPadding     float64 `yaml:"team_padding" koanf:"team_padding" validate:"gte=0"`
	InnerIterations int     `yaml:"inner_iterations" koanf:"inner_iterations" validate:"gte=1,lte=10000"`
	CollidePadding  float64 `yaml:"collide_padding" koanf:"collide_padding" validate:"gte=0"`
	LinkDistance    float64 `yaml:"link_distance" koanf:"link_distance" validate:"gt=0"`
	ChargeStrength  float64 `yaml:"charge_strength" koanf:"charge_strength"`
	VelocityDecay   float64 `yaml:"velocity_decay" koanf:"velocity_decay" validate:"gte=0,lte=1"`
	AlphaMin        float64 `yaml:"alpha_min" koanf:"alpha_min" validate:"gt=0,lt=1"`
	Seed            uint32  `yaml:"seed" koanf:"seed"`
	CenterID        string  `yaml:"center_id" koanf:"center_id"`
	PinCenter       bool    `yaml:"pin_center" koanf:"pin_center"`
	MaxTicks        int     `yaml:"max_ticks" koanf:"max_ticks" validate:"gte=0"`
}

// Viewport holds the drawing size and focus animation.
type Viewport struct {
	Width      float64       `yaml:"width" koanf:"width" validate:"gt=0"`
	Height     float64       `yaml:"height" koanf:"height" validate:"gt=0"`
	FocusScale float64       `yaml:"focus_scale" koanf:"focus_scale" validate:"gte=0.1,lte=8"`
	Duration   time.Duration `yaml:"duration" koanf:"duration" validate:"gte=0"`
	Easing     string        `yaml:"easing" koanf:"easing" validate:"oneof=cubic linear"`
}

// Server holds the HTTP host settings.
type Server struct {
	Addr        string   `yaml:"addr" koanf:"addr" validate:"required"`
	FPS         float64  `yaml:"fps" koanf:"fps" validate:"gt=0,lte=120"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}

// Cache selects and configures the avatar cache.
type Cache struct {
	Backend   string        `yaml:"backend" koanf:"backend" validate:"oneof=file redis none"`
	Dir       string        `yaml:"dir" koanf:"dir"`
	TTL       time.Duration `yaml:"ttl" koanf:"ttl" validate:"gte=0"`
	RedisAddr string        `yaml:"redis_addr" koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB   int           `yaml:"redis_db" koanf:"redis_db" validate:"gte=0"`
}

// Avatar controls picture downloads.
type Avatar struct {
	Enabled     bool          `yaml:"enabled" koanf:"enabled"`
	Size        int           `yaml:"size" koanf:"size" validate:"gte=8,lte=1024"`
	Concurrency int           `yaml:"concurrency" koanf:"concurrency" validate:"gte=1,lte=64"`
	Timeout     time.Duration `yaml:"timeout" koanf:"timeout" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	p := layout.DefaultParams()
	return &Config{
		Layout: Layout{
			BaseRadius:      p.BaseRadius,
			LineHeight:      p.LineHeight,
			FontSize:        p.FontSize,
			MaxLabelWidth:   p.MaxLabelWidth,
			LabelMargin:     p.LabelMargin,
			TeamPadding:     p.TeamPadding,
			InnerIterations: p.InnerIterations,
			CollidePadding:  p.CollidePadding,
			LinkDistance:    p.LinkDistance,
			ChargeStrength:  p.ChargeStrength,
			VelocityDecay:   p.VelocityDecay,
			AlphaMin:        p.AlphaMin,
			Seed:            p.Seed,
			PinCenter:       p.PinCenter,
			MaxTicks:        1000,
		},
		Viewport: Viewport{
			Width:      960,
			Height:     720,
			FocusScale: viewport.DefaultFocusScale,
			Duration:   viewport.DefaultDuration,
			Easing:     viewport.EaseCubic,
		},
		Server: Server{
			Addr: ":8080",
			FPS:  30,
		},
		Cache: Cache{
			Backend: BackendFile,
			TTL:     7 * 24 * time.Hour,
		},
		Avatar: Avatar{
			Enabled:     true,
			Size:        128,
			Concurrency: 8,
			Timeout:     10 * time.Second,
		},
	}
}

// Load layers path (which may be empty or missing) and the environment
// over the defaults, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "accessing config %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "loading env overrides")
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps ORGCHART_LAYOUT__LINK_DISTANCE to layout.link_distance.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes c to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section. The first failing field is reported as an
// INVALID_CONFIG error naming its yaml key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	fe := verrs[0]
	return errors.New(errors.ErrCodeInvalidConfig, "%s: failed %q (value %v)",
		fieldKey(fe.Namespace()), ruleText(fe), fe.Value())
}

// fieldKey turns "Config.Layout.BaseRadius" into "layout.base_radius".
func fieldKey(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := rs[i-1] >= 'a' && rs[i-1] <= 'z'
			nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
			if prevLower || (nextLower && rs[i-1] >= 'A' && rs[i-1] <= 'Z') {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Params returns the layout constants described by the config.
func (c *Config) Params() layout.Params {
	p := layout.DefaultParams()
	l := c.Layout
	p.BaseRadius = l.BaseRadius
	p.LineHeight = l.LineHeight
	p.FontSize = l.FontSize
	p.MaxLabelWidth = l.MaxLabelWidth
	p.LabelMargin = l.LabelMargin
	p.TeamPadding = l.TeamPadding
	p.InnerIterations = l.InnerIterations
	p.CollidePadding = l.CollidePadding
	p.LinkDistance = l.LinkDistance
	p.ChargeStrength = l.ChargeStrength
	p.VelocityDecay = l.VelocityDecay
	p.AlphaMin = l.AlphaMin
	p.Seed = l.Seed
	p.CenterID = l.CenterID
	p.PinCenter = l.PinCenter
	return p
}
