// Package config loads the game's YAML configuration and validates it
// against a CUE schema before any world is built from it.
package config

import (
	"bytes"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/wesleyzhao/duck-game/internal/world"
)

// configSchema constrains a Config. Validation runs on every load so a
// bad hand-edited file fails with a field-level message instead of a
// confusing runtime state.
const configSchema = `
#Config: {
	world: {
		sky_color:    string & != ""
		ground_color: string & != ""
	}
	player: {
		x:     number
		y:     number
		speed: number & >=0
	}
	engine: {
		step_limit:  int & >0
		max_history: int & >=0
	}
}
`

// WorldConfig holds world presentation defaults.
type WorldConfig struct {
	SkyColor    string `yaml:"sky_color" json:"sky_color"`
	GroundColor string `yaml:"ground_color" json:"ground_color"`
}

// PlayerConfig holds the player's starting state.
type PlayerConfig struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Speed float64 `yaml:"speed" json:"speed"`
}

// EngineConfig holds execution limits.
type EngineConfig struct {
	StepLimit  int `yaml:"step_limit" json:"step_limit"`
	MaxHistory int `yaml:"max_history" json:"max_history"`
}

// Config is the full game configuration.
type Config struct {
	World  WorldConfig  `yaml:"world" json:"world"`
	Player PlayerConfig `yaml:"player" json:"player"`
	Engine EngineConfig `yaml:"engine" json:"engine"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		World: WorldConfig{
			SkyColor:    "skyblue",
			GroundColor: "green",
		},
		Player: PlayerConfig{
			X:     100,
			Y:     300,
			Speed: 5,
		},
		Engine: EngineConfig{
			StepLimit:  100_000,
			MaxHistory: 200,
		},
	}
}

// Load reads, decodes, and validates a config file.
// Unknown YAML fields are rejected to catch typos.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a Config against the CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup schema definition: %w", err)
	}

	val := ctx.Encode(cfg)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// NewWorld builds a fresh world from the configuration.
func (c Config) NewWorld() *world.World {
	return world.New(
		world.Player{X: c.Player.X, Y: c.Player.Y, Speed: c.Player.Speed},
		world.Settings{SkyColor: c.World.SkyColor, GroundColor: c.World.GroundColor},
	)
}
