/*
 * config.go, part of mdwatch.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package config loads the mdwatch configuration from a YAML file, validated
// against an embedded CUE schema. Values not in the file keep their defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/rmera/mdwatch"
)

//go:embed schema.cue
var schema string

// RMSD holds the settings of the RMSD engine.
type RMSD struct {
	TargetFrames int  `yaml:"target_frames"`
	Fit          bool `yaml:"fit"`
	Workers      int  `yaml:"workers"` //0 means one per CPU
}

// Config is the whole configuration.
type Config struct {
	Dir         string        `yaml:"dir"`
	Update      time.Duration `yaml:"update"`
	Port        int           `yaml:"port"`
	Log         string        `yaml:"log"`
	Simulations int           `yaml:"simulations"`
	StatusFile  string        `yaml:"status_file"`
	StaleAfter  time.Duration `yaml:"stale_after"`
	ScanLines   int           `yaml:"scan_lines"`
	Workers     int           `yaml:"workers"` //full report parsing, 0 means one per CPU
	RMSD        RMSD          `yaml:"rmsd"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Dir:         ".",
		Update:      10 * time.Second,
		Port:        5100,
		Log:         "info",
		Simulations: 2,
		StatusFile:  "mdinfo",
		StaleAfter:  3 * time.Minute,
		ScanLines:   150,
		RMSD:        RMSD{TargetFrames: 200, Fit: true},
	}
}

// Validate checks the YAML document data, read from filename, against the schema.
func Validate(filename string, data []byte) error {
	ctx := cuecontext.New()
	s := ctx.CompileString(schema, cue.Filename("schema.cue"))
	if s.Err() != nil {
		return fmt.Errorf("compiling schema: %w", s.Err())
	}
	f, err := cueyaml.Extract(filename, data)
	if err != nil {
		return mdwatch.InputError("invalid YAML", filename, "config.Validate", err)
	}
	v := ctx.BuildFile(f)
	if v.Err() != nil {
		return mdwatch.InputError("invalid configuration", filename, "config.Validate", v.Err())
	}
	u := s.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return mdwatch.InputError("schema validation failed", filename, "config.Validate", err)
	}
	return nil
}

// Load reads the configuration in filename. An empty filename gives the defaults.
func Load(filename string) (*Config, error) {
	C := Default()
	if filename == "" {
		return C, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, mdwatch.FromOS(err, mdwatch.ErrInput, filename, "config.Load")
	}
	if err := Validate(filename, data); err != nil {
		return nil, mdwatch.ErrDecorate(err, "config.Load")
	}
	if err := yaml.Unmarshal(data, C); err != nil {
		return nil, mdwatch.InputError("can't decode configuration", filename, "config.Load", err)
	}
	if err := C.Check(); err != nil {
		return nil, mdwatch.ErrDecorate(err, "config.Load")
	}
	return C, nil
}

// Check verifies what the schema can't, and the values set from the command line.
func (C *Config) Check() error {
	switch {
	case C.Update <= 0:
		return mdwatch.InputError(fmt.Sprintf("update interval must be positive, is %s", C.Update), "", "config.Check", nil)
	case C.StaleAfter <= 0:
		return mdwatch.InputError(fmt.Sprintf("stale_after must be positive, is %s", C.StaleAfter), "", "config.Check", nil)
	case C.Port < 1 || C.Port > 65535:
		return mdwatch.InputError(fmt.Sprintf("invalid port %d", C.Port), "", "config.Check", nil)
	case C.Simulations < 1:
		return mdwatch.InputError(fmt.Sprintf("simulations must be at least 1, is %d", C.Simulations), "", "config.Check", nil)
	}
	return nil
}
