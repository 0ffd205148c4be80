// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"

	"cogentcore.org/sim/base/errors"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the location of the user config file, relative to
// the home directory.
const DefaultFile = "~/.simkern/config.toml"

// DefaultPath returns the absolute path of [DefaultFile].
func DefaultPath() (string, error) {
	return homedir.Expand(DefaultFile)
}

// Read decodes a config from TOML data. Settings missing from the data
// keep their default values.
func Read(b []byte) (Config, error) {
	cf := Default()
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cf); err != nil {
		return cf, errors.Errorf("config: %w", err)
	}
	return cf, cf.Validate()
}

// Open reads and validates the config in the given TOML file.
func Open(filename string) (Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return Default(), err
	}
	cf, err := Read(b)
	if err != nil {
		return cf, errors.Errorf("%s: %w", filename, err)
	}
	return cf, nil
}

// Save writes the config to the given TOML file, creating its
// directory if needed.
func Save(cf Config, filename string) error {
	b, err := toml.Marshal(cf)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}

// Load opens the given file and installs it as the process-wide
// config. A missing file is not an error: the defaults are saved to it
// instead.
func Load(filename string) error {
	cf, err := Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		errors.Log(Save(Default(), filename))
		return Set(Default())
	}
	if err != nil {
		return err
	}
	return Set(cf)
}
