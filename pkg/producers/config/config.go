// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Binding ties a configuration key to its command line flag and environment
// variable. Flag and Env may be empty.
type Binding struct {
	Key  string
	Flag string
	Env  string
}

// Loader resolves configuration with the precedence flag, environment,
// config file, flag default.
type Loader struct {
	v    *viper.Viper
	path string
}

func NewLoader(flags *pflag.FlagSet, path string, bindings []Binding) (*Loader, error) {
	v := viper.New()

	for _, b := range bindings {
		if b.Flag != "" {
			flag := flags.Lookup(b.Flag)
			if flag == nil {
				return nil, fmt.Errorf("unknown flag %q for key %q", b.Flag, b.Key)
			}
			if err := v.BindPFlag(b.Key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %q: %w", b.Flag, err)
			}
		}
		if b.Env != "" {
			if err := v.BindEnv(b.Key, b.Env); err != nil {
				return nil, fmt.Errorf("bind env %q: %w", b.Env, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Str("config_file", v.ConfigFileUsed()).Msg("config file loaded")
	}

	return &Loader{v: v, path: path}, nil
}

// Load decodes the resolved configuration into out, a pointer to a struct
// with mapstructure tags.
func (l *Loader) Load(out interface{}) error {
	if err := l.v.Unmarshal(out); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}
	return nil
}

// Watch calls onChange after every change of the config file. The file is
// already re-read when onChange runs, so Load returns the new values. Without
// a config file Watch does nothing and returns false.
func (l *Loader) Watch(onChange func(fsnotify.Event)) bool {
	if l.path == "" {
		return false
	}
	l.v.OnConfigChange(onChange)
	l.v.WatchConfig()
	return true
}
