// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log/slog"

	"cogentcore.org/sim/asset"
	"cogentcore.org/sim/config"
	"cogentcore.org/sim/sim"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// app holds the persistent flags shared by all commands.
type app struct {
	verbose    bool
	configFile string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "simkern",
		Short:         "Step and render simulated scenes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	pf.StringVar(&a.configFile, "config", "", "config file (default "+config.DefaultFile+")")

	root.AddCommand(a.runCmd(), a.contactsCmd(), a.renderCmd(), a.configCmd(), a.watchCmd())
	return root
}

// setup installs the logger and loads the config file.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	fn, err := a.configPath()
	if err != nil {
		return err
	}
	slog.Debug("loading config", "file", fn)
	if err := config.Load(fn); err != nil {
		return fmt.Errorf("config %s: %w", fn, err)
	}
	return nil
}

func (a *app) configPath() (string, error) {
	if a.configFile != "" {
		return a.configFile, nil
	}
	return config.DefaultPath()
}

// loadScene returns a new scene populated from the given description.
func loadScene(filename string) (*sim.Scene, *asset.Loaded, error) {
	sc := sim.NewScene()
	ld, err := asset.Load(sc, filename)
	if err != nil {
		return nil, nil, err
	}
	return sc, ld, nil
}

// styles are the terminal styles of command output. Writers that are
// not terminals get plain text.
type styles struct {
	out *termenv.Output
}

func newStyles(w io.Writer) styles {
	return styles{out: termenv.NewOutput(w)}
}

func (st styles) name(s string) string {
	return st.out.String(s).Bold().String()
}

func (st styles) good(s string) string {
	return st.out.String(s).Foreground(st.out.Color("2")).String()
}

func (st styles) warn(s string) string {
	return st.out.String(s).Foreground(st.out.Color("3")).String()
}

func (st styles) faint(s string) string {
	return st.out.String(s).Faint().String()
}
