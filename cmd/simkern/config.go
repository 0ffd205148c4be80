// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"cogentcore.org/sim/base/errors"
	"cogentcore.org/sim/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config to the config file",
		Args:  cobra.NoArgs,
		// the file is written here, not loaded
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := a.configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(fn); err == nil && !force {
				return fmt.Errorf("%s exists: use --force to overwrite", fn)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.Save(config.Default(), fn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), newStyles(cmd.OutOrStdout()).good("wrote "+fn))
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the config in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := toml.Marshal(config.Get())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Install every valid change of the config file until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := a.configPath()
			if err != nil {
				return err
			}
			ch, err := config.Watch(cmd.Context(), fn)
			if err != nil {
				return err
			}
			st := newStyles(cmd.OutOrStdout())
			slog.Info("watching config", "file", fn)
			for cf := range ch {
				if err := config.Set(cf); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), st.warn("rejected: "+err.Error()))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s shader %s samples %d timestep %g\n", st.good("installed"),
					cf.Render.ShaderDir, cf.Render.SamplesPerPixel, cf.Scene.Timestep)
			}
			return nil
		},
	}
}
