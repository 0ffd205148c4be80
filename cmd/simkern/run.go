// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cogentcore.org/sim/sim"
	"github.com/spf13/cobra"
)

func (a *app) runCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "run <scene.yaml>",
		Short: "Step a scene and print the final body states",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := loadScene(args[0])
			if err != nil {
				return err
			}
			if err := stepScene(cmd, sc, steps, nil); err != nil {
				return err
			}
			printStates(cmd.OutOrStdout(), sc)
			return nil
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 100, "number of steps")
	return cmd
}

func (a *app) contactsCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "contacts <scene.yaml>",
		Short: "Step a scene and print the contacts of every step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := loadScene(args[0])
			if err != nil {
				return err
			}
			st := newStyles(cmd.OutOrStdout())
			return stepScene(cmd, sc, steps, func(step int) {
				for _, ct := range sc.Contacts() {
					es := ct.Entities()
					imp := ct.TotalImpulse()
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s points %d impulse %s\n",
						st.faint(fmt.Sprintf("%5d", step)), st.name(es[0].Name()), st.faint("<->"), st.name(es[1].Name()),
						len(ct.Points), st.good(fmt.Sprintf("%.5f", imp.Len())))
				}
			})
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 100, "number of steps")
	return cmd
}

// stepScene advances sc by the given number of steps, calling after,
// if non-nil, after each step. It stops early when the command
// context is done.
func stepScene(cmd *cobra.Command, sc *sim.Scene, steps int, after func(step int)) error {
	ctx := cmd.Context()
	for i := range steps {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err := sc.Step(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if after != nil {
			after(i)
		}
	}
	slog.Debug("stepped scene", "steps", steps, "timestep", sc.Timestep(), "digest", fmt.Sprintf("%016x", sc.StateDigest()))
	return nil
}

// printStates writes the pose of every body in sc, the joint positions
// of every articulation and the state digest.
func printStates(w io.Writer, sc *sim.Scene) {
	st := newStyles(w)
	for _, e := range sc.Entities() {
		if _, err := e.Body(); err != nil {
			continue
		}
		printPose(w, st, e)
	}
	for _, ar := range sc.Articulations() {
		qs := make([]string, 0, ar.DOF())
		for _, q := range ar.QPos() {
			qs = append(qs, fmt.Sprintf("%.5f", q))
		}
		fmt.Fprintf(w, "%s qpos [%s]\n", st.name(ar.Name()), strings.Join(qs, " "))
		for _, e := range ar.Links() {
			printPose(w, st, e)
		}
	}
	fmt.Fprintf(w, "digest %s\n", st.good(fmt.Sprintf("%016x", sc.StateDigest())))
}

func printPose(w io.Writer, st styles, e *sim.Entity) {
	ps := e.Pose()
	fmt.Fprintf(w, "%s p [%.5f %.5f %.5f] q [%.5f %.5f %.5f %.5f]\n", st.name(e.Name()),
		ps.P[0], ps.P[1], ps.P[2], ps.Q.W, ps.Q.V[0], ps.Q.V[1], ps.Q.V[2])
}
