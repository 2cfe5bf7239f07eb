package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	md "github.com/gomd/gomd"
	"github.com/gomd/gomd/rmsd"
)

var (
	pairAtoms string
	pairOut   string
	pairCpus  int
)

var pairwiseCmd = &cobra.Command{
	Use:   "pairwise TRAJECTORY",
	Short: "All-against-all RMSD matrix of a trajectory",
	Long: `Computes the RMSD between every pair of frames. Unlike rmsd,
this loads the whole trajectory into memory, so it is meant for
trajectories that fit there; subsample large files first.`,
	Args: cobra.ExactArgs(1),
	RunE: runPairwise,
}

func init() {
	pairwiseCmd.Flags().StringVar(&pairAtoms, "atoms", "", "zero-based atom selection, e.g. 0-9,15,30-40")
	pairwiseCmd.Flags().StringVarP(&pairOut, "out", "o", "", "write the matrix to this file instead of stdout")
	pairwiseCmd.Flags().IntVar(&pairCpus, "cpus", 0, "worker goroutines, 0 for all cores")
	rootCmd.AddCommand(pairwiseCmd)
}

func runPairwise(cmd *cobra.Command, args []string) error {
	name := args[0]
	src, err := opentraj(name)
	if err != nil {
		return err
	}
	traj, err := md.ReadAll(src, nil)
	if err != nil {
		return err
	}
	o := rmsd.DefaultOptions()
	if pairCpus > 0 {
		o.Cpus = pairCpus
	}
	if pairAtoms != "" {
		idx, err := parseAtoms(pairAtoms)
		if err != nil {
			return err
		}
		o.Subset, err = md.NewSubset(traj.NAtoms(), idx)
		if err != nil {
			return err
		}
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	m, err := rmsd.Pairwise(ctx, traj, o)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if pairOut != "" {
		f, err := os.Create(pairOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	n := traj.NFrames()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%.6f", m.At(i, j))
		}
		fmt.Fprintln(w)
	}
	return nil
}
