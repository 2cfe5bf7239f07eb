package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	md "github.com/gomd/gomd"
	"github.com/gomd/gomd/mdplot"
	"github.com/gomd/gomd/rmsd"
	v3 "github.com/gomd/gomd/v3"
)

var (
	rmsdRef     int
	rmsdRefFile string
	rmsdChunk   int
	rmsdStride  int
	rmsdBegin   int
	rmsdAtoms   string
	rmsdOut     string
	rmsdPlot    string
	rmsdCpus    int
)

var rmsdCmd = &cobra.Command{
	Use:   "rmsd TRAJECTORY",
	Short: "Minimal RMSD of every frame against a reference",
	Long: `Computes the minimum RMSD over rigid superposition between a
reference conformation and every frame of the trajectory. The
trajectory is streamed in chunks, so arbitrarily long files fit in
memory. The reference is frame --ref of the trajectory, or of --reffile
if one is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRMSD,
}

func init() {
	rmsdCmd.Flags().IntVar(&rmsdRef, "ref", 0, "index of the reference frame")
	rmsdCmd.Flags().StringVar(&rmsdRefFile, "reffile", "", "take the reference frame from this trajectory instead")
	rmsdCmd.Flags().IntVar(&rmsdChunk, "chunk", 1000, "frames held in memory at a time")
	rmsdCmd.Flags().IntVar(&rmsdStride, "stride", 1, "use every stride-th frame")
	rmsdCmd.Flags().IntVar(&rmsdBegin, "begin", 0, "frames to skip at the start")
	rmsdCmd.Flags().StringVar(&rmsdAtoms, "atoms", "", "zero-based atom selection, e.g. 0-9,15,30-40")
	rmsdCmd.Flags().StringVarP(&rmsdOut, "out", "o", "", "write values to this file instead of stdout")
	rmsdCmd.Flags().StringVar(&rmsdPlot, "plot", "", "also render the series to this image file")
	rmsdCmd.Flags().IntVar(&rmsdCpus, "cpus", 0, "worker goroutines, 0 for all cores")
	rootCmd.AddCommand(rmsdCmd)
}

// refFrame loads frame n of name through a fresh handle, so the main
// streaming pass starts from an untouched reader.
func refFrame(name string, n int) (*v3.Matrix, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative reference frame %d", n)
	}
	src, err := opentraj(name)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	for i := 0; i < n; i++ {
		if err := src.Next(nil); err != nil {
			return nil, fmt.Errorf("can't reach reference frame %d in %s: %w", n, name, err)
		}
	}
	ref := v3.Zeros(src.Len())
	if err := src.Next(ref); err != nil {
		return nil, fmt.Errorf("can't read reference frame %d from %s: %w", n, name, err)
	}
	return ref, nil
}

func runRMSD(cmd *cobra.Command, args []string) error {
	name := args[0]
	refname := rmsdRefFile
	if refname == "" {
		refname = name
	}
	ref, err := refFrame(refname, rmsdRef)
	if err != nil {
		return err
	}
	src, err := opentraj(name)
	if err != nil {
		return err
	}
	defer src.Close()
	if src.Len() != ref.NVecs() {
		return fmt.Errorf("reference has %d atoms, trajectory %s has %d", ref.NVecs(), name, src.Len())
	}
	o := rmsd.DefaultOptions()
	if rmsdCpus > 0 {
		o.Cpus = rmsdCpus
	}
	if rmsdAtoms != "" {
		idx, err := parseAtoms(rmsdAtoms)
		if err != nil {
			return err
		}
		o.Subset, err = md.NewSubset(src.Len(), idx)
		if err != nil {
			return err
		}
	}
	so := md.DefaultStreamOptions()
	so.Stride = rmsdStride
	so.Begin = rmsdBegin
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	vals, err := rmsd.ManyChunked(ctx, ref, src, rmsdChunk, o, so)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if rmsdOut != "" {
		f, err := os.Create(rmsdOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	for i, v := range vals {
		fmt.Fprintf(w, "%d %.6f\n", rmsdBegin+i*so.Stride, v)
	}
	if rmsdPlot != "" {
		po := mdplot.DefaultSeriesOptions()
		po.Title = fmt.Sprintf("RMSD of %s", name)
		po.Stride = so.Stride
		po.Begin = rmsdBegin
		if err := mdplot.Series(vals, rmsdPlot, po); err != nil {
			return err
		}
	}
	return nil
}
