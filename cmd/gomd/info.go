package main

import (
	"github.com/spf13/cobra"

	md "github.com/gomd/gomd"
	"github.com/gomd/gomd/traj/dcd"
)

var infoCmd = &cobra.Command{
	Use:   "info TRAJECTORY",
	Short: "Summarize a trajectory file",
	Long: `Reads the whole trajectory once and reports the atom count,
the frame count and whether unit-cell information is present.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	name := args[0]
	src, err := opentraj(name)
	if err != nil {
		return err
	}
	defer src.Close()
	box := make([]float64, 9)
	frames := 0
	withCell := 0
	for {
		if err := src.Next(nil, box); err != nil {
			if md.IsLastFrame(err) {
				break
			}
			return err
		}
		frames++
		for _, v := range box {
			if v != 0 {
				withCell++
				break
			}
		}
	}
	cmd.Printf("file:   %s\n", name)
	cmd.Printf("atoms:  %d\n", src.Len())
	cmd.Printf("frames: %d\n", frames)
	switch withCell {
	case 0:
		cmd.Println("cell:   none")
	case frames:
		cmd.Println("cell:   every frame")
	default:
		cmd.Printf("cell:   %d of %d frames\n", withCell, frames)
	}
	if d, ok := src.(*dcd.Reader); ok {
		cmd.Printf("delta:  %v\n", d.Delta())
	}
	return nil
}
