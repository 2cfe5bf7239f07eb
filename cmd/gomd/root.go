package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	md "github.com/gomd/gomd"
	"github.com/gomd/gomd/traj/dcd"
	"github.com/gomd/gomd/traj/ztf"
)

var rootCmd = &cobra.Command{
	Use:   "gomd",
	Short: "Structural analysis of molecular dynamics trajectories",
	Long: `gomd computes structural similarity measures over molecular
dynamics trajectories, reading them chunk by chunk so files much larger
than memory stay tractable. Supported formats are DCD (CHARMM/NAMD
binary) and ztf (compressed plain text), chosen by file extension.`,
	SilenceUsage: true,
}

// opentraj resolves the reader from the file extension. ztf files keep
// their format suffix even when a compression suffix follows it.
func opentraj(name string) (md.TrajCloser, error) {
	t := strings.Split(name, ".")
	format := t[len(t)-1]
	if (format == "gz" || format == "fl") && len(t) > 1 {
		format = t[len(t)-2]
	}
	switch strings.ToLower(format) {
	case "dcd":
		return dcd.New(name)
	case "ztf":
		r, _, err := ztf.New(name)
		return r, err
	}
	return nil, fmt.Errorf("unsupported trajectory format %q in %s", format, name)
}

// parseAtoms turns a list like "0-9,15,30-40" of zero-based indexes and
// inclusive ranges into an index slice.
func parseAtoms(s string) ([]int, error) {
	var idx []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(tok, "-"); ok {
			a, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("bad atom range %q", tok)
			}
			b, err := strconv.Atoi(hi)
			if err != nil || b < a {
				return nil, fmt.Errorf("bad atom range %q", tok)
			}
			for i := a; i <= b; i++ {
				idx = append(idx, i)
			}
			continue
		}
		a, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad atom index %q", tok)
		}
		idx = append(idx, a)
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("empty atom selection %q", s)
	}
	return idx, nil
}
