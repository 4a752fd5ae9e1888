package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/discover"
	"github.com/rmera/mdwatch/rmsd"
)

var (
	topFlag    string
	targetFlag int
	noFitFlag  bool
	workers    int
)

var rmsdCmd = &cobra.Command{
	Use:   "rmsd [trajectory...]",
	Short: "Compute the backbone RMSD along the trajectories",
	Long: "rmsd computes the backbone RMSD of the trajectories, joined oldest first, against their first frame, and prints it. " +
		"Without arguments, all the trajectories in the directory are used, with its first topology.",
	RunE: func(cmd *cobra.Command, args []string) error {
		C, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		top := topFlag
		if top == "" {
			tops, err := discover.Topologies(C.Dir)
			if err != nil {
				return err
			}
			if len(tops) == 0 {
				return mdwatch.InputError("no topology found, use --top", C.Dir, "rmsd", nil)
			}
			top = filepath.Join(C.Dir, tops[0].Name)
		}
		trajs := args
		if len(trajs) == 0 {
			fs, err := discover.Trajectories(C.Dir)
			if err != nil {
				return err
			}
			for _, v := range fs {
				trajs = append(trajs, filepath.Join(C.Dir, v.Name))
			}
		}
		E := &rmsd.Engine{TargetFrames: C.RMSD.TargetFrames, Workers: C.RMSD.Workers, Fit: C.RMSD.Fit && !noFitFlag}
		if cmd.Flags().Changed("target") {
			E.TargetFrames = targetFlag
		}
		if cmd.Flags().Changed("workers") {
			E.Workers = workers
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		D, err := E.ComputeFiles(ctx, top, trajs)
		if err != nil {
			return err
		}
		return printSeries(cmd, D)
	},
}

func printSeries(cmd *cobra.Command, D *mdwatch.DeviationSeries) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', tabwriter.AlignRight)
	st := D.Stats()
	fmt.Fprintf(w, "# %d frames, one every %d. Mean %.3f A, std. dev. %.3f A, max %.3f A\n", D.Frames, D.Stride, st.Mean, st.StdDev, st.Max)
	fmt.Fprintln(w, "time\tRMSD (A)\t")
	for i := range D.Values {
		fmt.Fprintf(w, "%.3f\t%.4f\t\n", D.Times[i], D.Values[i])
	}
	return w.Flush()
}

func init() {
	f := rmsdCmd.Flags()
	f.StringVarP(&topFlag, "top", "t", "", "topology file (default: the first one in the directory)")
	f.IntVar(&targetFlag, "target", 200, "number of frames to compare")
	f.BoolVar(&noFitFlag, "no-fit", false, "don't superimpose the frames before comparing")
	f.IntVarP(&workers, "workers", "w", 0, "number of parallel workers (default: one per CPU)")
}
