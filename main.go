// spacecheck detects counterfeit or misreporting storage devices by
// writing a verifiable marker pattern across the reported free capacity
// of a volume and reading it back to confirm the data physically
// persisted. Two variants share the protocol: "single" probes one large
// sparse pre-allocated file, "multi" fills the capacity with a sequence
// of hex-indexed files that can be resumed and verified independently.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"k8s.io/klog"

	"spacecheck/retroscan"
	"spacecheck/verispace"
)

func parseSize(s string) (int64, error) {
	ss := strings.TrimSpace(strings.ToLower(s))
	if ss == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(ss, "k"):
		mult = verispace.KiB
		ss = strings.TrimSuffix(ss, "k")
	case strings.HasSuffix(ss, "m"):
		mult = verispace.MiB
		ss = strings.TrimSuffix(ss, "m")
	case strings.HasSuffix(ss, "g"):
		mult = verispace.GiB
		ss = strings.TrimSuffix(ss, "g")
	case strings.HasSuffix(ss, "b"):
		ss = strings.TrimSuffix(ss, "b")
	}
	v, err := strconv.ParseFloat(ss, 64)
	if err != nil {
		return 0, err
	}
	return int64(v * float64(mult)), nil
}

func human(b int64) string {
	n, unit := verispace.Human(b)
	return fmt.Sprintf("%d %s", n, unit)
}

func printStats(st verispace.DeviceStats) {
	fmt.Printf("Bytes/sector     : %d\n", st.SectorSize)
	fmt.Printf("Sectors/cluster  : %d\n", st.SectorsPerCluster)
	fmt.Printf("Total space      : %s\n", human(st.TotalBytes))
	fmt.Printf("Free space       : %s\n", human(st.FreeBytes))
}

/* ===================== Progress sinks ===================== */

// barSink renders one progress bar per phase on the console.
type barSink struct {
	bar   *pb.ProgressBar
	phase verispace.Phase
}

func (s *barSink) Report(ev verispace.Event) {
	if s.bar == nil || ev.Phase != s.phase {
		if s.bar != nil {
			s.bar.Finish()
		}
		s.phase = ev.Phase
		s.bar = pb.Full.Start64(ev.Total)
		s.bar.Set("prefix", ev.Phase.String()+" ")
	}
	s.bar.SetCurrent(ev.Done)
}

func (s *barSink) close() {
	if s.bar != nil {
		s.bar.Finish()
		s.bar = nil
	}
}

// screenSink drives the retroscan fullscreen unit map.
type screenSink struct {
	ui *retroscan.UI
	m  *retroscan.UnitMap
}

func newScreenSink(ui *retroscan.UI, units int64) *screenSink {
	return &screenSink{ui: ui, m: retroscan.NewUnitMap(units)}
}

func (s *screenSink) Report(ev verispace.Event) {
	state := retroscan.UnitWritten
	if ev.Phase == verispace.PhaseVerify || ev.Phase == verispace.PhaseCheck {
		state = retroscan.UnitVerified
	}
	s.m.MarkRange(0, ev.Done, state)
	for _, i := range ev.BadUnits {
		s.m.Mark(i, retroscan.UnitBad)
	}

	w, h := s.ui.Size()
	rows := h - 8
	if rows < 1 {
		rows = 1
	}
	s.ui.SetUnitMap(s.m.Render(w, rows))
	s.ui.SetStatusLines([]string{
		fmt.Sprintf("%s: %d/%d units", ev.Phase, ev.Done, ev.Total),
		fmt.Sprintf("Last batch took %.2f seconds (%.2f total seconds)", ev.Batch.Seconds(), ev.Elapsed.Seconds()),
	})
	s.ui.LayoutAndDraw()
}

/* ===================== Command wiring ===================== */

type runEnv struct {
	ctx       context.Context
	sink      verispace.Sink
	markPhase func(name string)
	finish    func()
}

// setupRun builds the cancellation context and the progress sink. With
// --screen the tcell UI takes over the terminal, shows phases as a
// checklist, and its quit key cancels the run; otherwise a console
// progress bar is used. finish is idempotent.
func setupRun(screen bool, title string, phases []string, units int64) (*runEnv, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if !screen {
		bs := &barSink{}
		var once sync.Once
		return &runEnv{
			ctx:       ctx,
			sink:      bs,
			markPhase: func(string) {},
			finish: func() {
				once.Do(func() {
					bs.close()
					stop()
				})
			},
		}, nil
	}

	ui, err := retroscan.New()
	if err != nil {
		stop()
		return nil, fmt.Errorf("ui init: %w", err)
	}
	ui.SetTitle(title)
	ui.SetPhases(phases)
	ui.SetLegend([]string{retroscan.Legend()})
	ui.LayoutAndDraw()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ui.Stopped()
		cancel()
	}()

	var once sync.Once
	return &runEnv{
		ctx:  ctx,
		sink: newScreenSink(ui, units),
		markPhase: func(name string) {
			ui.SetPhaseDone(name)
			ui.LayoutAndDraw()
		},
		finish: func() {
			once.Do(func() {
				ui.Close()
				cancel()
				stop()
			})
		},
	}, nil
}

// verdict converts a finished run into the command result. Any phase
// failure and any mismatch map to a nonzero exit.
func verdict(res *verispace.Result, runErr, cleanupErr error) error {
	if runErr != nil {
		return runErr
	}
	if !res.OK() {
		first := res.Mismatches[0]
		return fmt.Errorf("verification failed: %d mismatched unit(s); first: %v", len(res.Mismatches), first)
	}
	if cleanupErr != nil {
		return fmt.Errorf("file deletion failed: %w", cleanupErr)
	}
	return nil
}

func main() {
	klog.InitFlags(nil)

	root := &cobra.Command{
		Use:           "spacecheck",
		Short:         "Verify a storage device really has the capacity it reports",
		Long:          "Write a position-derived marker pattern across a volume's free capacity and read it back to detect counterfeit or misreporting devices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	var (
		blockSizeStr string
		screen       bool
		showStats    bool
	)
	root.PersistentFlags().StringVar(&blockSizeStr, "block-size", "10m", "allocation unit size (accepts k/m/g suffix)")
	root.PersistentFlags().BoolVar(&screen, "screen", false, "fullscreen progress display")
	root.PersistentFlags().BoolVar(&showStats, "stats", false, "print device stats before the test")

	/* ---------- single: sparse pre-allocated file ---------- */

	var (
		cached    bool
		noReads   bool
		keepFile  bool
		keepGoing bool
	)
	singleCmd := &cobra.Command{
		Use:   "single <path>",
		Short: "Check capacity with one sparse pre-allocated file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			blockSize, err := parseSize(blockSizeStr)
			if err != nil {
				return fmt.Errorf("bad --block-size: %w", err)
			}

			stats, err := verispace.Probe(path)
			if err != nil {
				return err
			}
			if showStats {
				printStats(stats)
			}

			cfg := verispace.Config{
				Path:      path,
				BlockSize: blockSize,
				Cached:    cached,
				DirectIO:  true,
				NoReads:   noReads,
				KeepGoing: keepGoing,
				Keep:      keepFile,
			}
			strat, err := verispace.NewSparseFile(cfg, stats, stats.FreeBytes)
			if err != nil {
				return err
			}

			env, err := setupRun(screen, fmt.Sprintf("SPACECHECK - %s - %s free", path, human(stats.FreeBytes)),
				[]string{"Allocate", "Check", "Cleanup"}, strat.Units())
			if err != nil {
				return err
			}
			defer env.finish()
			cfg.Progress = env.sink

			runner, err := verispace.NewRunner(cfg, stats, strat)
			if err != nil {
				return err
			}

			if err := runner.Allocate(env.ctx); err != nil {
				return fmt.Errorf("file creation failed: %w", err)
			}
			env.markPhase("Allocate")
			klog.Infof("created %s, %s", verispace.SparseFileName, human(stats.FreeBytes))

			res := &verispace.Result{}
			runErr := runner.CheckPass(env.ctx, res)
			if runErr == nil {
				env.markPhase("Check")
			}
			cleanupErr := runner.Cleanup()
			if cleanupErr == nil {
				env.markPhase("Cleanup")
			}

			env.finish()
			if runErr == nil && res.OK() {
				fmt.Printf("%s is %s\n", path, human(stats.FreeBytes))
			}
			return verdict(res, runErr, cleanupErr)
		},
	}
	singleCmd.Flags().BoolVar(&cached, "cached", false, "verify through the filesystem cache")
	singleCmd.Flags().BoolVar(&noReads, "noreads", false, "write only, skip read-back")
	singleCmd.Flags().BoolVar(&keepFile, "keep", false, "leave the test file in place")
	singleCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "record mismatches and continue instead of stopping at the first")

	/* ---------- multi: sequence of fixed-size files ---------- */

	var (
		mCached    bool
		mKeepGoing bool
		createOnly bool
		verifyOnly bool
		deleteOnly bool
	)
	multiCmd := &cobra.Command{
		Use:   "multi <path>",
		Short: "Check capacity with a sequence of fixed-size files",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			blockSize, err := parseSize(blockSizeStr)
			if err != nil {
				return fmt.Errorf("bad --block-size: %w", err)
			}
			phaseFlags := createOnly || verifyOnly || deleteOnly
			doCreate := createOnly || !phaseFlags
			doVerify := verifyOnly || !phaseFlags
			doDelete := deleteOnly || !phaseFlags

			stats, err := verispace.Probe(path)
			if err != nil {
				return err
			}
			if showStats {
				printStats(stats)
			}

			cfg := verispace.Config{
				Path:      path,
				BlockSize: blockSize,
				Cached:    mCached,
				DirectIO:  true,
				KeepGoing: mKeepGoing,
				Keep:      !doDelete,
			}
			strat := verispace.NewFileSequence(cfg, stats.FreeBytes)

			env, err := setupRun(screen, fmt.Sprintf("SPACECHECK - %s - %s free", path, human(stats.FreeBytes)),
				[]string{"Allocate", "Write", "Verify", "Cleanup"}, strat.Units())
			if err != nil {
				return err
			}
			defer env.finish()
			cfg.Progress = env.sink

			runner, err := verispace.NewRunner(cfg, stats, strat)
			if err != nil {
				return err
			}
			if err := runner.Allocate(env.ctx); err != nil {
				return err
			}
			env.markPhase("Allocate")

			res := &verispace.Result{}
			var runErr error
			if doCreate {
				klog.Infof("will create %d files of %s each", strat.Units(), human(blockSize))
				runErr = runner.WritePass(env.ctx, res)
				if runErr == nil {
					env.markPhase("Write")
				}
			}
			if runErr == nil && doVerify {
				runErr = runner.VerifyPass(env.ctx, res)
				if runErr == nil {
					env.markPhase("Verify")
				}
			}
			cleanupErr := runner.Cleanup()
			if cleanupErr == nil {
				env.markPhase("Cleanup")
			}

			env.finish()
			if doCreate {
				fmt.Printf("Wrote %d files taking %s\n", res.Written, human(res.Written*blockSize))
			}
			if doVerify {
				fmt.Printf("Verified %d files taking %s\n", res.Verified, human(res.Verified*blockSize))
			}
			return verdict(res, runErr, cleanupErr)
		},
	}
	multiCmd.Flags().BoolVar(&mCached, "cached", false, "verify through the filesystem cache")
	multiCmd.Flags().BoolVar(&mKeepGoing, "keep-going", false, "record mismatches and continue instead of stopping at the first")
	multiCmd.Flags().BoolVar(&createOnly, "create-only", false, "only create and write the sequence files")
	multiCmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "only verify existing sequence files")
	multiCmd.Flags().BoolVar(&deleteOnly, "delete-only", false, "only delete sequence files from a prior run")

	/* ---------- stats ---------- */

	statsCmd := &cobra.Command{
		Use:   "stats <path>",
		Short: "Print the device stats the test would rely on",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			stats, err := verispace.Probe(args[0])
			if err != nil {
				return err
			}
			printStats(stats)
			return nil
		},
	}

	root.AddCommand(singleCmd, multiCmd, statsCmd)

	if err := root.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
