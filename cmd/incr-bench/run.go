package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/incr-dev/incr/pkg/incr"
	"github.com/incr-dev/incr/pkg/incrmetrics"
	"github.com/incr-dev/incr/pkg/inspect"
)

// profile describes one synthetic workload shape.
type profile struct {
	Name string
	// Build constructs the graph and returns the sources to mutate and
	// the sinks to pull.
	Build func(g *incr.Graph, size int) (sources []*incr.Source[int], sinks []*incr.Derived[int])
}

var profiles = map[string]profile{
	// chain: one source feeding a linear pipeline. Every write dirties
	// the full chain.
	"chain": {
		Name: "chain",
		Build: func(g *incr.Graph, size int) ([]*incr.Source[int], []*incr.Derived[int]) {
			src := incr.NewSource(g, 0, incr.Named("chain-src"))
			prev := incr.NewDerived(g, func() int { return src.Get() + 1 })
			for i := 1; i < size; i++ {
				p := prev
				prev = incr.NewDerived(g, func() int { return p.MustGet() + 1 })
			}
			return []*incr.Source[int]{src}, []*incr.Derived[int]{prev}
		},
	},

	// cutoff: a chain behind a clamp. Writes past the clamp threshold
	// recompute exactly one node; the rest validates.
	"cutoff": {
		Name: "cutoff",
		Build: func(g *incr.Graph, size int) ([]*incr.Source[int], []*incr.Derived[int]) {
			src := incr.NewSource(g, 1000, incr.Named("cutoff-src"))
			clamp := incr.NewDerived(g, func() int {
				if v := src.Get(); v < 10 {
					return v
				}
				return 10
			}, incr.Named("clamp"))
			prev := clamp
			for i := 1; i < size; i++ {
				p := prev
				prev = incr.NewDerived(g, func() int { return p.MustGet() + 1 })
			}
			return []*incr.Source[int]{src}, []*incr.Derived[int]{prev}
		},
	},

	// diamond: layered fan-out/fan-in. Stresses the single-visit
	// guarantees of invalidation and evaluation.
	"diamond": {
		Name: "diamond",
		Build: func(g *incr.Graph, size int) ([]*incr.Source[int], []*incr.Derived[int]) {
			src := incr.NewSource(g, 1, incr.Named("diamond-src"))
			left := incr.NewDerived(g, func() int { return src.Get() * 2 })
			right := incr.NewDerived(g, func() int { return src.Get() * 3 })
			join := incr.NewDerived(g, func() int { return left.MustGet() + right.MustGet() })
			for i := 1; i < size; i++ {
				l, r := join, join
				left = incr.NewDerived(g, func() int { return l.MustGet() + 1 })
				right = incr.NewDerived(g, func() int { return r.MustGet() + 2 })
				lf, rf := left, right
				join = incr.NewDerived(g, func() int { return lf.MustGet() + rf.MustGet() })
			}
			return []*incr.Source[int]{src}, []*incr.Derived[int]{join}
		},
	},

	// fanout: one source read by many independent sinks.
	"fanout": {
		Name: "fanout",
		Build: func(g *incr.Graph, size int) ([]*incr.Source[int], []*incr.Derived[int]) {
			src := incr.NewSource(g, 0, incr.Named("fanout-src"))
			sinks := make([]*incr.Derived[int], size)
			for i := range sinks {
				k := i
				sinks[i] = incr.NewDerived(g, func() int { return src.Get() + k })
			}
			return []*incr.Source[int]{src}, sinks
		},
	},
}

func runCmd() *cobra.Command {
	var (
		profileName string
		size        int
		writes      int
		listen      string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workload profile against a fresh graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, ok := profiles[profileName]
			if !ok {
				return fmt.Errorf("unknown profile %q (have: chain, cutoff, diamond, fanout)", profileName)
			}

			var graphOpts []incr.Option
			col := incrmetrics.New()
			hub := inspect.NewHub()
			defer hub.Close()
			graphOpts = append(graphOpts, incr.WithObserver(incr.MultiObserver(col, hub)))
			if verbose {
				graphOpts = append(graphOpts, incr.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
			}

			g := incr.NewGraph(graphOpts...)
			sources, sinks := prof.Build(g, size)

			if listen != "" {
				srv := inspect.NewServer(g, inspect.WithHub(hub))
				go func() {
					fmt.Printf("inspector listening on http://%s\n", listen)
					if err := http.ListenAndServe(listen, srv.Handler()); err != nil {
						fmt.Fprintf(os.Stderr, "inspector: %v\n", err)
					}
				}()
			}

			// Warm pull so the baseline graph is fully evaluated.
			for _, d := range sinks {
				if _, err := d.Get(); err != nil {
					return fmt.Errorf("warm pull: %w", err)
				}
			}
			base := g.Stats()

			start := time.Now()
			for i := 1; i <= writes; i++ {
				for _, s := range sources {
					s.Set(i * 1000)
				}
				for _, d := range sinks {
					if _, err := d.Get(); err != nil {
						return fmt.Errorf("pull after write %d: %w", i, err)
					}
				}
			}
			elapsed := time.Since(start)

			st := g.Stats()
			fmt.Printf("profile      %s (size %d, %d writes)\n", prof.Name, size, writes)
			fmt.Printf("nodes        %d (%d sources, %d derived, %d edges)\n", st.Nodes, st.Sources, st.Deriveds, st.Edges)
			fmt.Printf("recomputes   %d\n", st.Recomputes-base.Recomputes)
			fmt.Printf("validations  %d\n", st.Validations-base.Validations)
			fmt.Printf("cache hits   %d\n", st.CacheHits-base.CacheHits)
			fmt.Printf("invalidated  %d\n", st.Invalidations-base.Invalidations)
			fmt.Printf("elapsed      %s (%.1f writes/s)\n", elapsed, float64(writes)/elapsed.Seconds())

			if listen != "" {
				fmt.Println("workload done; inspector still serving (ctrl-c to exit)")
				select {}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "chain", "workload profile: chain, cutoff, diamond, fanout")
	cmd.Flags().IntVarP(&size, "size", "n", 100, "graph size (depth or width, per profile)")
	cmd.Flags().IntVarP(&writes, "writes", "w", 1000, "number of write+pull rounds")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "serve the inspector on this address (e.g. localhost:6071)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug-log graph activity")
	return cmd
}
