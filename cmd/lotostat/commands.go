package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/history"
)

func newStatsCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Frequency, gaps, parity, runs, sums and repeated sub-combinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum := a.engine.Summary()
			if a.asJSON {
				return a.printJSON(sum)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "draws\t%d\trejected\t%d\n", sum.Draws, sum.Rejected)
			if sum.Last != nil {
				fmt.Fprintf(tw, "last\t%d\t%s\t%s\n", sum.Last.ID, sum.Last.Date, sum.Last.Numbers)
			}
			fmt.Fprintln(tw, "\nnumber\tcount\tcurrent gap\tmax gap")
			for i, nc := range sum.Frequency.Entries {
				if i == top {
					break
				}
				fmt.Fprintf(tw, "%02d\t%d\t", nc.Number, nc.Count)
				for _, g := range sum.Gaps {
					if g.Number == nc.Number {
						fmt.Fprintf(tw, "%d\t%d", g.Current, g.Max)
					}
				}
				fmt.Fprintln(tw)
			}
			fmt.Fprintln(tw, "\neven\todd\tdraws")
			for _, p := range sum.Parity {
				fmt.Fprintf(tw, "%d\t%d\t%d\n", p.Even, p.Odd, p.Count)
			}
			fmt.Fprintln(tw, "\nrun\toccurrences")
			for _, b := range sum.Runs.Buckets {
				fmt.Fprintf(tw, "%d\t%d\n", b.Length, b.Count)
			}
			fmt.Fprintf(tw, "\nsum min\t%d\tmax\t%d\tmean\t%.1f\tstddev\t%.1f\n",
				sum.Sums.Min, sum.Sums.Max, sum.Sums.Mean, sum.Sums.StdDev)
			for _, size := range []int{2, 3, 4, 5} {
				for i, c := range sum.Combos[size] {
					if i == 3 {
						break
					}
					fmt.Fprintf(tw, "combo %d\t%s\t%d\n", size, c.Numbers, c.Count)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&top, "top", 25, "rows in the frequency table")
	return cmd
}

// overrideFlags binds the generator/sampler overrides to a command.
type overrideFlags struct {
	count, size, window, tier, top, budget int
	seed                                   uint64
	noAvoidLast, noBalanceSum              bool
}

func (f *overrideFlags) overrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	set := func(name string, v int, dst **int) {
		if cmd.Flags().Changed(name) {
			*dst = &v
		}
	}
	set("count", f.count, &o.Count)
	set("size", f.size, &o.Size)
	set("window", f.window, &o.FrequencyWindow)
	set("tier", f.tier, &o.Tier)
	set("top", f.top, &o.TopN)
	set("budget", f.budget, &o.Budget)
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		o.Seed = &seed
	}
	if f.noAvoidLast {
		v := false
		o.AvoidLastDraw = &v
	}
	if f.noBalanceSum {
		v := false
		o.BalanceSum = &v
	}
	return o
}

func newGenerateCmd(a *app) *cobra.Command {
	var f overrideFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build balanced games from hot, cold and filler numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.engine.Generate(f.overrides(cmd))
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(res)
			}
			for i, g := range res.Games {
				fmt.Fprintf(a.out, "%2d  %s  (sum %d)\n", i+1, g.Numbers, g.Numbers.Sum())
			}
			if res.Shortfall() > 0 {
				fmt.Fprintf(a.out, "only %d of %d games produced\n", res.Produced, res.Requested)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.count, "count", 1, "games to generate")
	fl.IntVar(&f.size, "size", 15, "numbers per game")
	fl.IntVar(&f.window, "window", 0, "draws used for hot ranking (0 = all)")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed (omit for a fresh one)")
	fl.BoolVar(&f.noAvoidLast, "no-avoid-last", false, "allow heavy overlap with the last draw")
	fl.BoolVar(&f.noBalanceSum, "no-balance-sum", false, "disable target-sum balancing")
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "The most frequent and most overdue numbers as one game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.engine.Suggest(size)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(g)
			}
			fmt.Fprintf(a.out, "%s  (sum %d)\n", g.Numbers, g.Numbers.Sum())
			for _, no := range g.SortedOrigins() {
				fmt.Fprintf(a.out, "%02d %s\n", no.Number, no.Origin)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "numbers in the game (0 = one draw)")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		f   overrideFlags
		qty map[string]int
	)
	cmd := &cobra.Command{
		Use:     "batch",
		Short:   "Generate games of several sizes at once and backtest them",
		Example: "  lotostat batch --qty 15=3,17=1 --seed 7",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quantities := make(map[int]int, len(qty))
			for k, v := range qty {
				size, err := strconv.Atoi(k)
				if err != nil {
					return fmt.Errorf("invalid size %q", k)
				}
				quantities[size] = v
			}
			b, err := a.engine.GenerateBatch(quantities, f.overrides(cmd))
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(b)
			}
			tiers := a.engine.Settings().Rules.Tiers()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprint(tw, "#\tgame\teven/odd\tsum")
			for _, t := range tiers {
				fmt.Fprintf(tw, "\t%d", t)
			}
			fmt.Fprintln(tw)
			for i, g := range b.Games {
				fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%d", i+1, g.Numbers, g.Even, g.Odd, g.Sum)
				for _, t := range tiers {
					fmt.Fprintf(tw, "\t%d", g.Record.Tiers[t])
				}
				fmt.Fprintln(tw)
			}
			if n := b.Shortfall(); n > 0 {
				fmt.Fprintf(tw, "%d requested games could not be produced\n", n)
			}
			return tw.Flush()
		},
	}
	fl := cmd.Flags()
	fl.StringToIntVar(&qty, "qty", nil, "games per size, e.g. 15=3,16=1")
	fl.IntVar(&f.window, "window", 0, "draws used for hot ranking (0 = all)")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed (omit for a fresh one)")
	fl.BoolVar(&f.noAvoidLast, "no-avoid-last", false, "allow heavy overlap with the last draw")
	fl.BoolVar(&f.noBalanceSum, "no-balance-sum", false, "disable target-sum balancing")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newSampleCmd(a *app) *cobra.Command {
	var (
		f       overrideFlags
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Search random games for the best historical performers at a tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			rep, err := a.engine.Sample(ctx, f.overrides(cmd))
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(rep)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tgame\tat tier\trate %\ttotal")
			for i, c := range rep.Candidates {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%d\n", i+1, c.Numbers, c.AtTier, c.Rate, c.Total)
			}
			fmt.Fprintf(tw, "sampled %d, unique %d, qualified %d", rep.Sampled, rep.Unique, rep.Qualified)
			if rep.Truncated {
				fmt.Fprint(tw, " (truncated)")
			}
			fmt.Fprintln(tw)
			return tw.Flush()
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.size, "size", 15, "numbers per game")
	fl.IntVar(&f.tier, "tier", 15, "target score tier")
	fl.IntVar(&f.top, "top", 10, "candidates to keep")
	fl.IntVar(&f.budget, "budget", 20000, "random candidates to draw")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed (omit for a fresh one)")
	fl.DurationVar(&timeout, "timeout", 0, "stop early after this long")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate GAME...",
		Short: "Backtest games against every historical draw",
		Long:  "Each GAME is a comma separated list of numbers, e.g. 1,2,3,5,8,13,...",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			games := make([][]int, len(args))
			for i, arg := range args {
				g, err := parseGame(arg)
				if err != nil {
					return fmt.Errorf("game %d: %w", i+1, err)
				}
				games[i] = g
			}
			recs, err := a.engine.Evaluate(games)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(recs)
			}
			tiers := a.engine.Settings().Rules.Tiers()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprint(tw, "game")
			for _, t := range tiers {
				fmt.Fprintf(tw, "\t%d", t)
			}
			fmt.Fprintln(tw, "\ttotal")
			for _, r := range recs {
				fmt.Fprint(tw, r.Numbers)
				for _, t := range tiers {
					fmt.Fprintf(tw, "\t%d", r.Tiers[t])
				}
				fmt.Fprintf(tw, "\t%d\n", r.Total)
			}
			return tw.Flush()
		},
	}
}

func parseGame(s string) ([]int, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func newPriceCmd(a *app) *cobra.Command {
	var (
		sizes        []int
		participants int
	)
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Cost of a set of games and each participant's share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := a.engine.Price(sizes, participants)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(q)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "size\tqty\tunit\tsubtotal")
			for _, l := range q.Lines {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", l.Size, l.Qty, money(l.UnitPrice), money(l.Subtotal))
			}
			fmt.Fprintf(tw, "total\t\t\t%s %s\n", money(q.TotalCents), q.Currency)
			fmt.Fprintf(tw, "per person (%d)\t\t\t%s (+%s remainder)\n",
				q.Share.Participants, money(q.Share.PerPersonCents), money(q.Share.RemainderCents))
			return tw.Flush()
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{history.DefaultRules().DrawSize}, "game sizes, one entry per game")
	cmd.Flags().IntVar(&participants, "participants", 1, "people sharing the cost")
	return cmd
}

func money(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
