package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/himanishpuri/SampleSensei/internal/metadata"
	"github.com/himanishpuri/SampleSensei/internal/search"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/models"
	"github.com/himanishpuri/SampleSensei/pkg/sensei"
)

// scanProgress draws one bar per scanned folder.
type scanProgress struct {
	out    io.Writer
	p      *mpb.Progress
	bars   map[string]*mpb.Bar
	silent bool
}

func newScanProgress(out io.Writer) *scanProgress {
	return &scanProgress{out: out, bars: make(map[string]*mpb.Bar)}
}

func (sp *scanProgress) update(pr sensei.ScanProgress) {
	if sp.silent {
		return
	}
	if sp.p == nil {
		sp.p = mpb.New(mpb.WithWidth(64), mpb.WithOutput(sp.out))
	}
	bar, ok := sp.bars[pr.Folder]
	if !ok {
		bar = sp.p.AddBar(int64(pr.Total),
			mpb.PrependDecorators(
				decor.Name("Indexing: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
		sp.bars[pr.Folder] = bar
	}
	bar.Increment()
}

func (sp *scanProgress) wait() {
	if sp.p != nil {
		sp.p.Wait()
	}
}

func newScanCmd() *cobra.Command {
	var noRecursive, analyze, quiet bool

	cmd := &cobra.Command{
		Use:   "scan [folders...]",
		Short: "Index new samples (configured folders when none are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			log := logger.GetLogger()
			progress := newScanProgress(w)
			progress.silent = quiet

			svc, err := createService(
				sensei.WithAudioAnalysis(analyze || appCfg.Index.AnalyzeAudio),
				sensei.WithScanProgress(progress.update),
			)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var added []sensei.Sample
			if len(args) == 0 {
				if len(svc.SampleFolders()) == 0 {
					fmt.Fprintln(w, "📭 No sample folders configured; pass a folder or set sample_folders")
					return nil
				}
				fmt.Fprintf(w, "🔍 Scanning %d configured folder(s)...\n", len(svc.SampleFolders()))
				added, err = svc.ScanConfigured(ctx)
			} else {
				for _, folder := range args {
					fmt.Fprintf(w, "🔍 Scanning %s...\n", folder)
					var got []sensei.Sample
					got, err = svc.ScanFolder(ctx, folder, !noRecursive)
					added = append(added, got...)
					if err != nil {
						break
					}
				}
			}
			progress.wait()
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			fmt.Fprintf(w, "\n✅ Indexed %d new sample(s); library now holds %d\n", len(added), svc.Count())
			printCategoryCounts(w, countByCategory(added))
			log.Infof("scan added %d samples", len(added))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "do not descend into subfolders")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "measure sample durations while scanning")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		category       string
		key            string
		bpmMin, bpmMax float64
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Rank samples against a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if category != "" && !metadata.IsCategory(category) {
				return fmt.Errorf("unknown category %q (want one of %s)", category, strings.Join(models.CategoryOrder, ", "))
			}
			opts := sensei.SearchOptions{Category: category, Key: key, Limit: limit}
			if cmd.Flags().Changed("bpm-min") || cmd.Flags().Changed("bpm-max") {
				if bpmMin > bpmMax {
					return fmt.Errorf("--bpm-min %g is above --bpm-max %g", bpmMin, bpmMax)
				}
				opts.BPMRange = &sensei.BPMRange{Min: bpmMin, Max: bpmMax}
			}

			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			query := strings.Join(args, " ")
			results := svc.Search(query, opts)
			if len(results) == 0 {
				fmt.Fprintf(w, "\n❌ No samples match %q\n", query)
				return nil
			}

			fmt.Fprintf(w, "\n✅ Found %d match(es) for %q:\n\n", len(results), query)
			for i, r := range results {
				printSample(w, i+1, r.Sample)
				fmt.Fprintf(w, "   Score: %.2f | %s\n\n", r.Score, strings.Join(r.MatchReasons, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only return samples of this category")
	cmd.Flags().StringVarP(&key, "key", "k", "", "prefer samples in this key, e.g. \"C minor\"")
	cmd.Flags().Float64Var(&bpmMin, "bpm-min", metadata.MinBPM, "lower tempo bound")
	cmd.Flags().Float64Var(&bpmMax, "bpm-max", metadata.MaxBPM, "upper tempo bound")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default: search.limit)")
	return cmd
}

func newCategoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "category <name>",
		Short: "List samples of one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			samples := svc.SearchByCategory(strings.ToLower(args[0]), limit)
			printSamples(w, samples, fmt.Sprintf("in category %q", args[0]))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultCategoryLimit, "maximum results")
	return cmd
}

func newBPMCmd() *cobra.Command {
	var (
		tolerance float64
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "bpm [target]",
		Short: "List samples closest to a tempo (default: preferences.default_bpm)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			target := appCfg.Preferences.DefaultBPM
			if len(args) == 1 {
				v, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid BPM %q: %w", args[0], err)
				}
				target = v
			}

			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			samples := svc.SearchByBPM(target, tolerance, limit)
			printSamples(w, samples, fmt.Sprintf("within %g of %g BPM", tolerance, target))
			return nil
		},
	}
	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", search.DefaultBPMTolerance, "allowed distance from the target")
	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultLimit, "maximum results")
	return cmd
}

func newRandomCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Pick random samples for inspiration",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			printSamples(w, svc.RandomSamples(count), "picked at random")
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of samples")
	return cmd
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Count samples per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			counts := svc.Categories()
			if len(counts) == 0 {
				fmt.Fprintln(w, "\n📭 Library is empty")
				return nil
			}
			fmt.Fprintf(w, "\n📚 %d sample(s) by category:\n", svc.Count())
			printCategoryCounts(w, counts)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every indexed sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			printSamples(w, svc.Samples(), "in the library")
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		duration float64
		out      string
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "generate <prompt...>",
		Short: "Render a drum loop from a prompt such as \"dark trap\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			var opts []sensei.Option
			if out != "" {
				opts = append(opts, sensei.WithOutputDir(out))
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, sensei.WithRand(rand.New(rand.NewSource(seed))))
			}

			svc, err := createService(opts...)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			prompt := strings.Join(args, " ")
			fmt.Fprintf(w, "🥁 Generating with the %s generator...\n", svc.GeneratorName())
			res := svc.Generate(cmd.Context(), prompt, duration)
			if !res.Success {
				return fmt.Errorf("generation failed: %s", res.Error)
			}

			fmt.Fprintln(w, "\n✅ Beat ready!")
			fmt.Fprintf(w, "   File:     %s\n", res.FilePath)
			fmt.Fprintf(w, "   Genre:    %s\n", res.Genre)
			fmt.Fprintf(w, "   Mood:     %s\n", res.Mood)
			fmt.Fprintf(w, "   Duration: %gs\n", res.Duration)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&duration, "duration", "d", 30, "length in seconds")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output folder (default: output_folder)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for reproducible output")
	return cmd
}

func newGenresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List genres and mood keywords understood by generate",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			fmt.Fprintln(w, "\n🎛  Genres:", strings.Join(svc.Genres(), ", "))
			fmt.Fprintln(w, "🎭 Moods: ", strings.Join(svc.Moods(), ", "))
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every sample from the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			n := svc.Count()
			if err := svc.Clear(); err != nil {
				return fmt.Errorf("failed to clear index: %w", err)
			}
			fmt.Fprintf(w, "\n🗑  Removed %d sample(s) from the index\n", n)
			logger.GetLogger().Infof("cleared %d samples", n)
			return nil
		},
	}
}

func countByCategory(samples []sensei.Sample) map[string]int {
	counts := make(map[string]int)
	for _, s := range samples {
		counts[s.Category]++
	}
	return counts
}

func printCategoryCounts(w io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for c := range counts {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, c := range names {
		fmt.Fprintf(w, "   %-8s %d\n", c, counts[c])
	}
}

func printSamples(w io.Writer, samples []sensei.Sample, what string) {
	if len(samples) == 0 {
		fmt.Fprintf(w, "\n📭 No samples %s\n", what)
		return
	}
	fmt.Fprintf(w, "\n📚 %d sample(s) %s:\n\n", len(samples), what)
	for i, s := range samples {
		printSample(w, i+1, s)
		fmt.Fprintln(w)
	}
}

func printSample(w io.Writer, n int, s sensei.Sample) {
	fmt.Fprintf(w, "%d. %s [%s]\n", n, s.FileName, s.Category)

	var details []string
	if s.BPM != nil {
		details = append(details, fmt.Sprintf("BPM: %g", *s.BPM))
	}
	if s.Key != nil {
		details = append(details, "Key: "+*s.Key)
	}
	if s.Duration != nil {
		details = append(details, fmt.Sprintf("Length: %.2fs", *s.Duration))
	}
	if len(s.Tags) > 0 {
		details = append(details, "Tags: "+strings.Join(s.Tags, ", "))
	}
	if len(details) > 0 {
		fmt.Fprintf(w, "   %s\n", strings.Join(details, " | "))
	}
	fmt.Fprintf(w, "   %s\n", s.FilePath)
}
