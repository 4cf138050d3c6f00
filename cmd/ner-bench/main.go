// Command ner-bench scores NER predictions against gold annotations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-nereval/internal/bench"
	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/score"
)

var flags struct {
	labels   string
	data     string
	format   string
	scheme   string
	workers  int
	json     bool
	progress bool
	compare  []string
	verbose  bool
}

var rootCmd = &cobra.Command{
	Use:   "ner-bench --labels LABELS (--data FILE | --compare A,B,...)",
	Short: "Score NER predictions against gold annotations",
	Long: "Score NER predictions against gold annotations with exact entity matching.\n" +
		"Corpora are JSON lines, CoNLL columns or length-delimited protobuf records.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.labels, "labels", "", "Path to label config (required)")
	f.StringVar(&flags.data, "data", "", "Path to corpus with gold and predicted tags")
	f.StringVar(&flags.format, "format", "", "Corpus format: jsonl, conll, record (default: from extension)")
	f.StringVar(&flags.scheme, "scheme", "", "Tagging scheme, overrides the label config (bios, bio)")
	f.IntVar(&flags.workers, "workers", runtime.NumCPU(), "Parallel evaluation workers")
	f.BoolVar(&flags.json, "json", false, "Print the report as JSON")
	f.BoolVar(&flags.progress, "progress", false, "Show a progress bar")
	f.StringSliceVar(&flags.compare, "compare", nil, "Comma-separated corpora to rank by F1")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	_ = rootCmd.MarkFlagRequired("labels")
	rootCmd.MarkFlagsMutuallyExclusive("data", "compare")
	rootCmd.MarkFlagsOneRequired("data", "compare")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	labelCfg, err := label.LoadConfig(flags.labels)
	if err != nil {
		return err
	}

	cfg := bench.DefaultConfig()
	cfg.Workers = flags.workers
	cfg.Logger = logger
	cfg.Scheme = labelCfg.ParsedScheme()
	if flags.scheme != "" {
		if cfg.Scheme, err = label.ParseScheme(flags.scheme); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if len(flags.compare) > 0 {
		return runCompare(ctx, out, labelCfg, cfg)
	}
	return runSingle(ctx, out, labelCfg, cfg, logger)
}

func runSingle(ctx context.Context, out io.Writer, labelCfg label.Config, cfg bench.Config, logger *slog.Logger) error {
	sentences, err := bench.LoadCorpus(flags.data, flags.format)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	logger.Info("loaded corpus", "path", flags.data, "sentences", len(sentences))

	var stopProgress func()
	if flags.progress {
		cfg.Progress, stopProgress = progressBar(len(sentences))
	}

	report, err := evaluate(ctx, sentences, labelCfg, cfg)
	if stopProgress != nil {
		stopProgress()
	}
	if err != nil {
		return err
	}

	if flags.verbose {
		report.Log(logger)
	}
	if flags.json {
		return writeJSON(out, report)
	}
	printReport(out, report)
	return nil
}

// evaluate scores a corpus with the scorer matching its annotation form.
func evaluate(ctx context.Context, sentences []bench.Sentence, labelCfg label.Config, cfg bench.Config) (score.Report, error) {
	labels, types, err := maps(labelCfg)
	if err != nil {
		return score.Report{}, err
	}
	return bench.EvaluateCorpus(ctx, sentences, labels, types, cfg)
}

// maps builds the tag label map and the entity type map of a label config.
func maps(labelCfg label.Config) (labels, types *label.Map, err error) {
	if labels, err = labelCfg.Map(); err != nil {
		return nil, nil, err
	}
	if types, err = labelCfg.TypeMap(); err != nil {
		return nil, nil, err
	}
	return labels, types, nil
}

func runCompare(ctx context.Context, out io.Writer, labelCfg label.Config, cfg bench.Config) error {
	labels, types, err := maps(labelCfg)
	if err != nil {
		return err
	}

	runs := make([]bench.Run, 0, len(flags.compare))
	for _, path := range flags.compare {
		sentences, err := bench.LoadCorpus(path, flags.format)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		runs = append(runs, bench.Run{Name: filepath.Base(path), Sentences: sentences})
	}

	results, err := bench.Compare(ctx, runs, labels, types, cfg)
	if err != nil {
		return err
	}

	if flags.json {
		return writeJSON(out, results)
	}

	fmt.Fprintf(out, "%-30s %-8s %-8s %-8s\n", "Run", "Prec", "Rec", "F1")
	fmt.Fprintln(out, strings.Repeat("-", 56))
	for _, r := range results {
		m := r.Report.Overall
		fmt.Fprintf(out, "%-30s %-8.4f %-8.4f %-8.4f\n", r.Name, m.Precision, m.Recall, m.F1)
	}
	return nil
}

// progressBar returns a Progress callback driving a terminal bar and a
// function that stops rendering.
func progressBar(total int) (func(int), func()) {
	uiprogress.Start()
	bar := uiprogress.AddBar(total)
	bar.AppendCompleted()
	bar.PrependElapsed()

	return func(done int) { _ = bar.Set(done) }, uiprogress.Stop
}

func printReport(out io.Writer, r score.Report) {
	m := r.Overall
	fmt.Fprintf(out, "Precision: %.4f  Recall: %.4f  F1: %.4f\n", m.Precision, m.Recall, m.F1)
	fmt.Fprintf(out, "(Gold: %d, Predicted: %d, Correct: %d)\n", r.Origin, r.Found, r.Right)

	types := r.Types()
	if len(types) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-20s %-8s %-8s %-8s\n", "Type", "Prec", "Rec", "F1")
	fmt.Fprintln(out, strings.Repeat("-", 46))
	for _, t := range types {
		e := r.Entities[t]
		fmt.Fprintf(out, "%-20s %-8.4f %-8.4f %-8.4f\n", t, e.Precision, e.Recall, e.F1)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
