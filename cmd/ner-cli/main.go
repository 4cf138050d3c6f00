// Command ner-cli decodes tag sequences, tags text with an ONNX model and
// serves both over MCP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-nereval"
	"github.com/jamesainslie/go-nereval/inference"
	"github.com/jamesainslie/go-nereval/label"
)

var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "ner-cli",
	Short:         "Decode, tag and score named entities",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(decodeCmd, tagCmd, replCmd, mcpCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// modelFlags are the flags shared by every command that loads a model.
type modelFlags struct {
	model     string
	tokenizer string
	labels    string
	scheme    string
	poolSize  int
	maxSeqLen int
	ortLib    string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "Path to ONNX token classification model")
	cmd.Flags().StringVar(&f.tokenizer, "tokenizer", "", "Path to tokenizer.json")
	cmd.Flags().StringVar(&f.labels, "labels", "", "Path to label config (YAML or JSON)")
	cmd.Flags().StringVar(&f.scheme, "scheme", "", "Tagging scheme, overrides the label config (bios, bio)")
	cmd.Flags().IntVar(&f.poolSize, "pool", 1, "ONNX session pool size")
	cmd.Flags().IntVar(&f.maxSeqLen, "max-seq-len", 512, "Model window in tokens")
	cmd.Flags().StringVar(&f.ortLib, "ort-lib", os.Getenv("ONNXRUNTIME_LIB"), "Path to the ONNX Runtime shared library")
}

func (f *modelFlags) configured() bool {
	return f.model != ""
}

func (f *modelFlags) open(logger *slog.Logger) (*nereval.Tagger, error) {
	if f.model == "" || f.tokenizer == "" || f.labels == "" {
		return nil, fmt.Errorf("--model, --tokenizer and --labels are required")
	}

	cfg, err := label.LoadConfig(f.labels)
	if err != nil {
		return nil, err
	}
	labels, err := cfg.Map()
	if err != nil {
		return nil, err
	}
	scheme, err := resolveScheme(f.scheme, cfg.ParsedScheme())
	if err != nil {
		return nil, err
	}

	inference.SetLibraryPath(f.ortLib)

	return nereval.New(f.model, f.tokenizer, labels,
		nereval.WithScheme(scheme),
		nereval.WithPoolSize(f.poolSize),
		nereval.WithMaxSeqLen(f.maxSeqLen),
		nereval.WithLogger(logger),
	)
}

// resolveScheme returns the named scheme, or fallback when name is empty.
func resolveScheme(name string, fallback label.Scheme) (label.Scheme, error) {
	if name == "" {
		return fallback, nil
	}
	return label.ParseScheme(name)
}
