package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/span"
	"github.com/jamesainslie/go-nereval/internal/tool"
)

var replFlags modelFlags

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively decode tag sequences, or tag text when a model is given",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r := &repl{out: cmd.OutOrStdout(), scheme: label.BIOS}

		scheme, err := resolveScheme(replFlags.scheme, label.BIOS)
		if err != nil {
			return err
		}
		r.scheme = scheme

		if replFlags.labels != "" {
			cfg, err := label.LoadConfig(replFlags.labels)
			if err != nil {
				return err
			}
			if replFlags.scheme == "" {
				r.scheme = cfg.ParsedScheme()
			}
			r.suggestions = suggestionsFor(cfg.Labels)
		}

		if replFlags.configured() {
			tagger, err := replFlags.open(newLogger())
			if err != nil {
				return fmt.Errorf("creating tagger: %w", err)
			}
			defer func() { _ = tagger.Close() }()
			r.tagger = tagger
		}

		return r.run(cmd.Context())
	},
}

func init() {
	replFlags.register(replCmd)
}

type repl struct {
	out         io.Writer
	scheme      label.Scheme
	tagger      tool.Tagger
	suggestions []prompt.Suggest
}

func (r *repl) run(ctx context.Context) error {
	mode := "decode"
	if r.tagger != nil {
		mode = "tag"
	}
	fmt.Fprintf(r.out, "ner-cli %s (%s scheme), quit to exit\n", mode, r.scheme)

	history := []string{}
	for {
		in := prompt.Input("> ", r.completer,
			prompt.OptionTitle("ner-cli "+mode),
			prompt.OptionPrefixTextColor(prompt.Yellow),
			prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
			prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
			prompt.OptionSuggestionBGColor(prompt.DarkGray),
			prompt.OptionMaxSuggestion(12),
			prompt.OptionHistory(history),
		)

		in = strings.TrimSpace(in)
		if in == "quit" || in == "exit" {
			return nil
		}
		if in == "" {
			continue
		}
		history = append(history, in)

		if err := r.eval(ctx, in); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// eval tags the line as text when a tagger is loaded, otherwise decodes it
// as a whitespace separated tag sequence.
func (r *repl) eval(ctx context.Context, line string) error {
	if r.tagger == nil {
		return decodeLine(r.out, strings.Fields(line), r.scheme, false)
	}

	entities, err := r.tagger.Tag(ctx, line)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Fprintln(r.out, "no entities")
		return nil
	}
	for _, e := range entities {
		fmt.Fprintf(r.out, "%-8s %q %s %.4f\n", e.Type, e.Text,
			span.Span{Type: e.Type, Start: e.Start, End: e.End}, e.Score)
	}
	return nil
}

func (r *repl) completer(d prompt.Document) []prompt.Suggest {
	if r.tagger != nil {
		return nil
	}
	return r.suggest(d.GetWordBeforeCursor())
}

func (r *repl) suggest(word string) []prompt.Suggest {
	if word == "" {
		return nil
	}
	return prompt.FilterHasPrefix(r.suggestions, word, true)
}

// suggestionsFor offers every label that parses as a tag.
func suggestionsFor(labels []string) []prompt.Suggest {
	var s []prompt.Suggest
	for _, l := range labels {
		if _, err := label.Parse(l, label.BIOS); err != nil {
			continue
		}
		s = append(s, prompt.Suggest{Text: l})
	}
	return s
}
