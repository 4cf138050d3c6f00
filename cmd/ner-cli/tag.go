package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tagFlags struct {
	modelFlags
	json bool
}

var tagCmd = &cobra.Command{
	Use:   "tag --model MODEL --tokenizer TOKENIZER --labels LABELS TEXT",
	Short: "Find the entities in text with an ONNX model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		tagger, err := tagFlags.open(newLogger())
		if err != nil {
			return fmt.Errorf("creating tagger: %w", err)
		}
		defer func() { _ = tagger.Close() }() // Cleanup error ignored in CLI

		entities, err := tagger.Tag(cmd.Context(), text)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if tagFlags.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entities)
		}

		fmt.Fprintf(out, "Text: %q\n", text)
		fmt.Fprintf(out, "Entities (%d):\n", len(entities))
		for _, e := range entities {
			fmt.Fprintf(out, "  %-8s %q [%d:%d] %.4f\n", e.Type, e.Text, e.ByteStart, e.ByteEnd, e.Score)
		}
		return nil
	},
}

func init() {
	tagFlags.register(tagCmd)
	tagCmd.Flags().BoolVar(&tagFlags.json, "json", false, "Print entities as JSON")
}
