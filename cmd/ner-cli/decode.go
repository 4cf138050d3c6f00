package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/span"
)

var decodeFlags struct {
	scheme string
	json   bool
}

var decodeCmd = &cobra.Command{
	Use:   "decode [TAG...]",
	Short: "Decode a tag sequence into entity spans",
	Long: "Decode a tag sequence into entity spans. Tags are read from the arguments, " +
		"or from stdin with one whitespace separated sequence per line.",
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeFlags.scheme, "scheme", "bios", "Tagging scheme (bios, bio)")
	decodeCmd.Flags().BoolVar(&decodeFlags.json, "json", false, "Print spans as JSON lines")
}

func runDecode(cmd *cobra.Command, args []string) error {
	scheme, err := label.ParseScheme(decodeFlags.scheme)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		return decodeLine(out, args, scheme, decodeFlags.json)
	}

	scanner := bufio.NewScanner(os.Stdin)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		tags := strings.Fields(scanner.Text())
		if len(tags) == 0 {
			continue
		}
		if err := decodeLine(out, tags, scheme, decodeFlags.json); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func decodeLine(w io.Writer, tags []string, scheme label.Scheme, asJSON bool) error {
	spans, err := span.Decode(tags, scheme)
	if err != nil {
		return err
	}

	if asJSON {
		if spans == nil {
			spans = []span.Span{}
		}
		return json.NewEncoder(w).Encode(spans)
	}

	parts := make([]string, len(spans))
	for i, s := range spans {
		parts[i] = s.String()
	}
	_, err = fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
