// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/fatih/color"
	"golang.org/x/term"

	"phi-arbiter/internal/config"
	"phi-arbiter/internal/engine"
	"phi-arbiter/internal/observability"
	"phi-arbiter/internal/spans"
	"phi-arbiter/internal/version"
)

// cliFlags holds command line flag values.
type cliFlags struct {
	textFile    string
	spansFile   string
	configFile  string
	format      string
	workers     int
	verbose     bool
	debug       bool
	noColor     bool
	showVersion bool
}

func parseFlags() *cliFlags {
	flags := &cliFlags{}

	flag.StringVar(&flags.textFile, "text", "", "Path to the document text file")
	flag.StringVar(&flags.spansFile, "spans", "", "Path to the candidate spans JSON file")
	flag.StringVar(&flags.configFile, "config", "", "Path to configuration file (default: auto-discover)")
	flag.StringVar(&flags.format, "format", "text", "Output format: text, json")
	flag.IntVar(&flags.workers, "workers", 0, "Worker count for batch input (default: from config)")
	flag.BoolVar(&flags.verbose, "verbose", false, "Show per-span detail")
	flag.BoolVar(&flags.debug, "debug", false, "Emit operation records to stderr")
	flag.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version information")
	flag.Parse()

	return flags
}

// candidateFile is the accepted JSON input shape: either a flat span
// list for one document, or a batch of documents.
type candidateFile struct {
	Spans     []*spans.Span `json:"spans,omitempty"`
	Documents []struct {
		ID    string        `json:"id,omitempty"`
		Text  string        `json:"text"`
		Spans []*spans.Span `json:"spans"`
	} `json:"documents,omitempty"`
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Respect NO_COLOR and non-TTY stdout unless explicitly forced.
	if flags.noColor || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	if flags.spansFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -spans is required")
		flag.Usage()
		os.Exit(2)
	}

	level := observability.LevelMetrics
	if flags.debug {
		level = observability.LevelDebug
	}
	observer := observability.NewStandardObserver(level, os.Stderr)

	cfg := config.LoadConfigOrDefault(flags.configFile, observer)
	if flags.workers > 0 {
		cfg.Engine.Workers = flags.workers
	} else if cfg.Engine.Workers <= 0 {
		cfg.Engine.Workers = runtime.NumCPU()
	}

	eng := engine.New(cfg, observer)

	input, err := readCandidates(flags.spansFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	docs, err := buildDocuments(input, flags.textFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	results := eng.ProcessBatch(docs)

	switch flags.format {
	case "json":
		if err := writeJSON(os.Stdout, docs, results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeText(docs, results, flags.verbose)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", flags.format)
		os.Exit(2)
	}
}

func readCandidates(path string) (*candidateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spans file: %w", err)
	}
	var input candidateFile
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parsing spans file: %w", err)
	}
	return &input, nil
}

// buildDocuments assembles engine input. Flat-span input requires the
// -text flag; batch input carries text inline per document.
func buildDocuments(input *candidateFile, textFile string) ([]engine.Document, error) {
	if len(input.Documents) > 0 {
		docs := make([]engine.Document, len(input.Documents))
		for i, d := range input.Documents {
			id := d.ID
			if id == "" {
				id = fmt.Sprintf("doc-%d", i)
			}
			docs[i] = engine.Document{ID: id, Text: d.Text, Spans: d.Spans}
		}
		return docs, nil
	}

	if textFile == "" {
		return nil, fmt.Errorf("flat span input requires -text")
	}
	text, err := os.ReadFile(textFile)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	return []engine.Document{{ID: "doc-0", Text: string(text), Spans: input.Spans}}, nil
}

func writeJSON(w *os.File, docs []engine.Document, results [][]*spans.Span) error {
	type docResult struct {
		ID       string        `json:"id"`
		Accepted []*spans.Span `json:"accepted"`
	}
	out := make([]docResult, len(docs))
	for i := range docs {
		accepted := results[i]
		if accepted == nil {
			accepted = []*spans.Span{}
		}
		out[i] = docResult{ID: docs[i].ID, Accepted: accepted}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(docs []engine.Document, results [][]*spans.Span, verbose bool) {
	header := color.New(color.Bold)
	typeColor := color.New(color.FgCyan)
	confHigh := color.New(color.FgGreen)
	confLow := color.New(color.FgYellow)

	for i := range docs {
		accepted := results[i]
		header.Printf("%s: %d candidate(s), %d accepted\n", docs[i].ID, len(docs[i].Spans), len(accepted))

		if !verbose {
			summarizeTypes(accepted)
			continue
		}

		for _, s := range accepted {
			conf := confHigh
			if s.Confidence < 0.65 {
				conf = confLow
			}
			fmt.Printf("  [%4d:%-4d] %s %s %q\n",
				s.Start, s.End,
				typeColor.Sprintf("%-14s", string(s.Type)),
				conf.Sprintf("%.2f", s.Confidence),
				s.Text)
		}
	}
}

func summarizeTypes(accepted []*spans.Span) {
	counts := make(map[spans.FilterType]int)
	for _, s := range accepted {
		counts[s.Type]++
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	for _, t := range types {
		fmt.Printf("  %-14s %d\n", t, counts[spans.FilterType(t)])
	}
}
