package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"scorelib/generate"
	"scorelib/meta"
	"scorelib/observability"
	"scorelib/omr"
	"scorelib/omr/homrcli"
)

var (
	processEngineCommand string
	processShowMeta      bool
)

func init() {
	processCmd.Flags().StringVar(&processEngineCommand, "engine", "", "recognition engine command")
	processCmd.Flags().BoolVar(&processShowMeta, "meta", false, "print tempo and metadata to stderr")
	rootCmd.AddCommand(processCmd)
}

var processCmd = &cobra.Command{
	Use:   "process <image>",
	Short: "Convert one page image to MusicXML on stdout",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		process(args[0])
	},
}

func process(path string) {
	image, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read image: %v", err)
	}

	opts := []omr.Option{omr.WithLogger(observability.NopLogger{})}
	if processEngineCommand != "" {
		opts = append(opts, omr.WithEngine(homrcli.New(processEngineCommand)))
	}

	processor := omr.NewProcessor(generate.DefaultPolicy(), opts...)
	doc, warnings, errs := processor.Process(context.Background(), image, path)

	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "error:", e)
		}
		os.Exit(1)
	}

	if processShowMeta {
		fmt.Fprintln(os.Stderr, "tempo:", meta.ExtractTempo(doc))
		for k, v := range meta.ExtractMetadata(doc) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", k, v)
		}
	}
	fmt.Print(doc)
}
