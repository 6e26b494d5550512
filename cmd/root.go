package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scorelib",
	Short: "Sheet music recognition pipeline",
	Long:  `Turns scanned sheet music into corrected MusicXML, either as a one-shot conversion or behind an HTTP API.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
