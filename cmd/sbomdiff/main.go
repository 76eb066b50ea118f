package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "sbomdiff",
	Short: "Compare SBOMs produced by different tools and measure their agreement.",
	Long: `sbomdiff normalizes package inventories out of CycloneDX and SPDX
documents and measures how well different SBOM generators agree, both
pairwise and against a known-good reference list.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the engine config file.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
