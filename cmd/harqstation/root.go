// Package main provides the harqstation command-line demo driver.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd is the base command when harqstation is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "harqstation",
	Short: "harqstation runs a synthetic HARQ scheduling demo",
	Long: `harqstation drives a configurable fleet of synthetic UEs through a ` +
		`configurable number of TTIs, standing in for the per-TTI tick ` +
		`dispatcher that would otherwise surround the HARQ core in a real ` +
		`base station.`,
}

func init() {
	// .env values are loaded into the environment (never overriding
	// variables already set); the run command takes its --ues, --ttis and
	// --monitor-port defaults and its ClickHouse settings from there. A
	// missing .env file is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "harqstation: could not load .env: %v\n", err)
	}
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
