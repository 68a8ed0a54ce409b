package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gatehouse",
	Short: "Gatehouse is a passphrase-and-SMS access gate for a personal site",
	Long: `Gatehouse sits in front of a private site and only lets visitors through
after a shared passphrase and an SMS one-time code. Everyone else can opt
into a sanitized placeholder page instead.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
