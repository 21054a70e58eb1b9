package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sparkdrop/sparkdrop/internal/ui"
	"github.com/sparkdrop/sparkdrop/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "sparkdrop",
	Short:   "Peer-to-peer file transfer over WebRTC data channels",
	Long: `Sparkdrop transfers a file directly between two devices over a WebRTC
data channel. A signaling relay is used only to bootstrap the connection;
the file itself never touches a server. Interop with browser peers joining
via the shared link is part of the wire protocol.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
