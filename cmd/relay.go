package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sparkdrop/sparkdrop/internal/relay"
)

var flagRelayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a signaling relay server",
	Long: `Run the signaling relay that bootstraps peer connections. The relay
only forwards session envelopes; file data flows peer to peer and never
reaches it.

Example:
  sparkdrop relay --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hub := relay.NewHub()
		go hub.Run()

		fmt.Printf("Signaling relay listening on %s\n", flagRelayAddr)
		return http.ListenAndServe(flagRelayAddr, relay.Handler(hub))
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().StringVarP(&flagRelayAddr, "addr", "a", ":8080", "Listen address")
}
