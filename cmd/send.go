package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sparkdrop/sparkdrop/internal/config"
	"github.com/sparkdrop/sparkdrop/internal/files"
	"github.com/sparkdrop/sparkdrop/internal/session"
	"github.com/sparkdrop/sparkdrop/internal/transfer"
	"github.com/sparkdrop/sparkdrop/internal/ui"
)

var (
	flagDomain string
	flagServer string
	flagSTUN   string
)

var sendCmd = &cobra.Command{
	Use:     "send <file>",
	Aliases: []string{"s"},
	Short:   "Send a file to a receiver",
	Long: `Send a file directly to a receiver over a WebRTC data channel.

Examples:
  sparkdrop send report.pdf
  sparkdrop send --server ws://localhost:8080/ws report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendFile(args[0])
	},
}

func sendFile(path string) error {
	info, err := files.Validate(path)
	if err != nil {
		return err
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	defer stopSpinner()
	connCtx, err := NewConnectionContext(config.Options{
		Domain:     flagDomain,
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
	})
	if err != nil {
		return err
	}
	defer connCtx.Close()
	stopSpinner()

	peer, err := sessionPeer(connCtx.Config)
	if err != nil {
		return err
	}

	// The channel must exist before the offer so its description is part
	// of the negotiated SDP.
	channel, err := peer.CreateChannel()
	if err != nil {
		return err
	}

	channelOpen := make(chan struct{}, 1)
	channel.OnOpen(func() {
		select {
		case channelOpen <- struct{}{}:
		default:
		}
	})

	connFailed := make(chan struct{}, 1)
	peer.OnConnectionFailed(func() {
		select {
		case connFailed <- struct{}{}:
		default:
		}
	})

	sess := session.NewSender(connCtx.Client, peer)
	sess.Start()

	fmt.Println()
	ui.RenderSessionInfo(sess.ID, connCtx.Config.SessionLink(sess.ID))

	// Interrupt aborts the session at any state.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sessErr := runSession(ctx, sess)
	defer sess.Close()

	fmt.Println()
	stopSpinner = ui.RunWaitingSpinner("Waiting for receiver to join...")
	defer stopSpinner()

	select {
	case <-channelOpen:
		stopSpinner()
	case <-connFailed:
		stopSpinner()
		return transfer.NewError("connect", transfer.ErrChannelClosed)
	case err := <-sessErr:
		stopSpinner()
		if isCancelled(err) {
			return transfer.NewError("send", transfer.ErrTransferCancelled)
		}
		return err
	}

	fmt.Printf("%s Transferring %s...\n\n", ui.IconSend, info.Name)

	file, err := os.Open(info.Path)
	if err != nil {
		return transfer.NewFileError("open", info.Name, err)
	}
	defer file.Close()

	reporter := transfer.NewReporter(info.Name, info.Size)
	reporter.Start()

	done := make(chan struct{})
	go reporter.RunLoop(done)

	sender := transfer.NewSender(channel)
	sendErr := sender.Send(ctx, transfer.Metadata{Name: info.Name, Size: info.Size}, file, reporter.Handle)
	close(done)
	fmt.Println()

	if sendErr != nil {
		return sendErr
	}

	ui.PrintSuccessf("Sent %s", info.Name)
	fmt.Println()
	reporter.Summary("✅ Sent")
	return nil
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&flagDomain, "domain", "d", "", "Relay domain")
	sendCmd.Flags().StringVar(&flagServer, "server", "", "Full relay websocket URL (overrides --domain)")
	sendCmd.Flags().StringVar(&flagSTUN, "stun", "", "Custom STUN server(s), comma separated")
}
