package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/sparkdrop/sparkdrop/internal/config"
	"github.com/sparkdrop/sparkdrop/internal/files"
	"github.com/sparkdrop/sparkdrop/internal/session"
	"github.com/sparkdrop/sparkdrop/internal/transfer"
	"github.com/sparkdrop/sparkdrop/internal/ui"
	"github.com/sparkdrop/sparkdrop/internal/webrtc"
)

var (
	flagRecvDomain string
	flagRecvServer string
	flagRecvSTUN   string
	flagRecvDir    string
)

var receiveCmd = &cobra.Command{
	Use:     "receive <session-id|link>",
	Aliases: []string{"r"},
	Short:   "Receive a file from a sender",
	Long: `Receive a file directly from a sender over a WebRTC data channel.

Examples:
  sparkdrop receive amber-comet-spark
  sparkdrop receive "https://sparkdrop.app/?session=amber-comet-spark"
  sparkdrop receive amber-comet-spark --dir ~/Downloads`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := config.ParseSessionInput(args[0])
		if err != nil {
			return err
		}
		return receiveFile(sessionID)
	},
}

// receiveState collects what the data-channel message callback builds up.
// pion delivers messages for one channel sequentially, so no locking is
// needed here.
type receiveState struct {
	receiver *transfer.Receiver
	reporter *transfer.Reporter
	redraw   chan struct{}
	result   chan *transfer.Result
	failure  chan error
	stopOnce sync.Once
}

// stop ends the redraw loop. Every exit path of receiveFile runs through
// it, so an error return never leaves the progress line repainting over
// the error message.
func (s *receiveState) stop() {
	s.stopOnce.Do(func() { close(s.redraw) })
}

func receiveFile(sessionID string) error {
	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	defer stopSpinner()
	connCtx, err := NewConnectionContext(config.Options{
		Domain:     flagRecvDomain,
		ServerURL:  flagRecvServer,
		STUNServer: flagRecvSTUN,
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

	state := &receiveState{
		redraw:  make(chan struct{}),
		result:  make(chan *transfer.Result, 1),
		failure: make(chan error, 1),
	}
	defer state.stop()
	state.receiver = transfer.NewReceiver(func(p transfer.Progress) {
		if state.reporter != nil {
			state.reporter.Handle(p)
		}
	})

	peer.OnChannel(func(ch *webrtc.Channel) {
		ch.OnMessage(state.handleMessage)
	})

	connFailed := make(chan struct{}, 1)
	peer.OnConnectionFailed(func() {
		select {
		case connFailed <- struct{}{}:
		default:
		}
	})

	sess := session.NewReceiver(connCtx.Client, peer, sessionID)
	sess.Start()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sessErr := runSession(ctx, sess)
	defer sess.Close()

	fmt.Println()
	stopSpinner = ui.RunWaitingSpinner("Waiting for sender...")
	defer stopSpinner()

	var result *transfer.Result
	select {
	case result = <-state.result:
		stopSpinner()
	case err := <-state.failure:
		stopSpinner()
		return err
	case <-connFailed:
		stopSpinner()
		return transfer.NewError("receive", transfer.ErrChannelClosed)
	case err := <-sessErr:
		stopSpinner()
		if isCancelled(err) {
			return transfer.NewError("receive", transfer.ErrTransferCancelled)
		}
		return err
	case <-time.After(receiveTimeout):
		stopSpinner()
		return transfer.WrapError("receive", transfer.ErrBufferTimeout, "no transfer completed in time")
	}

	state.stop()
	fmt.Println()

	name := files.SafeName(result.Name)
	if flagRecvDir != "" {
		if err := os.MkdirAll(flagRecvDir, 0755); err != nil {
			return transfer.NewFileError("create directory", flagRecvDir, err)
		}
		name = filepath.Join(flagRecvDir, name)
	}
	name = files.UniqueFilename(name)

	if err := os.WriteFile(name, result.Data, 0644); err != nil {
		return transfer.NewFileError("write", name, err)
	}

	ui.PrintSuccessf("Received %s (%s)", name, ui.FormatBytes(int64(len(result.Data))))
	if state.reporter != nil {
		fmt.Println()
		state.reporter.Summary("✅ Received")
	}
	return nil
}

// handleMessage feeds one channel message into the engine, creating the
// progress display when metadata arrives.
func (s *receiveState) handleMessage(data []byte, isText bool) {
	hadMeta := s.receiver.Metadata() != nil

	result, err := s.receiver.HandleMessage(data, isText)
	if err != nil {
		select {
		case s.failure <- err:
		default:
		}
		return
	}

	if !hadMeta {
		if meta := s.receiver.Metadata(); meta != nil {
			fmt.Printf("\r\033[K%s Receiving %s...\n\n", ui.IconReceive, meta.Name)
			s.reporter = transfer.NewReporter(meta.Name, meta.Size)
			s.reporter.Start()
			go s.reporter.RunLoop(s.redraw)
		}
	}

	if result != nil {
		select {
		case s.result <- result:
		default:
		}
	}
}

func init() {
	rootCmd.AddCommand(receiveCmd)

	receiveCmd.Flags().StringVarP(&flagRecvDomain, "domain", "d", "", "Relay domain")
	receiveCmd.Flags().StringVar(&flagRecvServer, "server", "", "Full relay websocket URL (overrides --domain)")
	receiveCmd.Flags().StringVar(&flagRecvSTUN, "stun", "", "Custom STUN server(s), comma separated")
	receiveCmd.Flags().StringVarP(&flagRecvDir, "dir", "o", "", "Output directory")
}
