package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// SessionInfo is the shareable session box shown to the sender.
type SessionInfo struct {
	SessionID string
	JoinLink  string
}

func (s *SessionInfo) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Success).
		Padding(1, 2)

	content := fmt.Sprintf("%s Session created!\n\n%s Session ID:  %s\n%s Join link:   %s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(s.SessionID),
		IconLink, MutedStyle.Render(s.JoinLink),
	)

	return boxStyle.Render(content)
}

// RenderSessionInfo prints the session box to stdout.
func RenderSessionInfo(sessionID, joinLink string) {
	info := &SessionInfo{SessionID: sessionID, JoinLink: joinLink}
	fmt.Println(info.View())
}

// TransferSummary is the terminal stats table shown after a transfer.
type TransferSummary struct {
	Status   string
	FileName string
	Size     string
	Duration string
	Speed    string
}

// RenderTransferSummary prints the summary as a go-pretty table.
func RenderTransferSummary(summary TransferSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter

	t.SetTitle("Transfer Summary")
	t.AppendRows([]table.Row{
		{"Status", summary.Status},
		{"File", summary.FileName},
		{"Size", summary.Size},
		{"Duration", summary.Duration},
		{"Avg Speed", summary.Speed},
	})

	t.Render()
}
