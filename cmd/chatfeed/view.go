package main

import (
	"app-chat/domain/chat"
	"app-chat/domain/event"
	"app-chat/projection"
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// terminalView prints the feed as lines. A terminal cannot insert above
// what is already printed, so a message rendered before the last line is
// flagged as earlier.
type terminalView struct {
	mu      sync.Mutex
	out     *bufio.Writer
	colours bool
	count   int
}

func newTerminalView(w io.Writer, colours bool) *terminalView {
	return &terminalView{out: bufio.NewWriter(w), colours: colours}
}

func (v *terminalView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.count = 0
	fmt.Fprintln(v.out, v.paint(color.New(color.FgGray), "──────── feed ────────"))
}

func (v *terminalView) Insert(index int, item projection.FeedItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	line := v.format(item)
	if index < v.count {
		line = v.paint(color.New(color.FgYellow), "(earlier) ") + line
	}
	v.count++
	fmt.Fprintln(v.out, line)
}

// ScrollToLatest flushes what was rendered since the last call.
func (v *terminalView) ScrollToLatest() {
	v.mu.Lock()
	defer v.mu.Unlock()
	_ = v.out.Flush()
}

// Status reports feed transitions to the user.
func (v *terminalView) Status(e event.Event) {
	switch payload := e.Payload.(type) {
	case event.FeedLive:
		v.println(v.paint(color.New(color.FgGreen), fmt.Sprintf("● live, %d messages", payload.Rendered)))
	case event.FeedDegraded:
		v.println(v.paint(color.New(color.FgRed), "● live updates unavailable: "+sanitize(payload.Err.Error())))
	}
}

func (v *terminalView) Notice(err error) {
	v.println(v.paint(color.New(color.FgRed), "✗ "+sanitize(err.Error())))
}

func (v *terminalView) println(line string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, line)
	_ = v.out.Flush()
}

func (v *terminalView) format(item projection.FeedItem) string {
	m := item.Message
	author := sanitize(m.AuthorName)
	if item.Own {
		author = v.paint(color.New(color.FgCyan, color.OpBold), author+" (you)")
	} else {
		author = v.paint(color.New(color.FgMagenta, color.OpBold), author)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s",
		v.paint(color.New(color.FgGray), m.CreatedAt.Local().Format(time.TimeOnly)),
		author, sanitize(m.Text))
	switch {
	case item.ImageURL != "":
		fmt.Fprintf(&b, " [image %s]", item.ImageURL)
	case m.HasAttachment():
		b.WriteString(" [image unavailable]")
	}
	return b.String()
}

func (v *terminalView) paint(style color.Style, s string) string {
	if !v.colours {
		return s
	}
	return style.Render(s)
}

// sanitize drops control characters so that stored text cannot drive the
// terminal.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func printHistory(w io.Writer, messages []chat.Message, session chat.Session) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Author", "Message", "Image"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, m := range messages {
		author := sanitize(m.AuthorName)
		if m.AuthorID == session.UserID {
			author += " (you)"
		}
		image := ""
		if m.HasAttachment() {
			image = string(*m.AttachmentID)
		}
		table.Append([]string{m.CreatedAt.Local().Format(time.DateTime), author, sanitize(m.Text), image})
	}
	table.Render()
}
