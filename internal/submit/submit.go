// Package submit drives the browser-assisted submission loop: each pending
// query is copied to the clipboard, the operator pastes it into the Data
// Explorer, and confirming the final prompt marks the query done.
package submit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/esolhaug/aq/internal/queue"
	"github.com/pkg/browser"
)

// Test seams for the clipboard and browser side effects.
var (
	clipboardWrite = clipboard.WriteAll
	browserOpen    = browser.OpenURL
)

// ErrQuit reports that the operator asked to stop. It is a normal
// termination: everything already confirmed stays committed, the current
// query stays pending.
var ErrQuit = errors.New("quit requested")

// Session holds the state of one interactive submission run.
type Session struct {
	QueryDir     string
	LogFile      string
	ExplorerURL  string
	VOSPrefix    string // prefix prepended to the copied result name, e.g. "cool-lamps-fullsky/"
	PreviewLimit int
	StorageLimit int
	OpenBrowser  bool

	In  io.Reader
	Out io.Writer

	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// Run processes every pending query in order until the queue is exhausted
// or the operator quits. Quitting (token or interrupt) is not an error.
func (s *Session) Run(ctx context.Context) error {
	files, err := queue.Pending(s.QueryDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(s.Out, "No pending queries; nothing to do.")
		return nil
	}
	fmt.Fprintf(s.Out, "Processing %d pending queries. Type q (or Ctrl-C) at any prompt to stop.\n", len(files))

	// One reader goroutine for the whole session so prompts can race
	// terminal input against ctx cancellation. The done channel releases
	// the reader from its send once Run returns.
	s.lines = make(chan lineResult)
	done := make(chan struct{})
	defer close(done)
	go func() {
		r := bufio.NewReader(s.In)
		for {
			line, err := r.ReadString('\n')
			select {
			case s.lines <- lineResult{text: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for _, f := range files {
		err := s.one(ctx, f)
		if errors.Is(err, ErrQuit) {
			fmt.Fprintf(s.Out, "\nStopped. %s stays pending for the next run.\n", f.Name)
			return nil
		}
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(s.Out, "\nAll queries submitted and logged.")
	return nil
}

// one walks the operator through a single query. Only the final prompt
// commits anything; quitting at any step leaves the file pending.
func (s *Session) one(ctx context.Context, f queue.QueryFile) error {
	text, err := f.Read()
	if err != nil {
		return err
	}

	fmt.Fprintf(s.Out, "\n--- %s ---\n", f.Name)
	s.copy(text, "query")
	if s.OpenBrowser {
		if err := browserOpen(s.ExplorerURL); err != nil {
			log.Printf("submit: open browser: %v", err)
			fmt.Fprintf(s.Out, "Open %s manually.\n", s.ExplorerURL)
		}
	}
	fmt.Fprintln(s.Out, "Paste the query into the ADQL field (Ctrl+V / Cmd+V).")

	if err := s.prompt(ctx, fmt.Sprintf("Press Enter once pasted to copy the preview limit (%d): ", s.PreviewLimit)); err != nil {
		return err
	}
	s.copy(strconv.Itoa(s.PreviewLimit), "preview limit")

	if err := s.prompt(ctx, "Press Enter to copy the result name: "); err != nil {
		return err
	}
	fmt.Fprintln(s.Out, `Click "Virtual Storage" to show the "Result Name" field.`)
	s.copy(s.VOSPrefix+f.Name, "result name")

	if err := s.prompt(ctx, fmt.Sprintf("Press Enter to copy the storage limit (%d): ", s.StorageLimit)); err != nil {
		return err
	}
	s.copy(strconv.Itoa(s.StorageLimit), "storage limit")

	if err := s.prompt(ctx, "Press Enter after hitting Process to mark this query done: "); err != nil {
		return err
	}

	entry := queue.LogEntry{File: f.Name + queue.Ext, Action: "executed", Time: time.Now()}
	if err := queue.Complete(f, s.LogFile, entry); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Logged and marked done: %s\n", f.Name)
	return nil
}

// copy puts text on the clipboard. Clipboard failures are reported but
// never block progress; the value is always printed so the operator can
// copy it by hand.
func (s *Session) copy(text, what string) {
	if err := clipboardWrite(text); err != nil {
		log.Printf("submit: clipboard: %v", err)
		fmt.Fprintf(s.Out, "Clipboard unavailable; %s follows:\n%s\n", what, text)
		return
	}
	fmt.Fprintf(s.Out, "Copied %s to clipboard.\n", what)
}

// prompt blocks on one line of input. The quit token ("q" or "quit",
// case-insensitive) or a cancelled context returns ErrQuit; EOF on input is
// treated the same, since there is no operator left to confirm anything.
// Any other line, including an empty one, means continue.
func (s *Session) prompt(ctx context.Context, msg string) error {
	fmt.Fprint(s.Out, msg)
	select {
	case <-ctx.Done():
		fmt.Fprintln(s.Out)
		return ErrQuit
	case res := <-s.lines:
		if res.err != nil && res.text == "" {
			return ErrQuit
		}
		switch strings.ToLower(strings.TrimSpace(res.text)) {
		case "q", "quit":
			return ErrQuit
		}
		return nil
	}
}
