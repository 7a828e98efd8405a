// Package notify announces fetch milestones to a chat channel. Watch mode
// can run for hours; a message when the expected result set is finally
// complete beats staring at a terminal.
package notify

import (
	"fmt"
	"log"

	slackapi "github.com/slack-go/slack"
)

// Notifier delivers a one-line notification. Implementations are
// best-effort collaborators: callers treat failures as non-fatal.
type Notifier interface {
	Notify(text string) error
}

// slackClient abstracts the Slack API method we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts notifications to a single Slack channel.
type Slack struct {
	client  slackClient
	channel string
}

// NewSlack creates a Slack notifier from a bot token and channel ID.
func NewSlack(token, channel string) (*Slack, error) {
	if token == "" || channel == "" {
		return nil, fmt.Errorf("notify: slack token and channel are required")
	}
	return &Slack{client: slackapi.New(token), channel: channel}, nil
}

// Notify posts text to the configured channel.
func (s *Slack) Notify(text string) error {
	if _, _, err := s.client.PostMessage(s.channel, slackapi.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("notify: slack post: %w", err)
	}
	return nil
}

// Send delivers text through n if n is non-nil. Failures are logged, never
// returned: a dead notifier must not fail a completed sync.
func Send(n Notifier, text string) {
	if n == nil {
		return
	}
	if err := n.Notify(text); err != nil {
		log.Printf("%v", err)
	}
}
