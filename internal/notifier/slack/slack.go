package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/metrics"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier. Without a token it degrades to the
// no-op mock so the engine runs without Slack configured.
func NewNotifier(token, channelID string, metrics metrics.Metrics) notifier.Notifier {
	if token == "" {
		log.Warn("Slack token not configured, notifications disabled")
		return notifier.NewMock()
	}
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendMatchStarted(match *badminton.Match, courtNumber int, dryRun bool) error {
	msg := s.formatMatchStarted(match, courtNumber)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendMatchResult(match *badminton.Match, courtNumber int, dryRun bool) error {
	msg := s.formatMatchResult(match, courtNumber)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendSessionSummary(sess *badminton.Session, players []badminton.Player, dryRun bool) error {
	msg := s.formatSessionSummary(sess, players)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// pairNames renders the two pairs of a match from the positional slots:
// 0/2 against 1/3.
func pairNames(match *badminton.Match) (string, string) {
	names := make(map[int]string, len(match.Players))
	for _, p := range match.Players {
		names[p.Position] = p.PlayerName
	}
	pair1 := strings.Join(nonEmpty(names[0], names[2]), " & ")
	pair2 := strings.Join(nonEmpty(names[1], names[3]), " & ")
	return pair1, pair2
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// formatMatchStarted creates the Slack message for a match starting using Block Kit.
func (s *Notifier) formatMatchStarted(match *badminton.Match, courtNumber int) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏸 Match on! 🏸", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("Court %d, %s", courtNumber, match.StartTime.Format("Monday 02 Jan, 15:04"))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	if pair1, pair2 := pairNames(match); pair1 != "" || pair2 != "" {
		matchupText := fmt.Sprintf("%s\nvs\n%s", pair1, pair2)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", matchupText, true, false), nil, nil))
	}

	if match.IsExtra {
		extra := slack.NewTextBlockObject("plain_text", "⏰ Extra match, past the scheduled end.", true, false)
		blocks = append(blocks, slack.NewContextBlock("", extra))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatMatchResult creates the Slack message for a finished match using Block Kit.
func (s *Notifier) formatMatchResult(match *badminton.Match, courtNumber int) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏸 Match finished! 🏸", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("Court %d, started %s", courtNumber, match.StartTime.Format("Monday 02 Jan, 15:04"))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, false, false), nil, nil))

	winners := make(map[string]bool, len(match.WinnerIDs))
	for _, id := range match.WinnerIDs {
		winners[id] = true
	}
	var winnerNames []string
	for _, p := range match.Players {
		if winners[p.PlayerID] && p.PlayerName != "" {
			winnerNames = append(winnerNames, p.PlayerName)
		}
	}
	sort.Strings(winnerNames)

	resultText := "Result: No score reported."
	if match.Score != nil && *match.Score != "" {
		resultText = fmt.Sprintf("Result: %s", *match.Score)
	}
	if len(winnerNames) > 0 {
		resultText = fmt.Sprintf("%s\n%s won! 🏆", resultText, strings.Join(winnerNames, " & "))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultText, true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatSessionSummary creates the end-of-session wrap-up message using Block Kit.
func (s *Notifier) formatSessionSummary(sess *badminton.Session, players []badminton.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🏸 %s wrapped up! 🏸", sess.Name), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Most matches first, then least waiting.
	sorted := make([]badminton.Player, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MatchesPlayed != sorted[j].MatchesPlayed {
			return sorted[i].MatchesPlayed > sorted[j].MatchesPlayed
		}
		return sorted[i].TotalWaitTime < sorted[j].TotalWaitTime
	})

	var lines []string
	for _, player := range sorted {
		lines = append(lines, fmt.Sprintf("• %s: %d matches, %d min waited", player.Name, player.MatchesPlayed, player.TotalWaitTime))
	}
	if len(lines) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}
