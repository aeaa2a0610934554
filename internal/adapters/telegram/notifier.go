package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"marketpulse/internal/domain/signal"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ signal.Notifier = (*SignalNotifier)(nil)

const maxQuoteRunes = 280

// htmlSender sends one formatted message
type htmlSender interface {
	SendHTML(ctx context.Context, chatID int64, text string) error
}

// SignalNotifier broadcasts actionable records to a fixed set of chats
type SignalNotifier struct {
	bot     htmlSender
	chatIDs []int64
	now     func() time.Time
}

// NewSignalNotifier creates a notifier sending to chatIDs
func NewSignalNotifier(bot htmlSender, chatIDs []int64) *SignalNotifier {
	return &SignalNotifier{bot: bot, chatIDs: chatIDs, now: time.Now}
}

// NotifySignal sends rec to every chat. Records without an action are ignored.
func (n *SignalNotifier) NotifySignal(ctx context.Context, ticker string, rec signal.FusedRecord) error {
	if !rec.Action.Actionable() {
		return nil
	}

	text := FormatSignal(ticker, rec, n.now())

	var errs errors.MultiError
	for _, chatID := range n.chatIDs {
		if err := n.bot.SendHTML(ctx, chatID, text); err != nil {
			errs.Add(errors.Wrapf(err, "notify chat %d", chatID))
		}
	}
	return errs.ToError()
}

// FormatSignal renders rec as a Telegram HTML message
func FormatSignal(ticker string, rec signal.FusedRecord, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s <b>%s</b>: %s\n", actionEmoji(rec.Action), html.EscapeString(ticker), html.EscapeString(string(rec.Action)))
	fmt.Fprintf(&b, "📅 %s (%s)\n", rec.Timestamp.Format("Mon Jan 2 2006"), humanize.RelTime(rec.Timestamp, now, "ago", "from now"))
	fmt.Fprintf(&b, "💵 Close: $%s\n", humanize.CommafWithDigits(rec.Price, 2))
	fmt.Fprintf(&b, "🌡 Fear/Greed: %s (corr %+.2f)\n", humanize.FormatFloat("#.#", rec.FearGreedScore), rec.Correlation)
	fmt.Fprintf(&b, "💬 Sentiment: %+.2f%s\n", rec.Sentiment, spikeLabel(rec))

	if rec.Title != "" {
		title := html.EscapeString(rec.Title)
		if rec.ArticleURL != "" {
			fmt.Fprintf(&b, "\n<a href=\"%s\">%s</a>\n", html.EscapeString(rec.ArticleURL), title)
		} else {
			fmt.Fprintf(&b, "\n%s\n", title)
		}
	}
	if rec.TopComment != "" {
		fmt.Fprintf(&b, "<i>“%s”</i>\n", html.EscapeString(truncate(rec.TopComment, maxQuoteRunes)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func actionEmoji(a signal.Action) string {
	switch a {
	case signal.ActionMomentumTrade:
		return "🚀"
	case signal.ActionPotentialExit:
		return "⚠️"
	case signal.ActionMixedSignal:
		return "🔀"
	default:
		return "•"
	}
}

func spikeLabel(rec signal.FusedRecord) string {
	switch {
	case rec.PositiveSpike:
		return " ▲ spike"
	case rec.NegativeSpike:
		return " ▼ spike"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
