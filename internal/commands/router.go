// File: internal/commands/router.go
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/ledger"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/models"
	"github.com/crack-enjoyer/RevsTrackerBot/internal/state"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// DefaultInputTimeout bounds how long a bare /addamount waits for the
// follow-up amount message.
const DefaultInputTimeout = 2 * time.Minute

const helpText = `Commands:
/subscribe - receive transfer alerts
/unsubscribe - stop receiving alerts
/settings - show your current filters
/mode <exact|threshold> - choose the amount policy
/setthreshold <amount> - alert on amounts >= threshold
/addamount [amount] - add a fixed amount to the exact list
/editamount <old> <new> - replace a fixed amount
/delamount <amount> - remove a fixed amount
/block <address> - mute transfers involving an address
/unblock <address> - unmute an address
/help - this message`

// Router turns inbound subscriber messages into state mutations and
// corrective replies. Every handler returns the reply text; no command
// path is allowed to panic the gateway.
type Router struct {
	state  *state.Manager
	conv   *conversationTracker
	logger *logrus.Logger
}

// NewRouter creates a command router
func NewRouter(stateManager *state.Manager, inputTimeout time.Duration) *Router {
	if inputTimeout <= 0 {
		inputTimeout = DefaultInputTimeout
	}
	return &Router{
		state:  stateManager,
		conv:   newConversationTracker(inputTimeout),
		logger: utils.GetLogger(),
	}
}

// HandleMessage processes one inbound message and returns the reply
func (r *Router) HandleMessage(ctx context.Context, chat int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	// A pending conversation step consumes the next message whole.
	if kind, ok := r.conv.take(chat); ok && !strings.HasPrefix(text, "/") {
		switch kind {
		case awaitingAmountInput:
			return r.handleAddAmountValue(ctx, chat, text)
		}
	}

	fields := strings.Fields(text)
	command := strings.ToLower(fields[0])
	// Strip the bot-mention suffix Telegram adds in groups.
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}
	args := fields[1:]

	switch command {
	case "/start", "/subscribe":
		return r.handleSubscribe(ctx, chat)
	case "/stop", "/unsubscribe":
		return r.handleUnsubscribe(ctx, chat)
	case "/settings":
		return r.handleSettings(chat)
	case "/help":
		return helpText
	case "/mode":
		return r.handleMode(ctx, chat, args)
	case "/setthreshold":
		return r.handleSetThreshold(ctx, chat, args)
	case "/addamount":
		return r.handleAddAmount(ctx, chat, args)
	case "/editamount":
		return r.handleEditAmount(ctx, chat, args)
	case "/delamount":
		return r.handleDelAmount(ctx, chat, args)
	case "/block":
		return r.handleBlock(ctx, chat, args)
	case "/unblock":
		return r.handleUnblock(ctx, chat, args)
	default:
		return "Unknown command. Send /help for the list of commands."
	}
}

func (r *Router) handleSubscribe(ctx context.Context, chat int64) string {
	if !r.state.Subscribe(ctx, chat) {
		return "You are already subscribed."
	}
	return "Subscribed. No alerts will arrive until you configure a filter: " +
		"use /addamount or /setthreshold. Send /help for all commands."
}

func (r *Router) handleUnsubscribe(ctx context.Context, chat int64) string {
	r.conv.clear(chat)
	if !r.state.Unsubscribe(ctx, chat) {
		return "You are not subscribed."
	}
	return "Unsubscribed. Your filter settings have been deleted."
}

func (r *Router) handleSettings(chat int64) string {
	settings, ok := r.state.SettingsFor(chat)
	if !ok {
		return "You are not subscribed. Send /subscribe first."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s\n", settings.Mode)
	if settings.Mode == models.FilterModeThreshold {
		fmt.Fprintf(&b, "Threshold: %s SOL\n", utils.FormatAmount(settings.Threshold))
	}
	if len(settings.Amounts) == 0 {
		b.WriteString("Amounts: none (no alerts in exact mode)\n")
	} else {
		b.WriteString("Amounts:")
		for _, a := range settings.Amounts {
			b.WriteString(" " + utils.FormatAmount(a))
		}
		b.WriteString(" SOL\n")
	}
	if len(settings.Blacklist) == 0 {
		b.WriteString("Blacklist: empty")
	} else {
		b.WriteString("Blacklist:\n")
		for _, a := range settings.Blacklist {
			b.WriteString("  " + a + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) handleMode(ctx context.Context, chat int64, args []string) string {
	if len(args) != 1 {
		return "Usage: /mode <exact|threshold>"
	}
	var mode models.FilterMode
	switch strings.ToLower(args[0]) {
	case "exact":
		mode = models.FilterModeExact
	case "threshold":
		mode = models.FilterModeThreshold
	default:
		return "Usage: /mode <exact|threshold>"
	}
	if err := r.state.SetMode(ctx, chat, mode); err != nil {
		return "You are not subscribed. Send /subscribe first."
	}
	return fmt.Sprintf("Filter mode set to %s.", mode)
}

func (r *Router) handleSetThreshold(ctx context.Context, chat int64, args []string) string {
	if len(args) != 1 {
		return "Usage: /setthreshold <amount>"
	}
	amount, ok := parseAmount(args[0])
	if !ok {
		return "That does not look like a positive amount. Usage: /setthreshold <amount>"
	}
	if err := r.state.SetThreshold(ctx, chat, amount); err != nil {
		return "You are not subscribed. Send /subscribe first."
	}
	return fmt.Sprintf("Threshold set: alerts for transfers of %s SOL or more.", utils.FormatAmount(amount))
}

func (r *Router) handleAddAmount(ctx context.Context, chat int64, args []string) string {
	if !r.state.IsSubscribed(chat) {
		return "You are not subscribed. Send /subscribe first."
	}
	if len(args) == 0 {
		r.conv.expect(chat, awaitingAmountInput)
		return "Send the amount to watch for (in SOL)."
	}
	if len(args) != 1 {
		return "Usage: /addamount [amount]"
	}
	return r.handleAddAmountValue(ctx, chat, args[0])
}

func (r *Router) handleAddAmountValue(ctx context.Context, chat int64, raw string) string {
	amount, ok := parseAmount(raw)
	if !ok {
		return "That does not look like a positive amount. Try /addamount again."
	}
	added, err := r.state.AddAmount(ctx, chat, amount)
	if err != nil {
		return "You are not subscribed. Send /subscribe first."
	}
	if !added {
		return fmt.Sprintf("%s SOL is already on your list.", utils.FormatAmount(amount))
	}
	return fmt.Sprintf("Added %s SOL to your exact-amount list.", utils.FormatAmount(amount))
}

func (r *Router) handleEditAmount(ctx context.Context, chat int64, args []string) string {
	if len(args) != 2 {
		return "Usage: /editamount <old> <new>"
	}
	oldAmount, ok1 := parseAmount(args[0])
	newAmount, ok2 := parseAmount(args[1])
	if !ok1 || !ok2 {
		return "Amounts must be positive numbers. Usage: /editamount <old> <new>"
	}
	changed, err := r.state.EditAmount(ctx, chat, oldAmount, newAmount)
	if err != nil {
		return "You are not subscribed. Send /subscribe first."
	}
	if !changed {
		return fmt.Sprintf("%s SOL is not on your list, or %s is already there. Check /settings.",
			utils.FormatAmount(oldAmount), utils.FormatAmount(newAmount))
	}
	return fmt.Sprintf("Replaced %s SOL with %s SOL.", utils.FormatAmount(oldAmount), utils.FormatAmount(newAmount))
}

func (r *Router) handleDelAmount(ctx context.Context, chat int64, args []string) string {
	if len(args) != 1 {
		return "Usage: /delamount <amount>"
	}
	amount, ok := parseAmount(args[0])
	if !ok {
		return "That does not look like a positive amount. Usage: /delamount <amount>"
	}
	removed, err := r.state.DeleteAmount(ctx, chat, amount)
	if err != nil {
		return "You are not subscribed. Send /subscribe first."
	}
	if !removed {
		return fmt.Sprintf("%s SOL is not on your list. Check /settings.", utils.FormatAmount(amount))
	}
	return fmt.Sprintf("Removed %s SOL from your list.", utils.FormatAmount(amount))
}

func (r *Router) handleBlock(ctx context.Context, chat int64, args []string) string {
	if len(args) != 1 {
		return "Usage: /block <address>"
	}
	address := args[0]
	if err := ledger.ValidateAddress(address); err != nil {
		return "That is not a valid Solana address."
	}
	added, err := r.state.Block(ctx, chat, address)
	if err != nil {
		return "You are not subscribed. Send /subscribe first."
	}
	if !added {
		return "That address is already blacklisted."
	}
	return "Address blacklisted. Transfers involving it will be muted."
}

func (r *Router) handleUnblock(ctx context.Context, chat int64, args []string) string {
	if len(args) != 1 {
		return "Usage: /unblock <address>"
	}
	removed, err := r.state.Unblock(ctx, chat, args[0])
	if err != nil {
		return "You are not subscribed. Send /subscribe first."
	}
	if !removed {
		return "That address is not on your blacklist."
	}
	return "Address removed from your blacklist."
}

// parseAmount parses a positive decimal SOL amount
func parseAmount(raw string) (float64, bool) {
	raw = strings.ReplaceAll(raw, ",", ".")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
