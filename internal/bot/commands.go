package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"carspa/internal/metrics"
	"carspa/internal/models"
	"carspa/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	defaultInquiryDays = 7
	maxInquiryDays     = 90
	maxInquiryLines    = 20
	maxMessagePreview  = 200
)

const helpText = `Commands:
/inquiries [days] - contact messages of the last days (default 7)
/export [from] [to] - Excel export, dates as YYYY-MM-DD (default last 30 days)
/prices - current price table
/help - this list`

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	l := zerolog.Ctx(ctx)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	l.Debug().
		Int64("user_id", userID).
		Str("username", msg.From.UserName).
		Str("text", msg.Text).
		Msg("Handling message")

	if !b.isManager(userID) {
		metrics.IncBotCommand("guest", "denied")
		b.sendMessage(chatID, b.guestText())
		return
	}

	if !msg.IsCommand() {
		b.sendMessage(chatID, helpText)
		return
	}

	command := msg.Command()
	var err error
	switch command {
	case "start", "help":
		b.sendMessage(chatID, helpText)
	case "inquiries":
		err = b.handleInquiries(ctx, chatID, msg.CommandArguments())
	case "export":
		err = b.handleExport(ctx, chatID, msg.CommandArguments())
	case "prices":
		b.sendMessage(chatID, formatPrices(pricing.Table()))
	default:
		command = "unknown"
		b.sendMessage(chatID, "Unknown command. /help lists what I can do.")
	}

	result := "ok"
	if err != nil {
		result = "error"
		l.Error().Err(err).Str("command", command).Int64("user_id", userID).Msg("Bot command failed")
	}
	metrics.IncBotCommand(command, result)
}

func (b *Bot) today() models.Date {
	return models.DateOf(b.now().In(b.loc))
}

func (b *Bot) handleInquiries(ctx context.Context, chatID int64, args string) error {
	days := defaultInquiryDays
	if raw := strings.TrimSpace(args); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxInquiryDays {
			b.sendMessage(chatID, fmt.Sprintf("⚠️ Days must be a number from 1 to %d.", maxInquiryDays))
			return nil
		}
		days = n
	}

	since := b.today().AddDays(-(days - 1))
	messages, err := b.contacts.List(ctx, since.In(b.loc), time.Time{})
	if err != nil {
		b.sendMessage(chatID, "❌ Could not load inquiries, try again later.")
		return err
	}

	b.sendMessage(chatID, formatInquiries(messages, since, b.loc))
	return nil
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, args string) error {
	to := b.today()
	from := to.AddDays(-models.DefaultExportRangeDays)

	fields := strings.Fields(args)
	if len(fields) > 2 {
		b.sendMessage(chatID, "⚠️ Usage: /export [from] [to]")
		return nil
	}
	if len(fields) >= 1 {
		d, err := models.ParseDate(fields[0])
		if err != nil {
			b.sendMessage(chatID, "⚠️ Dates must look like 2026-10-01.")
			return nil
		}
		from = d
	}
	if len(fields) == 2 {
		d, err := models.ParseDate(fields[1])
		if err != nil {
			b.sendMessage(chatID, "⚠️ Dates must look like 2026-10-01.")
			return nil
		}
		to = d
	}
	if to.Before(from) {
		b.sendMessage(chatID, "⚠️ The end date is before the start date.")
		return nil
	}

	b.sendMessage(chatID, "⏳ Building the export...")
	path, err := b.exporter.Export(ctx, from, to)
	if err != nil {
		b.sendMessage(chatID, "❌ Export failed, try again later.")
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("📊 Export %s - %s", from, to)
	if _, err := b.tgService.Send(doc); err != nil {
		b.sendMessage(chatID, "❌ Could not send the file.")
		return fmt.Errorf("send export: %w", err)
	}
	return nil
}

func (b *Bot) guestText() string {
	if b.catalog == nil {
		return "This bot is for staff only."
	}
	biz := b.catalog.Business
	return fmt.Sprintf("This bot is for %s staff only. To book a visit call %s or write to %s.", biz.Name, biz.Phone, biz.Email)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Error sending message")
	}
}

func formatInquiries(messages []*models.ContactMessage, since models.Date, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📬 Inquiries since %s: %d\n", since, len(messages))
	if len(messages) == 0 {
		return sb.String()
	}

	shown := messages
	if len(shown) > maxInquiryLines {
		shown = shown[len(shown)-maxInquiryLines:]
		fmt.Fprintf(&sb, "(showing the last %d)\n", maxInquiryLines)
	}
	for _, m := range shown {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "#%d %s %s <%s>", m.ID, m.CreatedAt.In(loc).Format("2006-01-02 15:04"), m.Name, m.Email)
		if m.Phone != "" {
			fmt.Fprintf(&sb, " %s", m.Phone)
		}
		sb.WriteString("\n")
		sb.WriteString(preview(m.Message))
		sb.WriteString("\n")
	}
	return sb.String()
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) <= maxMessagePreview {
		return text
	}
	return string(r[:maxMessagePreview]) + "..."
}

func formatPrices(table pricing.TableView) string {
	var sb strings.Builder
	sb.WriteString("💰 Base prices\n")
	for _, row := range table.Base {
		parts := make([]string, 0, len(table.Tiers))
		for _, tier := range table.Tiers {
			parts = append(parts, fmt.Sprintf("%s $%d", tier, row.Prices[tier]))
		}
		fmt.Fprintf(&sb, "%s: %s\n", row.Vehicle, strings.Join(parts, ", "))
	}

	sb.WriteString("\n➕ Add-ons\n")
	for _, row := range table.AddOns {
		parts := make([]string, 0, len(table.Vehicles))
		for _, v := range table.Vehicles {
			parts = append(parts, fmt.Sprintf("%s $%d", v, row.Prices[v]))
		}
		fmt.Fprintf(&sb, "%s: %s\n", row.Name, strings.Join(parts, ", "))
	}
	return sb.String()
}
