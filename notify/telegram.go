// Package notify announces recorded results to the club's telegram
// channel. Announcements are best-effort: a send failure is logged by
// the caller and never blocks or rolls back a result.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Announcer interface {
	AnnounceResult(tournamentName, winnerName, loserName string, setsWon, setsLost int, forfeit bool) error
	AnnounceCompletion(tournamentName, winnerName string) error
}

type telegramAnnouncer struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramAnnouncer(token string, chatID int64) (Announcer, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &telegramAnnouncer{bot: bot, chatID: chatID}, nil
}

func (a *telegramAnnouncer) send(text string) error {
	msg := tgbotapi.NewMessage(a.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := a.bot.Send(msg)
	return err
}

func (a *telegramAnnouncer) AnnounceResult(tournamentName, winnerName, loserName string, setsWon, setsLost int, forfeit bool) error {
	if forfeit {
		return a.send(fmt.Sprintf("🏓 <b>%s</b>: %s defeats %s by forfeit", tournamentName, winnerName, loserName))
	}
	return a.send(fmt.Sprintf("🏓 <b>%s</b>: %s defeats %s %d:%d", tournamentName, winnerName, loserName, setsWon, setsLost))
}

func (a *telegramAnnouncer) AnnounceCompletion(tournamentName, winnerName string) error {
	return a.send(fmt.Sprintf("🏆 <b>%s</b> is complete. Congratulations to %s!", tournamentName, winnerName))
}
