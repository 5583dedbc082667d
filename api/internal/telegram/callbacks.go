package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const callbackMore = "topics_more"

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	switch cb.Data {
	case callbackMore:
		r.onMore(cid, cb.Message.MessageID)
	}
}

// onMore повторяет последний запрос чата, исключая уже показанные темы.
func (r *Router) onMore(chatID int64, msgID int) {
	s, ok := r.state.last(chatID)
	if !ok {
		r.send(chatID, "Предыдущий запрос не найден. Используйте /topics.")
		return
	}
	// убрать клавиатуру со старого сообщения
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{})
	_, _ = r.Bot.Send(edit)

	r.generate(chatID, prependExisting(s.Req, s.Shown))
}

func makeMoreKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Ещё темы", callbackMore)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}
