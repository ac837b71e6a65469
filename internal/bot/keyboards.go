package bot

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

const (
	callbackMenu            = "menu"
	callbackModePrefix      = "mode_"
	callbackImageToggle     = "image_toggle"
	callbackLanguages       = "languages"
	callbackSourcePrefix    = "src_"
	callbackTargetPrefix    = "dst_"
	modeKeyboardRowSize     = 2
	languageKeyboardRowSize = 3
	selectedMark            = "✅ "
)

type callbackAction int

const (
	actionUnknown callbackAction = iota
	actionMenu
	actionMode
	actionImageToggle
	actionLanguages
	actionSource
	actionTarget
)

// parseCallback decodes button data. Unknown or malformed data yields
// actionUnknown.
func parseCallback(data string) (callbackAction, string) {
	data = strings.TrimSpace(data)

	switch data {
	case callbackMenu:
		return actionMenu, ""
	case callbackImageToggle:
		return actionImageToggle, ""
	case callbackLanguages:
		return actionLanguages, ""
	}

	if arg, ok := strings.CutPrefix(data, callbackModePrefix); ok {
		if mode, err := domain.ParseMode(arg); err == nil && mode != domain.ModeNone {
			return actionMode, arg
		}
		return actionUnknown, ""
	}

	if arg, ok := strings.CutPrefix(data, callbackSourcePrefix); ok && domain.IsLanguage(arg) {
		return actionSource, arg
	}

	if arg, ok := strings.CutPrefix(data, callbackTargetPrefix); ok && domain.IsLanguage(arg) {
		return actionTarget, arg
	}

	return actionUnknown, ""
}

func getReturnKeyboard() models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "⬅️ Return to menu", CallbackData: callbackMenu}},
		},
	}
}

func getMenuKeyboard(session domain.Session) models.InlineKeyboardMarkup {
	var keyboard [][]models.InlineKeyboardButton

	modes := domain.Modes()
	for i := 0; i < len(modes); i += modeKeyboardRowSize {
		var row []models.InlineKeyboardButton

		for _, mode := range modes[i:min(i+modeKeyboardRowSize, len(modes))] {
			text := mode.Title()
			if session.Mode == mode {
				text = selectedMark + text
			}

			row = append(row, models.InlineKeyboardButton{
				Text:         text,
				CallbackData: callbackModePrefix + string(mode),
			})
		}

		keyboard = append(keyboard, row)
	}

	imageText := "🖼 Upload image"
	if session.ImagePanelOpen {
		imageText = "✖️ Close image"
	}

	keyboard = append(keyboard,
		[]models.InlineKeyboardButton{{Text: imageText, CallbackData: callbackImageToggle}},
		[]models.InlineKeyboardButton{{Text: "🌐 Languages", CallbackData: callbackLanguages}},
	)

	return models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func getLanguagesKeyboard(session domain.Session) models.InlineKeyboardMarkup {
	var keyboard [][]models.InlineKeyboardButton

	keyboard = append(keyboard, languageRows("From ", callbackSourcePrefix, session.SourceLanguage)...)
	keyboard = append(keyboard, languageRows("To ", callbackTargetPrefix, session.TargetLanguage)...)
	keyboard = append(keyboard, getReturnKeyboard().InlineKeyboard...)

	return models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func languageRows(label string, prefix string, selected string) [][]models.InlineKeyboardButton {
	var rows [][]models.InlineKeyboardButton

	languages := domain.Languages()
	for i := 0; i < len(languages); i += languageKeyboardRowSize {
		var row []models.InlineKeyboardButton

		for _, lang := range languages[i:min(i+languageKeyboardRowSize, len(languages))] {
			text := label + lang
			if lang == selected {
				text = selectedMark + text
			}

			row = append(row, models.InlineKeyboardButton{Text: text, CallbackData: prefix + lang})
		}

		rows = append(rows, row)
	}

	return rows
}
