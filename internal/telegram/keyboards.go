package telegram

// Callback payloads mirror the commands they re-invoke.
const (
	CallbackStart = "/start"
	CallbackJoin  = "/join"
	CallbackKudo  = "/kudo"
)

func singleButton(text, data string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: text, CallbackData: data}},
		},
	}
}

func JoinKeyboard() *InlineKeyboardMarkup {
	return singleButton("Join", CallbackJoin)
}

func StartKeyboard() *InlineKeyboardMarkup {
	return singleButton("Start", CallbackStart)
}

func KudoKeyboard() *InlineKeyboardMarkup {
	return singleButton("💌 Give kudos", CallbackKudo)
}
