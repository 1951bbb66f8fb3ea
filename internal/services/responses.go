package services

// Response is the tagged union of everything the bot can send back.
// Exactly one concrete shape per message; the outbound adapter switches
// exhaustively over the three cases.
type Response interface {
	isResponse()
}

// TextResponse is a plain text reply.
type TextResponse struct {
	Text string
}

// Button is one reply button (WhatsApp caps interactive messages at 3).
type Button struct {
	ID    string
	Title string
}

// ButtonsResponse is an interactive reply with up to three buttons.
type ButtonsResponse struct {
	Text    string
	Buttons []Button
	Header  string
	Footer  string
}

// ListRow is one selectable row inside a list section.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// ListSection groups rows under a section title.
type ListSection struct {
	Title string
	Rows  []ListRow
}

// ListResponse is an interactive list menu.
type ListResponse struct {
	Text       string
	ButtonText string
	Sections   []ListSection
	Header     string
	Footer     string
}

func (*TextResponse) isResponse()    {}
func (*ButtonsResponse) isResponse() {}
func (*ListResponse) isResponse()    {}
