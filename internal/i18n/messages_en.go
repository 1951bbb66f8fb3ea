package i18n

var messagesEN = map[Key]string{
	MsgGreetingMorning:   "Good morning {name}! 👋",
	MsgGreetingAfternoon: "Good afternoon {name}! 👋",
	MsgGreetingEvening:   "Good evening {name}! 👋",
	MsgGreetingMenu:      "How can I help you today?",

	MsgButtonHelp:         "Help",
	MsgButtonFAQ:          "FAQ",
	MsgButtonContactAgent: "Talk to an agent",

	MsgIntroduction: "I'm your virtual support assistant. I can answer questions, search our FAQ, open support tickets and put you in touch with a human agent.",
	MsgCapabilities: "Here's what I can do:\n• Answer frequent questions\n• Create and track support tickets\n• Connect you with a human agent\n• Help in French and English",

	MsgHelpMenuText:   "Choose an option below:",
	MsgHelpMenuButton: "Options",
	MsgSectionSupport: "Support",
	MsgSectionInfo:    "Information",

	MsgRowCreateTicket:     "Open a ticket",
	MsgRowCreateTicketDesc: "Report a problem to our team",
	MsgRowCheckTicket:      "My tickets",
	MsgRowCheckTicketDesc:  "Check the status of your requests",
	MsgRowFAQ:              "Browse the FAQ",
	MsgRowFAQDesc:          "Answers to frequent questions",
	MsgRowContactAgent:     "Talk to an agent",
	MsgRowContactAgentDesc: "Get help from a human",

	MsgTicketCreated:    "✅ Your ticket has been created!\n\n🎫 Number: {id}\n📋 Title: {title}\n⚡ Priority: {priority}\n\nOur team will get back to you as soon as possible.",
	MsgTicketNeedInfo:   "I'd be happy to open a ticket for you. Could you describe your problem in a few words?",
	MsgTicketListHeader: "📋 Your last {count} tickets:",
	MsgNoTickets:        "You don't have any support tickets yet.",

	MsgFAQMenuText:   "Pick a topic:",
	MsgFAQMenuButton: "Topics",
	MsgFAQCategories: "FAQ",

	MsgCatBilling:   "Billing",
	MsgCatTechnical: "Technical",
	MsgCatAccount:   "Account",
	MsgCatGeneral:   "General",

	MsgHandoffInitiated: "👤 I'm transferring you to one of our agents. Someone will pick up the conversation shortly, thanks for your patience!",
	MsgGoodbye:          "Thank you for contacting us. Have a great day! 👋",
	MsgFallbackMenu:     "I'm not sure I understood. Here's what I can help with:",
	MsgErrorGeneric:     "😕 Sorry, something went wrong. Please try again in a moment.",

	MsgMediaImage:    "📷 Thanks for the image! If you need help, describe your request in a message.",
	MsgMediaAudio:    "🎵 Thanks for the voice note! I can only read text for now, could you type your request?",
	MsgMediaVideo:    "🎬 Thanks for the video! If you need help, describe your request in a message.",
	MsgMediaDocument: "📄 Document received! If you need help, describe your request in a message.",
	MsgLocationAck:   "📍 Location received: {name} {address}. How can I help you?",

	MsgStatusOpen:            "Open",
	MsgStatusInProgress:      "In progress",
	MsgStatusWaitingCustomer: "Waiting for you",
	MsgStatusResolved:        "Resolved",
	MsgStatusClosed:          "Closed",
}
