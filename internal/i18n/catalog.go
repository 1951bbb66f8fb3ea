// Package i18n holds the enum-keyed message catalogs for every
// supported language. Catalog completeness is validated once at
// startup; at lookup time a missing key falls back to the default
// language, then to the raw key.
package i18n

import (
	"fmt"
	"strings"
)

// Key identifies one user-facing message.
type Key string

const (
	MsgGreetingMorning   Key = "greeting_morning"
	MsgGreetingAfternoon Key = "greeting_afternoon"
	MsgGreetingEvening   Key = "greeting_evening"
	MsgGreetingMenu      Key = "greeting_menu"

	MsgButtonHelp         Key = "button_help"
	MsgButtonFAQ          Key = "button_faq"
	MsgButtonContactAgent Key = "button_contact_agent"

	MsgIntroduction Key = "introduction"
	MsgCapabilities Key = "capabilities"

	MsgHelpMenuText   Key = "help_menu_text"
	MsgHelpMenuButton Key = "help_menu_button"
	MsgSectionSupport Key = "section_support"
	MsgSectionInfo    Key = "section_info"

	MsgRowCreateTicket     Key = "row_create_ticket"
	MsgRowCreateTicketDesc Key = "row_create_ticket_desc"
	MsgRowCheckTicket      Key = "row_check_ticket"
	MsgRowCheckTicketDesc  Key = "row_check_ticket_desc"
	MsgRowFAQ              Key = "row_faq"
	MsgRowFAQDesc          Key = "row_faq_desc"
	MsgRowContactAgent     Key = "row_contact_agent"
	MsgRowContactAgentDesc Key = "row_contact_agent_desc"

	MsgTicketCreated    Key = "ticket_created"
	MsgTicketNeedInfo   Key = "ticket_need_info"
	MsgTicketListHeader Key = "ticket_list_header"
	MsgNoTickets        Key = "no_tickets"

	MsgFAQMenuText   Key = "faq_menu_text"
	MsgFAQMenuButton Key = "faq_menu_button"
	MsgFAQCategories Key = "faq_categories"

	MsgCatBilling   Key = "category_billing"
	MsgCatTechnical Key = "category_technical"
	MsgCatAccount   Key = "category_account"
	MsgCatGeneral   Key = "category_general"

	MsgHandoffInitiated Key = "handoff_initiated"
	MsgGoodbye          Key = "goodbye"
	MsgFallbackMenu     Key = "fallback_menu"
	MsgErrorGeneric     Key = "error_generic"

	MsgMediaImage    Key = "media_image"
	MsgMediaAudio    Key = "media_audio"
	MsgMediaVideo    Key = "media_video"
	MsgMediaDocument Key = "media_document"
	MsgLocationAck   Key = "location_ack"

	MsgStatusOpen            Key = "status_open"
	MsgStatusInProgress      Key = "status_in_progress"
	MsgStatusWaitingCustomer Key = "status_waiting_customer"
	MsgStatusResolved        Key = "status_resolved"
	MsgStatusClosed          Key = "status_closed"
)

var allKeys = []Key{
	MsgGreetingMorning, MsgGreetingAfternoon, MsgGreetingEvening, MsgGreetingMenu,
	MsgButtonHelp, MsgButtonFAQ, MsgButtonContactAgent,
	MsgIntroduction, MsgCapabilities,
	MsgHelpMenuText, MsgHelpMenuButton, MsgSectionSupport, MsgSectionInfo,
	MsgRowCreateTicket, MsgRowCreateTicketDesc,
	MsgRowCheckTicket, MsgRowCheckTicketDesc,
	MsgRowFAQ, MsgRowFAQDesc,
	MsgRowContactAgent, MsgRowContactAgentDesc,
	MsgTicketCreated, MsgTicketNeedInfo, MsgTicketListHeader, MsgNoTickets,
	MsgFAQMenuText, MsgFAQMenuButton, MsgFAQCategories,
	MsgCatBilling, MsgCatTechnical, MsgCatAccount, MsgCatGeneral,
	MsgHandoffInitiated, MsgGoodbye, MsgFallbackMenu, MsgErrorGeneric,
	MsgMediaImage, MsgMediaAudio, MsgMediaVideo, MsgMediaDocument, MsgLocationAck,
	MsgStatusOpen, MsgStatusInProgress, MsgStatusWaitingCustomer,
	MsgStatusResolved, MsgStatusClosed,
}

var catalogs = map[string]map[Key]string{
	"en": messagesEN,
	"fr": messagesFR,
}

// Catalog resolves message keys to localized strings.
type Catalog struct {
	defaultLang string
}

// NewCatalog validates that every supported language has a complete
// catalog and returns a resolver defaulting to defaultLang.
func NewCatalog(defaultLang string, supported []string) (*Catalog, error) {
	if _, ok := catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("no catalog for default language %q", defaultLang)
	}

	for _, lang := range supported {
		msgs, ok := catalogs[lang]
		if !ok {
			return nil, fmt.Errorf("no catalog for supported language %q", lang)
		}
		for _, key := range allKeys {
			if _, ok := msgs[key]; !ok {
				return nil, fmt.Errorf("catalog %q is missing key %q", lang, key)
			}
		}
	}

	return &Catalog{defaultLang: defaultLang}, nil
}

// T returns the message for key in lang with {param} placeholders
// substituted. Missing languages or keys fall back to the default
// language, then to the raw key.
func (c *Catalog) T(lang string, key Key, params map[string]string) string {
	msgs, ok := catalogs[lang]
	if !ok {
		msgs = catalogs[c.defaultLang]
	}

	text, ok := msgs[key]
	if !ok {
		text, ok = catalogs[c.defaultLang][key]
		if !ok {
			return string(key)
		}
	}

	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}
