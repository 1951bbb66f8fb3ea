package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/config"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/errs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/i18n"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/nlp"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
)

// Control ids carried by interactive buttons and list rows. Any id
// outside this set re-enters the text pipeline with the row title.
const (
	ControlHelp         = "help"
	ControlFAQ          = "faq"
	ControlContactAgent = "contact_agent"
	ControlGreeting     = "greeting"
	ControlCreateTicket = "create_ticket"
	ControlCheckTicket  = "check_ticket"
)

// InboundMessage is the parsed webhook record handed in by the
// transport layer, which has already verified authenticity.
type InboundMessage struct {
	WhatsAppID       string
	From             string
	Timestamp        time.Time
	Type             models.MessageType
	Text             string
	InteractiveID    string
	InteractiveTitle string
	MediaURL         string
	MediaContentType string
	LocationName     string
	LocationAddress  string
	Latitude         float64
	Longitude        float64
	ContactName      string
}

// ConversationService is the per-message pipeline: it resolves the
// user, conversation and session, routes the message to a handler and
// dispatches the reply.
type ConversationService struct {
	store     storage.Store
	sessions  *cache.SessionStore
	analyzer  *nlp.Analyzer
	detector  *nlp.Detector
	knowledge *KnowledgeService
	tickets   *TicketService
	formatter *Formatter
	catalog   *i18n.Catalog
	sender    Sender
	cfg       *config.Config
}

func NewConversationService(
	store storage.Store,
	sessions *cache.SessionStore,
	analyzer *nlp.Analyzer,
	detector *nlp.Detector,
	knowledge *KnowledgeService,
	tickets *TicketService,
	formatter *Formatter,
	catalog *i18n.Catalog,
	sender Sender,
	cfg *config.Config,
) *ConversationService {
	return &ConversationService{
		store:     store,
		sessions:  sessions,
		analyzer:  analyzer,
		detector:  detector,
		knowledge: knowledge,
		tickets:   tickets,
		formatter: formatter,
		catalog:   catalog,
		sender:    sender,
		cfg:       cfg,
	}
}

// ProcessIncomingMessage runs the whole pipeline for one inbound
// event. It is the single catch boundary: every failure is logged and
// converted to a best-effort generic error message to the sender, and
// never propagated to the webhook layer. Duplicate webhook deliveries
// are NOT deduplicated; the same provider message id processed twice
// produces two Message rows and two responses.
func (s *ConversationService) ProcessIncomingMessage(ctx context.Context, in *InboundMessage) {
	if err := s.process(ctx, in); err != nil {
		log.Printf("❌ Failed to process message %s from %s: %v", in.WhatsAppID, in.From, err)
		s.sendErrorMessage(ctx, in.From)
	}
}

func (s *ConversationService) process(ctx context.Context, in *InboundMessage) error {
	user, err := s.resolveUser(in)
	if err != nil {
		return err
	}

	conv, err := s.resolveConversation(user)
	if err != nil {
		return err
	}

	msg, err := s.recordInbound(conv, in)
	if err != nil {
		return err
	}

	session := s.loadSession(user, conv)

	var response Response
	switch in.Type {
	case models.MessageTypeText:
		response, err = s.handleText(ctx, user, conv, session, in.Text)
	case models.MessageTypeInteractive:
		response, err = s.handleInteractive(ctx, user, conv, session, in)
	case models.MessageTypeImage, models.MessageTypeAudio, models.MessageTypeVideo, models.MessageTypeDocument:
		response, err = s.handleMedia(ctx, user, conv, session, in)
	case models.MessageTypeLocation:
		response = s.handleLocation(session, in)
	default:
		response = s.fallbackMenu(session)
	}
	if err != nil {
		return err
	}

	if response != nil {
		if err := s.sendResponse(ctx, user, conv, session, response); err != nil {
			return err
		}
	}

	msg.Processed = true
	if err := s.store.UpdateMessage(msg); err != nil {
		return err
	}

	session.LastActivity = time.Now()
	s.sessions.Save(session)
	return nil
}

// resolution steps

func (s *ConversationService) resolveUser(in *InboundMessage) (*models.User, error) {
	user, err := s.store.GetUserByPhone(in.From)
	if errs.IsNotFound(err) {
		user = &models.User{
			PhoneNumber: in.From,
			Name:        in.ContactName,
			Language:    s.cfg.DefaultLanguage,
			Status:      models.UserStatusActive,
		}
		if err := s.store.CreateUser(user); err != nil {
			// Lost a race with a concurrent delivery from the same
			// number; the row exists now, use it.
			if errs.IsConflict(err) {
				return s.store.GetUserByPhone(in.From)
			}
			return nil, err
		}
		log.Printf("👤 New user %s (%s)", user.UserID, user.PhoneNumber)
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	if in.ContactName != "" && in.ContactName != user.Name {
		user.Name = in.ContactName
		if err := s.store.UpdateUser(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// resolveConversation returns the user's ACTIVE conversation, ending a
// stale one first so that at most one is ever ACTIVE.
func (s *ConversationService) resolveConversation(user *models.User) (*models.Conversation, error) {
	conv, err := s.store.GetActiveConversation(user.UserID)
	if err == nil {
		if time.Since(conv.StartedAt) <= s.cfg.MaxConversationDuration() {
			return conv, nil
		}
		now := time.Now()
		conv.Status = models.ConversationStatusEnded
		conv.EndedAt = &now
		if err := s.store.UpdateConversation(conv); err != nil {
			return nil, err
		}
		log.Printf("⏱ Conversation %s expired for user %s", conv.ConversationID, user.UserID)
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	conv = &models.Conversation{
		UserID:    user.UserID,
		Status:    models.ConversationStatusActive,
		StartedAt: time.Now(),
	}
	if err := s.store.CreateConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) recordInbound(conv *models.Conversation, in *InboundMessage) (*models.Message, error) {
	content, _ := json.Marshal(map[string]interface{}{
		"text":             in.Text,
		"interactiveId":    in.InteractiveID,
		"interactiveTitle": in.InteractiveTitle,
		"mediaUrl":         in.MediaURL,
		"mediaContentType": in.MediaContentType,
		"locationName":     in.LocationName,
		"locationAddress":  in.LocationAddress,
	})

	msg := &models.Message{
		ConversationID: conv.ConversationID,
		WhatsAppID:     in.WhatsAppID,
		Type:           in.Type,
		Direction:      models.DirectionIncoming,
		Content:        string(content),
		Timestamp:      in.Timestamp,
	}
	if err := s.store.CreateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ConversationService) loadSession(user *models.User, conv *models.Conversation) *cache.Session {
	session, ok := s.sessions.Get(user.PhoneNumber)
	if !ok {
		session = &cache.Session{
			PhoneNumber: user.PhoneNumber,
			Language:    user.Language,
			Context:     make(map[string]interface{}),
		}
	}
	session.ConversationID = conv.ConversationID
	if session.Language == "" {
		session.Language = user.Language
	}
	return session
}

// text pipeline

func (s *ConversationService) handleText(ctx context.Context, user *models.User, conv *models.Conversation, session *cache.Session, text string) (Response, error) {
	if strings.TrimSpace(text) == "" {
		return s.fallbackMenu(session), nil
	}

	if detected := s.detector.Detect(ctx, text); detected != "" && s.cfg.IsSupported(detected) && detected != user.Language {
		user.Language = detected
		if err := s.store.UpdateUser(user); err != nil {
			return nil, err
		}
		session.Language = detected
		log.Printf("🌐 Switched user %s to language %s", user.UserID, detected)
	}

	lower := strings.ToLower(text)
	tokens := tokenize(lower)
	for _, keyword := range s.cfg.HandoffKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && matchesAny(lower, tokens, []string{keyword}) {
			return s.contactAgent(session, "keyword"), nil
		}
	}

	if local := nlp.AnalyzeTicketIntent(text, session.Language); local != nil {
		return s.dispatchIntent(ctx, user, conv, session, local.Intent, text)
	}

	result := s.analyzer.AnalyzeIntent(ctx, text, session.Language)
	if result.Confidence >= s.cfg.IntentConfidenceThreshold {
		return s.dispatchIntent(ctx, user, conv, session, result.Intent, text)
	}

	// Low confidence: knowledge base first, one free-text attempt as a
	// last resort, then the menu.
	match, err := s.knowledge.Search(ctx, text, session.Language, 3)
	if err != nil {
		return nil, err
	}
	if match != nil && match.Confidence > s.cfg.KBConfidenceThreshold {
		s.knowledge.RecordUsage(match.ID)
		return &TextResponse{Text: match.Answer}, nil
	}

	if answer := s.freeTextAnswer(ctx, text, session.Language); answer != "" {
		return &TextResponse{Text: answer}, nil
	}
	return s.fallbackMenu(session), nil
}

func (s *ConversationService) dispatchIntent(ctx context.Context, user *models.User, conv *models.Conversation, session *cache.Session, intent, text string) (Response, error) {
	switch intent {
	case "greeting":
		return s.greet(user, session), nil
	case "help":
		return s.help(ctx, session, text), nil
	case "create_ticket":
		return s.createTicket(user, session, text)
	case "check_ticket_status":
		return s.listTickets(user, session)
	case "faq":
		return s.faq(ctx, session, text)
	case "contact_agent":
		return s.contactAgent(session, "intent"), nil
	case "goodbye":
		return s.endConversation(conv, session)
	case "product_inquiry":
		return s.productInquiry(ctx, session, text), nil
	default:
		// technical_support, complaint, and everything else without a
		// dedicated handler gets one free-text attempt.
		if answer := s.freeTextAnswer(ctx, text, session.Language); answer != "" {
			return &TextResponse{Text: answer}, nil
		}
		return s.fallbackMenu(session), nil
	}
}

// intent handlers

func (s *ConversationService) greet(user *models.User, session *cache.Session) Response {
	var key i18n.Key
	switch hour := time.Now().Hour(); {
	case hour < 12:
		key = i18n.MsgGreetingMorning
	case hour < 18:
		key = i18n.MsgGreetingAfternoon
	default:
		key = i18n.MsgGreetingEvening
	}

	greeting := s.catalog.T(session.Language, key, map[string]string{"name": user.Name})
	greeting = strings.Join(strings.Fields(greeting), " ")

	return &ButtonsResponse{
		Text:    greeting + "\n" + s.catalog.T(session.Language, i18n.MsgGreetingMenu, nil),
		Buttons: s.mainButtons(session.Language),
	}
}

var whoAreYouPatterns = []string{
	"who are you", "what are you", "qui es-tu", "qui es tu",
	"qui êtes-vous", "qui êtes vous", "t'es qui", "tu es qui",
}

func (s *ConversationService) help(ctx context.Context, session *cache.Session, text string) Response {
	lower := strings.ToLower(text)
	for _, pattern := range whoAreYouPatterns {
		if strings.Contains(lower, pattern) {
			return &TextResponse{Text: s.catalog.T(session.Language, i18n.MsgIntroduction, nil)}
		}
	}

	if strings.TrimSpace(text) != "" {
		if answer := s.freeTextAnswer(ctx, text, session.Language); answer != "" {
			return &TextResponse{Text: answer}
		}
	}

	return &ListResponse{
		Text:       s.catalog.T(session.Language, i18n.MsgHelpMenuText, nil),
		ButtonText: s.catalog.T(session.Language, i18n.MsgHelpMenuButton, nil),
		Sections: []ListSection{
			{
				Title: s.catalog.T(session.Language, i18n.MsgSectionSupport, nil),
				Rows: []ListRow{
					{
						ID:          ControlCreateTicket,
						Title:       s.catalog.T(session.Language, i18n.MsgRowCreateTicket, nil),
						Description: s.catalog.T(session.Language, i18n.MsgRowCreateTicketDesc, nil),
					},
					{
						ID:          ControlCheckTicket,
						Title:       s.catalog.T(session.Language, i18n.MsgRowCheckTicket, nil),
						Description: s.catalog.T(session.Language, i18n.MsgRowCheckTicketDesc, nil),
					},
				},
			},
			{
				Title: s.catalog.T(session.Language, i18n.MsgSectionInfo, nil),
				Rows: []ListRow{
					{
						ID:          ControlFAQ,
						Title:       s.catalog.T(session.Language, i18n.MsgRowFAQ, nil),
						Description: s.catalog.T(session.Language, i18n.MsgRowFAQDesc, nil),
					},
					{
						ID:          ControlContactAgent,
						Title:       s.catalog.T(session.Language, i18n.MsgRowContactAgent, nil),
						Description: s.catalog.T(session.Language, i18n.MsgRowContactAgentDesc, nil),
					},
				},
			},
		},
	}
}

func (s *ConversationService) createTicket(user *models.User, session *cache.Session, text string) (Response, error) {
	title, description := nlp.ExtractTicketInfo(text, session.Language)
	if description == "" || len(strings.Fields(description)) < 3 {
		return &TextResponse{Text: s.catalog.T(session.Language, i18n.MsgTicketNeedInfo, nil)}, nil
	}

	ticket, err := s.tickets.Create(user.UserID, session.Language, title, description, "", "")
	if err != nil {
		return nil, err
	}
	return &TextResponse{Text: s.formatter.FormatTicketConfirmation(ticket, session.Language)}, nil
}

func (s *ConversationService) listTickets(user *models.User, session *cache.Session) (Response, error) {
	tickets, _, err := s.tickets.ListByUser(user.UserID, 5, 0)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return &TextResponse{Text: s.catalog.T(session.Language, i18n.MsgNoTickets, nil)}, nil
	}
	return &TextResponse{Text: s.formatter.FormatTicketList(tickets, session.Language)}, nil
}

func (s *ConversationService) faq(ctx context.Context, session *cache.Session, text string) (Response, error) {
	if strings.TrimSpace(text) != "" {
		match, err := s.knowledge.Search(ctx, text, session.Language, 3)
		if err != nil {
			return nil, err
		}
		if match != nil && match.Confidence > 0.5 {
			s.knowledge.RecordUsage(match.ID)
			return &TextResponse{Text: match.Answer}, nil
		}
	}

	return &ListResponse{
		Text:       s.catalog.T(session.Language, i18n.MsgFAQMenuText, nil),
		ButtonText: s.catalog.T(session.Language, i18n.MsgFAQMenuButton, nil),
		Sections: []ListSection{
			{
				Title: s.catalog.T(session.Language, i18n.MsgFAQCategories, nil),
				Rows: []ListRow{
					{ID: "faq_cat_billing", Title: s.catalog.T(session.Language, i18n.MsgCatBilling, nil)},
					{ID: "faq_cat_technical", Title: s.catalog.T(session.Language, i18n.MsgCatTechnical, nil)},
					{ID: "faq_cat_account", Title: s.catalog.T(session.Language, i18n.MsgCatAccount, nil)},
					{ID: "faq_cat_general", Title: s.catalog.T(session.Language, i18n.MsgCatGeneral, nil)},
				},
			},
		},
	}, nil
}

func (s *ConversationService) contactAgent(session *cache.Session, reason string) Response {
	session.Context["pendingHandoff"] = true
	session.Context["handoffReason"] = reason
	session.Context["handoffAt"] = time.Now().Format(time.RFC3339)
	log.Printf("👤 Handoff requested by %s (%s)", session.PhoneNumber, reason)
	return &TextResponse{Text: s.catalog.T(session.Language, i18n.MsgHandoffInitiated, nil)}
}

func (s *ConversationService) endConversation(conv *models.Conversation, session *cache.Session) (Response, error) {
	now := time.Now()
	conv.Status = models.ConversationStatusEnded
	conv.EndedAt = &now
	if err := s.store.UpdateConversation(conv); err != nil {
		return nil, err
	}
	return &TextResponse{Text: s.catalog.T(session.Language, i18n.MsgGoodbye, nil)}, nil
}

var capabilityPatterns = []string{
	"what can you do", "capabilities", "que peux-tu faire",
	"que peux tu faire", "que sais-tu faire", "fonctionnalités",
}

func (s *ConversationService) productInquiry(ctx context.Context, session *cache.Session, text string) Response {
	lower := strings.ToLower(text)
	for _, pattern := range capabilityPatterns {
		if strings.Contains(lower, pattern) {
			return &TextResponse{Text: s.catalog.T(session.Language, i18n.MsgCapabilities, nil)}
		}
	}

	if answer := s.freeTextAnswer(ctx, text, session.Language); answer != "" {
		return &TextResponse{Text: answer}
	}
	return s.fallbackMenu(session)
}

// other message types

func (s *ConversationService) handleInteractive(ctx context.Context, user *models.User, conv *models.Conversation, session *cache.Session, in *InboundMessage) (Response, error) {
	switch in.InteractiveID {
	case ControlHelp:
		return s.help(ctx, session, ""), nil
	case ControlFAQ:
		return s.faq(ctx, session, "")
	case ControlContactAgent:
		return s.contactAgent(session, "button"), nil
	case ControlGreeting:
		return s.greet(user, session), nil
	case ControlCreateTicket:
		return &TextResponse{Text: s.catalog.T(session.Language, i18n.MsgTicketNeedInfo, nil)}, nil
	case ControlCheckTicket:
		return s.listTickets(user, session)
	default:
		return s.handleText(ctx, user, conv, session, in.InteractiveTitle)
	}
}

func (s *ConversationService) handleMedia(ctx context.Context, user *models.User, conv *models.Conversation, session *cache.Session, in *InboundMessage) (Response, error) {
	if strings.TrimSpace(in.Text) != "" {
		return s.handleText(ctx, user, conv, session, in.Text)
	}

	var key i18n.Key
	switch in.Type {
	case models.MessageTypeImage:
		key = i18n.MsgMediaImage
	case models.MessageTypeAudio:
		key = i18n.MsgMediaAudio
	case models.MessageTypeVideo:
		key = i18n.MsgMediaVideo
	default:
		key = i18n.MsgMediaDocument
	}
	return &TextResponse{Text: s.catalog.T(session.Language, key, nil)}, nil
}

func (s *ConversationService) handleLocation(session *cache.Session, in *InboundMessage) Response {
	text := s.catalog.T(session.Language, i18n.MsgLocationAck, map[string]string{
		"name":    in.LocationName,
		"address": in.LocationAddress,
	})
	return &TextResponse{Text: strings.Join(strings.Fields(text), " ")}
}

// shared pieces

func (s *ConversationService) mainButtons(language string) []Button {
	return []Button{
		{ID: ControlHelp, Title: s.catalog.T(language, i18n.MsgButtonHelp, nil)},
		{ID: ControlFAQ, Title: s.catalog.T(language, i18n.MsgButtonFAQ, nil)},
		{ID: ControlContactAgent, Title: s.catalog.T(language, i18n.MsgButtonContactAgent, nil)},
	}
}

func (s *ConversationService) fallbackMenu(session *cache.Session) Response {
	return &ButtonsResponse{
		Text:    s.catalog.T(session.Language, i18n.MsgFallbackMenu, nil),
		Buttons: s.mainButtons(session.Language),
	}
}

var unhelpfulPhrases = []string{
	"i don't know", "i cannot", "i can't help", "as an ai",
	"je ne sais pas", "je ne peux pas", "en tant qu'ia",
}

// freeTextAnswer makes a single generation attempt and rejects short
// or unhelpful output. Returns "" when there is nothing worth sending.
func (s *ConversationService) freeTextAnswer(ctx context.Context, text, language string) string {
	answer, err := s.analyzer.GenerateResponse(ctx, text, language)
	if err != nil {
		log.Printf("⚠️ Free-text generation failed: %v", err)
		return ""
	}
	if len([]rune(answer)) < 15 {
		return ""
	}

	lower := strings.ToLower(answer)
	for _, phrase := range unhelpfulPhrases {
		if strings.Contains(lower, phrase) {
			return ""
		}
	}
	return answer
}

func (s *ConversationService) sendResponse(ctx context.Context, user *models.User, conv *models.Conversation, session *cache.Session, response Response) error {
	sid, err := s.sender.Send(ctx, user.PhoneNumber, response)
	if err != nil {
		return err
	}

	msgType := models.MessageTypeInteractive
	if _, ok := response.(*TextResponse); ok {
		msgType = models.MessageTypeText
	}

	content, _ := json.Marshal(response)
	out := &models.Message{
		ConversationID: conv.ConversationID,
		WhatsAppID:     sid,
		Type:           msgType,
		Direction:      models.DirectionOutgoing,
		Content:        string(content),
		Timestamp:      time.Now(),
		Processed:      true,
	}
	if err := s.store.CreateMessage(out); err != nil {
		log.Printf("⚠️ Failed to record outgoing message: %v", err)
	}
	return nil
}

// sendErrorMessage is the best-effort tail of the catch boundary: its
// own failures are swallowed and logged, never re-thrown.
func (s *ConversationService) sendErrorMessage(ctx context.Context, phone string) {
	language := s.cfg.DefaultLanguage
	if user, err := s.store.GetUserByPhone(phone); err == nil {
		language = user.Language
	}

	text := s.catalog.T(language, i18n.MsgErrorGeneric, nil)
	if _, err := s.sender.Send(ctx, phone, &TextResponse{Text: text}); err != nil {
		log.Printf("❌ Failed to send error message to %s: %v", phone, err)
	}
}
