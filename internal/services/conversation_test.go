package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/config"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/errs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/i18n"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/nlp"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
)

// captureSender records outbound responses instead of sending them.
type captureSender struct {
	mu        sync.Mutex
	responses []Response
	tos       []string
}

func (s *captureSender) Send(ctx context.Context, to string, response Response) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, response)
	s.tos = append(s.tos, to)
	return "SM-test", nil
}

func (s *captureSender) last(t *testing.T) Response {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.responses)
	return s.responses[len(s.responses)-1]
}

// queueClient pops scripted responses in order.
type queueClient struct {
	calls int
	queue []string
}

func (c *queueClient) Generate(ctx context.Context, messages []nlp.Message) (nlp.Response, error) {
	c.calls++
	if len(c.queue) == 0 {
		return nlp.Response{}, errors.New("no scripted response left")
	}
	content := c.queue[0]
	c.queue = c.queue[1:]
	return nlp.Response{Content: content}, nil
}

type pipeline struct {
	service  *ConversationService
	store    *storage.MemoryStore
	sender   *captureSender
	sessions *cache.SessionStore
	catalog  *i18n.Catalog
	cfg      *config.Config
}

func newTestPipeline(t *testing.T, client nlp.Client) *pipeline {
	t.Helper()
	p := &pipeline{store: storage.NewMemoryStore(), sender: &captureSender{}}
	buildPipeline(t, client, p, p.store, p.sender)
	return p
}

// buildPipeline wires the service; svcStore and sender may differ from
// the capture/memory pair held by p when a test injects a wrapper.
func buildPipeline(t *testing.T, client nlp.Client, p *pipeline, svcStore storage.Store, sender Sender) {
	t.Helper()

	cfg := &config.Config{
		DefaultLanguage:           "fr",
		SupportedLanguages:        []string{"fr", "en"},
		MaxConversationSeconds:    3600,
		SessionTTLSeconds:         3600,
		IntentConfidenceThreshold: 0.5,
		KBConfidenceThreshold:     0.4,
		HandoffKeywords:           []string{"agent", "humain", "conseiller"},
	}

	catalog, err := i18n.NewCatalog(cfg.DefaultLanguage, cfg.SupportedLanguages)
	require.NoError(t, err)

	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	sessions := cache.NewSessionStore(c, cfg.SessionTTL())

	p.service = NewConversationService(
		svcStore, sessions,
		nlp.NewAnalyzer(client, c, time.Minute),
		nlp.NewDetector(client, c, time.Minute, cfg.SupportedLanguages),
		NewKnowledgeService(svcStore, client, c, time.Minute),
		NewTicketService(svcStore, c, time.Minute, 30*time.Minute),
		NewFormatter(catalog),
		catalog, sender, cfg,
	)
	p.sessions = sessions
	p.catalog = catalog
	p.cfg = cfg
}

func textMessage(id, from, text string) *InboundMessage {
	return &InboundMessage{
		WhatsAppID: id,
		From:       from,
		Timestamp:  time.Now(),
		Type:       models.MessageTypeText,
		Text:       text,
	}
}

const greetingJSON = `{"intent":"greeting","confidence":0.9,"entities":{},"sentiment":"positive"}`

func TestGreetingFromNewNumber(t *testing.T) {
	client := &queueClient{queue: []string{greetingJSON}}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000001", "Bonjour"))

	// A user exists with the default language
	user, err := p.store.GetUserByPhone("+221770000001")
	require.NoError(t, err)
	assert.Equal(t, "fr", user.Language)
	assert.Equal(t, models.UserStatusActive, user.Status)

	// Exactly one ACTIVE conversation
	conv, err := p.store.GetActiveConversation(user.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationStatusActive, conv.Status)

	// The reply is an interactive greeting with exactly 3 buttons
	buttons, ok := p.sender.last(t).(*ButtonsResponse)
	require.True(t, ok, "greeting must be a buttons response")
	require.Len(t, buttons.Buttons, 3)
	assert.Equal(t, ControlHelp, buttons.Buttons[0].ID)
	assert.Equal(t, ControlFAQ, buttons.Buttons[1].ID)
	assert.Equal(t, ControlContactAgent, buttons.Buttons[2].ID)
	assert.Equal(t, p.catalog.T("fr", i18n.MsgButtonHelp, nil), buttons.Buttons[0].Title)

	// The inbound message is persisted and marked processed
	messages, err := p.store.GetMessagesByConversation(conv.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	var inbound *models.Message
	for _, m := range messages {
		if m.Direction == models.DirectionIncoming {
			inbound = m
		}
	}
	require.NotNil(t, inbound)
	assert.True(t, inbound.Processed)
	assert.Equal(t, "SM1", inbound.WhatsAppID)
}

func TestHandoffKeywordBypassesClassifier(t *testing.T) {
	client := &queueClient{}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000002", "I want to talk to an agent"))

	assert.Zero(t, client.calls, "handoff keyword must bypass the classifier entirely")

	// Language was switched by the heuristic before the keyword check
	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Equal(t, p.catalog.T("en", i18n.MsgHandoffInitiated, nil), text.Text)

	session, ok := p.sessions.Get("+221770000002")
	require.True(t, ok)
	assert.Equal(t, true, session.Context["pendingHandoff"])
	assert.Equal(t, "keyword", session.Context["handoffReason"])
}

func TestStaleConversationIsEndedBeforeNewOne(t *testing.T) {
	client := &queueClient{queue: []string{greetingJSON, greetingJSON}}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000003", "Bonjour"))

	user, err := p.store.GetUserByPhone("+221770000003")
	require.NoError(t, err)
	first, err := p.store.GetActiveConversation(user.UserID)
	require.NoError(t, err)

	first.StartedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, p.store.UpdateConversation(first))

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM2", "+221770000003", "Bonjour encore"))

	assert.Equal(t, models.ConversationStatusEnded, first.Status)
	require.NotNil(t, first.EndedAt)

	second, err := p.store.GetActiveConversation(user.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ConversationID, second.ConversationID)
}

func TestDuplicateMessageIDIsNotDeduplicated(t *testing.T) {
	client := &queueClient{queue: []string{greetingJSON, greetingJSON}}
	p := newTestPipeline(t, client)

	in := textMessage("SM-DUP", "+221770000004", "Bonjour")
	p.service.ProcessIncomingMessage(context.Background(), in)
	p.service.ProcessIncomingMessage(context.Background(), in)

	user, err := p.store.GetUserByPhone("+221770000004")
	require.NoError(t, err)
	conv, err := p.store.GetActiveConversation(user.UserID)
	require.NoError(t, err)

	messages, err := p.store.GetMessagesByConversation(conv.ConversationID, 0)
	require.NoError(t, err)

	duplicates := 0
	for _, m := range messages {
		if m.Direction == models.DirectionIncoming && m.WhatsAppID == "SM-DUP" {
			duplicates++
		}
	}
	assert.Equal(t, 2, duplicates, "same provider id twice must create two records")
	assert.Len(t, p.sender.responses, 2)
}

func TestLowConfidenceFallsThroughToKnowledgeBase(t *testing.T) {
	client := &queueClient{queue: []string{
		`{"intent":"faq","confidence":0.3,"entities":{},"sentiment":"neutral"}`,
		`[0.9]`,
	}}
	p := newTestPipeline(t, client)

	entry := &models.KnowledgeBase{
		Question: "horaires",
		Answer:   "Nous sommes ouverts de 9h à 18h.",
		Category: "general",
		Language: "fr",
		IsActive: true,
	}
	entry.SetKeywordList([]string{"horaires"})
	require.NoError(t, p.store.CreateKnowledgeBaseEntry(entry))

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000005", "je voudrais vos horaires"))

	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Equal(t, entry.Answer, text.Text)
	assert.Equal(t, 2, client.calls)

	// Consumption bumped the usage counter
	entries, err := p.store.GetActiveKnowledgeBaseEntries("fr")
	require.NoError(t, err)
	assert.Equal(t, 1, entries[0].UsageCount)
}

func TestTicketCreationFromText(t *testing.T) {
	client := &queueClient{}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000006", "I want to report a problem: invoice has wrong amount charged"))

	assert.Zero(t, client.calls, "local ticket heuristics must not call the model")

	user, err := p.store.GetUserByPhone("+221770000006")
	require.NoError(t, err)
	tickets, total, err := p.store.GetTicketsByUser(user.UserID, 5, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "invoice has wrong amount charged", tickets[0].Description)
	assert.Equal(t, "billing", tickets[0].Category)

	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Contains(t, text.Text, tickets[0].Title)
}

func TestInteractiveButtonRoutesDirectly(t *testing.T) {
	client := &queueClient{}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), &InboundMessage{
		WhatsAppID:       "SM1",
		From:             "+221770000007",
		Timestamp:        time.Now(),
		Type:             models.MessageTypeInteractive,
		InteractiveID:    ControlContactAgent,
		InteractiveTitle: "Parler à un conseiller",
	})

	assert.Zero(t, client.calls)

	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Equal(t, p.catalog.T("fr", i18n.MsgHandoffInitiated, nil), text.Text)

	session, ok := p.sessions.Get("+221770000007")
	require.True(t, ok)
	assert.Equal(t, "button", session.Context["handoffReason"])
}

func TestMediaWithoutCaptionIsAcknowledged(t *testing.T) {
	client := &queueClient{}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), &InboundMessage{
		WhatsAppID:       "SM1",
		From:             "+221770000008",
		Timestamp:        time.Now(),
		Type:             models.MessageTypeImage,
		MediaURL:         "https://example.test/img.jpg",
		MediaContentType: "image/jpeg",
	})

	assert.Zero(t, client.calls)

	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Equal(t, p.catalog.T("fr", i18n.MsgMediaImage, nil), text.Text)
}

func TestCheckTicketStatusListsTickets(t *testing.T) {
	client := &queueClient{}
	p := newTestPipeline(t, client)

	// First message opens a ticket, second asks for its status
	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000009", "I want to report a problem: invoice has wrong amount charged"))
	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM2", "+221770000009", "what is the status of my tickets"))

	assert.Zero(t, client.calls)

	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Contains(t, text.Text, "TKT-")
}

// faultySender rejects the first n sends and captures the rest.
type faultySender struct {
	captureSender
	failures int
}

func (s *faultySender) Send(ctx context.Context, to string, response Response) (string, error) {
	if s.failures > 0 {
		s.failures--
		return "", errors.New("provider rejected message")
	}
	return s.captureSender.Send(ctx, to, response)
}

func TestProcessingFailureSendsGenericError(t *testing.T) {
	client := &queueClient{queue: []string{greetingJSON}}
	sender := &faultySender{failures: 1}
	p := &pipeline{store: storage.NewMemoryStore(), sender: &sender.captureSender}
	buildPipeline(t, client, p, p.store, sender)

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000011", "Bonjour"))

	// The greeting send failed; the only delivered message is the
	// localized generic error.
	require.Len(t, sender.responses, 1)
	text, ok := sender.responses[0].(*TextResponse)
	require.True(t, ok)
	assert.Equal(t, p.catalog.T("fr", i18n.MsgErrorGeneric, nil), text.Text)
}

// racingStore reports a user miss n times before delegating, shadowing
// a concurrent delivery that inserts the row in between.
type racingStore struct {
	*storage.MemoryStore
	misses int
}

func (r *racingStore) GetUserByPhone(phone string) (*models.User, error) {
	if r.misses > 0 {
		r.misses--
		return nil, &errs.NotFoundError{Resource: "user", ID: phone}
	}
	return r.MemoryStore.GetUserByPhone(phone)
}

func TestConcurrentUserCreationFallsBackToExistingRow(t *testing.T) {
	client := &queueClient{queue: []string{greetingJSON}}
	p := &pipeline{store: storage.NewMemoryStore(), sender: &captureSender{}}
	buildPipeline(t, client, p, &racingStore{MemoryStore: p.store, misses: 1}, p.sender)

	existing := &models.User{
		PhoneNumber: "+221770000012",
		Language:    "fr",
		Status:      models.UserStatusActive,
	}
	require.NoError(t, p.store.CreateUser(existing))

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000012", "Bonjour"))

	// The conflict on insert resolved to the pre-existing row and the
	// pipeline completed normally.
	user, err := p.store.GetUserByPhone("+221770000012")
	require.NoError(t, err)
	assert.Equal(t, existing.UserID, user.UserID)
	_, ok := p.sender.last(t).(*ButtonsResponse)
	assert.True(t, ok)
}

func TestMediaWithCaptionReprocessedAsText(t *testing.T) {
	client := &queueClient{queue: []string{greetingJSON}}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), &InboundMessage{
		WhatsAppID:       "SM1",
		From:             "+221770000013",
		Timestamp:        time.Now(),
		Type:             models.MessageTypeImage,
		Text:             "Bonjour",
		MediaURL:         "https://example.test/img.jpg",
		MediaContentType: "image/jpeg",
	})

	// The caption goes through the text pipeline instead of the media
	// acknowledgment.
	buttons, ok := p.sender.last(t).(*ButtonsResponse)
	require.True(t, ok)
	require.Len(t, buttons.Buttons, 3)
	assert.Equal(t, 1, client.calls)
}

func TestLocationAcknowledgmentEmbedsPlace(t *testing.T) {
	client := &queueClient{}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), &InboundMessage{
		WhatsAppID:      "SM1",
		From:            "+221770000014",
		Timestamp:       time.Now(),
		Type:            models.MessageTypeLocation,
		LocationName:    "Café Central",
		LocationAddress: "12 Rue de la Paix",
		Latitude:        48.8698,
		Longitude:       2.3311,
	})

	assert.Zero(t, client.calls)

	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Café Central")
	assert.Contains(t, text.Text, "12 Rue de la Paix")
}

func TestHandoffKeywordMatchesWholeTokensOnly(t *testing.T) {
	client := &queueClient{queue: []string{
		`{"intent":"unknown","confidence":0.2,"entities":{},"sentiment":"neutral"}`,
	}}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000015", "we need more reagent for the lab"))

	// "agent" inside "reagent" must not trigger a handoff.
	session, ok := p.sessions.Get("+221770000015")
	require.True(t, ok)
	assert.NotContains(t, session.Context, "pendingHandoff")
	_, isButtons := p.sender.last(t).(*ButtonsResponse)
	assert.True(t, isButtons, "expected the fallback menu, not a handoff")
}

func TestGoodbyeEndsConversation(t *testing.T) {
	client := &queueClient{queue: []string{
		`{"intent":"goodbye","confidence":0.95,"entities":{},"sentiment":"neutral"}`,
	}}
	p := newTestPipeline(t, client)

	p.service.ProcessIncomingMessage(context.Background(), textMessage("SM1", "+221770000010", "au revoir et merci"))

	user, err := p.store.GetUserByPhone("+221770000010")
	require.NoError(t, err)
	_, err = p.store.GetActiveConversation(user.UserID)
	assert.Error(t, err, "goodbye must end the conversation")

	text, ok := p.sender.last(t).(*TextResponse)
	require.True(t, ok)
	assert.Equal(t, p.catalog.T("fr", i18n.MsgGoodbye, nil), text.Text)
}
