package storage

import (
	"log"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
)

type seedEntry struct {
	question string
	answer   string
	category string
	language string
	keywords []string
}

var defaultFAQ = []seedEntry{
	{
		question: "Quels sont vos horaires d'ouverture ?",
		answer:   "Notre équipe support est disponible du lundi au vendredi, de 8h à 18h. Le chatbot, lui, répond 24h/24 !",
		category: "general",
		language: "fr",
		keywords: []string{"horaires", "ouverture", "heures", "disponible"},
	},
	{
		question: "Comment obtenir ma facture ?",
		answer:   "Vos factures sont disponibles dans votre espace client, rubrique « Mes factures ». Vous pouvez aussi en demander une copie à un agent.",
		category: "billing",
		language: "fr",
		keywords: []string{"facture", "paiement", "reçu", "copie"},
	},
	{
		question: "Comment réinitialiser mon mot de passe ?",
		answer:   "Cliquez sur « Mot de passe oublié » sur la page de connexion, puis suivez le lien reçu par email. Le lien est valable 24 heures.",
		category: "technical",
		language: "fr",
		keywords: []string{"mot de passe", "connexion", "oublié", "réinitialiser"},
	},
	{
		question: "Comment modifier mes informations de compte ?",
		answer:   "Rendez-vous dans votre espace client, rubrique « Mon profil », pour mettre à jour vos coordonnées.",
		category: "account",
		language: "fr",
		keywords: []string{"compte", "profil", "coordonnées", "modifier"},
	},
	{
		question: "What are your opening hours?",
		answer:   "Our support team is available Monday to Friday, 8am to 6pm. The chatbot answers around the clock!",
		category: "general",
		language: "en",
		keywords: []string{"hours", "opening", "available", "schedule"},
	},
	{
		question: "How do I get my invoice?",
		answer:   "Your invoices are available in your customer area under \"My invoices\". You can also ask an agent for a copy.",
		category: "billing",
		language: "en",
		keywords: []string{"invoice", "bill", "payment", "receipt"},
	},
	{
		question: "How do I reset my password?",
		answer:   "Click \"Forgot password\" on the sign-in page and follow the link sent by email. The link is valid for 24 hours.",
		category: "technical",
		language: "en",
		keywords: []string{"password", "login", "forgot", "reset"},
	},
	{
		question: "How do I update my account details?",
		answer:   "Go to your customer area under \"My profile\" to update your contact details.",
		category: "account",
		language: "en",
		keywords: []string{"account", "profile", "details", "update"},
	},
}

// SeedKnowledgeBase inserts the default FAQ entries when the store is
// empty. Safe to call on every boot.
func SeedKnowledgeBase(store Store) error {
	count, err := store.CountKnowledgeBaseEntries()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, e := range defaultFAQ {
		entry := &models.KnowledgeBase{
			Question: e.question,
			Answer:   e.answer,
			Category: e.category,
			Language: e.language,
			IsActive: true,
		}
		entry.SetKeywordList(e.keywords)
		if err := store.CreateKnowledgeBaseEntry(entry); err != nil {
			return err
		}
	}

	log.Printf("📚 Seeded %d knowledge base entries", len(defaultFAQ))
	return nil
}
