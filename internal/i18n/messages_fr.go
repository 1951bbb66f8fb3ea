package i18n

var messagesFR = map[Key]string{
	MsgGreetingMorning:   "Bonjour {name} ! 👋",
	MsgGreetingAfternoon: "Bon après-midi {name} ! 👋",
	MsgGreetingEvening:   "Bonsoir {name} ! 👋",
	MsgGreetingMenu:      "Comment puis-je vous aider aujourd'hui ?",

	MsgButtonHelp:         "Aide",
	MsgButtonFAQ:          "FAQ",
	MsgButtonContactAgent: "Parler à un agent",

	MsgIntroduction: "Je suis votre assistant virtuel de support. Je peux répondre à vos questions, chercher dans notre FAQ, ouvrir des tickets de support et vous mettre en relation avec un agent.",
	MsgCapabilities: "Voici ce que je peux faire :\n• Répondre aux questions fréquentes\n• Créer et suivre des tickets de support\n• Vous mettre en relation avec un agent\n• Vous aider en français et en anglais",

	MsgHelpMenuText:   "Choisissez une option ci-dessous :",
	MsgHelpMenuButton: "Options",
	MsgSectionSupport: "Support",
	MsgSectionInfo:    "Informations",

	MsgRowCreateTicket:     "Ouvrir un ticket",
	MsgRowCreateTicketDesc: "Signaler un problème à notre équipe",
	MsgRowCheckTicket:      "Mes tickets",
	MsgRowCheckTicketDesc:  "Suivre l'état de vos demandes",
	MsgRowFAQ:              "Consulter la FAQ",
	MsgRowFAQDesc:          "Réponses aux questions fréquentes",
	MsgRowContactAgent:     "Parler à un agent",
	MsgRowContactAgentDesc: "Obtenir l'aide d'un humain",

	MsgTicketCreated:    "✅ Votre ticket a bien été créé !\n\n🎫 Numéro : {id}\n📋 Titre : {title}\n⚡ Priorité : {priority}\n\nNotre équipe vous recontactera dès que possible.",
	MsgTicketNeedInfo:   "Je peux ouvrir un ticket pour vous. Pouvez-vous décrire votre problème en quelques mots ?",
	MsgTicketListHeader: "📋 Vos {count} derniers tickets :",
	MsgNoTickets:        "Vous n'avez pas encore de ticket de support.",

	MsgFAQMenuText:   "Choisissez un sujet :",
	MsgFAQMenuButton: "Sujets",
	MsgFAQCategories: "FAQ",

	MsgCatBilling:   "Facturation",
	MsgCatTechnical: "Technique",
	MsgCatAccount:   "Compte",
	MsgCatGeneral:   "Général",

	MsgHandoffInitiated: "👤 Je vous transfère vers l'un de nos agents. Quelqu'un reprendra la conversation très vite, merci de votre patience !",
	MsgGoodbye:          "Merci de nous avoir contactés. Excellente journée ! 👋",
	MsgFallbackMenu:     "Je ne suis pas sûr d'avoir compris. Voici ce que je peux faire pour vous :",
	MsgErrorGeneric:     "😕 Désolé, une erreur s'est produite. Veuillez réessayer dans un instant.",

	MsgMediaImage:    "📷 Merci pour l'image ! Si vous avez besoin d'aide, décrivez votre demande dans un message.",
	MsgMediaAudio:    "🎵 Merci pour le message vocal ! Je ne lis que le texte pour l'instant, pouvez-vous écrire votre demande ?",
	MsgMediaVideo:    "🎬 Merci pour la vidéo ! Si vous avez besoin d'aide, décrivez votre demande dans un message.",
	MsgMediaDocument: "📄 Document bien reçu ! Si vous avez besoin d'aide, décrivez votre demande dans un message.",
	MsgLocationAck:   "📍 Position reçue : {name} {address}. Comment puis-je vous aider ?",

	MsgStatusOpen:            "Ouvert",
	MsgStatusInProgress:      "En cours",
	MsgStatusWaitingCustomer: "En attente de votre retour",
	MsgStatusResolved:        "Résolu",
	MsgStatusClosed:          "Fermé",
}
