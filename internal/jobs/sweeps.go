package jobs

import (
	"log"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/services"
	"github.com/robfig/cron/v3"
)

// SweepJob runs the scheduled ticket maintenance sweeps
type SweepJob struct {
	tickets      *services.TicketService
	scheduler    *cron.Cron
	isRunning    bool
	autoAssign   bool
	defaultAgent string
}

// NewSweepJob creates a new sweep job scheduler. When autoAssign is
// set, escalation candidates are handed to defaultAgent instead of
// just being flagged.
func NewSweepJob(tickets *services.TicketService, autoAssign bool, defaultAgent string) *SweepJob {
	return &SweepJob{
		tickets:      tickets,
		scheduler:    cron.New(),
		autoAssign:   autoAssign,
		defaultAgent: defaultAgent,
	}
}

// Start begins all scheduled sweeps
func (s *SweepJob) Start() error {
	if s.isRunning {
		log.Println("Sweep jobs already running")
		return nil
	}

	if _, err := s.scheduler.AddFunc("@every 5m", s.runEscalationSweep); err != nil {
		return err
	}
	if _, err := s.scheduler.AddFunc("@daily", s.runAutoCloseSweep); err != nil {
		return err
	}

	s.scheduler.Start()
	s.isRunning = true
	log.Println("Sweep jobs started (escalation every 5m, auto-close daily)")
	return nil
}

// Stop halts all scheduled sweeps, waiting for a running sweep to finish
func (s *SweepJob) Stop() {
	if !s.isRunning {
		return
	}
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Println("Sweep jobs stopped")
}

// runEscalationSweep flags tickets that sat unassigned past the
// escalation window so an agent can pick them up, or assigns them to
// the default agent queue when auto-assignment is enabled.
func (s *SweepJob) runEscalationSweep() {
	candidates, err := s.tickets.FindEscalationCandidates()
	if err != nil {
		log.Printf("Error running escalation sweep: %v", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	if !s.autoAssign {
		log.Printf("Escalation sweep found %d candidate(s)", len(candidates))
		return
	}
	assigned := 0
	for _, ticket := range candidates {
		if _, err := s.tickets.Assign(ticket.TicketID, s.defaultAgent); err != nil {
			log.Printf("Error auto-assigning ticket %s: %v", ticket.TicketID, err)
			continue
		}
		assigned++
	}
	log.Printf("Escalation sweep auto-assigned %d ticket(s) to %s", assigned, s.defaultAgent)
}

func (s *SweepJob) runAutoCloseSweep() {
	closed, err := s.tickets.AutoCloseResolved()
	if err != nil {
		log.Printf("Error running auto-close sweep: %v", err)
		return
	}
	if closed > 0 {
		log.Printf("Auto-closed %d resolved ticket(s)", closed)
	}
}
