package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/errs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
)

func newTestTicketService(t *testing.T) (*TicketService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	return NewTicketService(store, c, time.Minute, 30*time.Minute), store
}

func TestDeterminePriority(t *testing.T) {
	assert.Equal(t, models.TicketPriorityUrgent, DeterminePriority("urgent: site is down", "en"))
	assert.Equal(t, models.TicketPriorityNormal, DeterminePriority("just wondering", "en"))
	assert.Equal(t, models.TicketPriorityHigh, DeterminePriority("I cannot log in, this is serious", "en"))
	assert.Equal(t, models.TicketPriorityUrgent, DeterminePriority("c'est urgent, tout est bloqué", "fr"))
}

func TestDetermineCategory(t *testing.T) {
	assert.Equal(t, "billing", DetermineCategory("my invoice is wrong", "en"))
	assert.Equal(t, "technique", DetermineCategory("erreur de connexion", "fr"))
	assert.Equal(t, "general", DetermineCategory("nothing specific", "en"))
	assert.Equal(t, "général", DetermineCategory("rien de particulier", "fr"))
}

func TestCreateAutoClassifies(t *testing.T) {
	service, _ := newTestTicketService(t)

	ticket, err := service.Create("USR-1", "en", "Site down", "the whole site is down, urgent", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.TicketPriorityUrgent, ticket.Priority)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.NotEmpty(t, ticket.TicketID)
}

func TestCreateRejectsEmptyFields(t *testing.T) {
	service, _ := newTestTicketService(t)

	_, err := service.Create("USR-1", "en", "", "description", "", "")
	assert.True(t, errs.IsValidation(err))

	_, err = service.Create("USR-1", "en", "title", "   ", "", "")
	assert.True(t, errs.IsValidation(err))
}

func TestUpdateStatusRejectsInvalidValue(t *testing.T) {
	service, store := newTestTicketService(t)

	ticket, err := service.Create("USR-1", "en", "Printer issue", "printer will not turn on", "", "")
	require.NoError(t, err)

	_, err = service.UpdateStatus(ticket.TicketID, models.TicketStatus("FOO"))
	require.True(t, errs.IsValidation(err))

	// No mutation happened
	stored, err := store.GetTicket(ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, stored.Status)
}

func TestUpdateStatusStampsResolvedAt(t *testing.T) {
	service, _ := newTestTicketService(t)

	ticket, err := service.Create("USR-1", "en", "Printer issue", "printer will not turn on", "", "")
	require.NoError(t, err)
	require.Nil(t, ticket.ResolvedAt)

	updated, err := service.UpdateStatus(ticket.TicketID, models.TicketStatusResolved)
	require.NoError(t, err)
	assert.NotNil(t, updated.ResolvedAt)
}

func TestAssignForcesInProgress(t *testing.T) {
	service, _ := newTestTicketService(t)

	ticket, err := service.Create("USR-1", "en", "Printer issue", "printer will not turn on", "", "")
	require.NoError(t, err)

	assigned, err := service.Assign(ticket.TicketID, "alice")
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, "alice", *assigned.AssignedTo)
	assert.Equal(t, models.TicketStatusInProgress, assigned.Status)
}

func TestGetScopesToOwner(t *testing.T) {
	service, _ := newTestTicketService(t)

	ticket, err := service.Create("USR-1", "en", "Printer issue", "printer will not turn on", "", "")
	require.NoError(t, err)

	_, err = service.Get(ticket.TicketID, "USR-2")
	assert.True(t, errs.IsNotFound(err), "owner mismatch must read as not found")

	got, err := service.Get(ticket.TicketID, "USR-1")
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketID, got.TicketID)
}

func TestFindEscalationCandidates(t *testing.T) {
	store := storage.NewMemoryStore()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	// Zero timeout makes every old-enough ticket a candidate
	service := NewTicketService(store, c, time.Minute, 0)

	urgent, err := service.Create("USR-1", "en", "Site down", "everything is down, urgent", "", "")
	require.NoError(t, err)
	_, err = service.Create("USR-1", "en", "Color question", "which color is the logo", "", "")
	require.NoError(t, err)

	// Backdate so CreatedAt is strictly before the sweep cutoff
	urgent.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.UpdateTicket(urgent))

	candidates, err := service.FindEscalationCandidates()
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, urgent.TicketID, candidates[0].TicketID)

	// Assigned tickets stop being candidates
	_, err = service.Assign(urgent.TicketID, "alice")
	require.NoError(t, err)
	candidates, err = service.FindEscalationCandidates()
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestAutoCloseResolved(t *testing.T) {
	service, store := newTestTicketService(t)

	ticket, err := service.Create("USR-1", "en", "Printer issue", "printer will not turn on", "", "")
	require.NoError(t, err)

	resolvedAt := time.Now().Add(-8 * 24 * time.Hour)
	ticket.Status = models.TicketStatusResolved
	ticket.ResolvedAt = &resolvedAt
	require.NoError(t, store.UpdateTicket(ticket))

	closed, err := service.AutoCloseResolved()
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	stored, err := store.GetTicket(ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusClosed, stored.Status)

	// Recently resolved tickets are left alone
	recent, err := service.Create("USR-1", "en", "Other issue", "screen flickers sometimes", "", "")
	require.NoError(t, err)
	_, err = service.UpdateStatus(recent.TicketID, models.TicketStatusResolved)
	require.NoError(t, err)

	closed, err = service.AutoCloseResolved()
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestListByUserInvalidatedOnCreate(t *testing.T) {
	service, _ := newTestTicketService(t)

	_, err := service.Create("USR-1", "en", "First", "first ticket description", "", "")
	require.NoError(t, err)

	tickets, total, err := service.ListByUser("USR-1", 5, 0)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.EqualValues(t, 1, total)

	// A second create must bust the cached page
	_, err = service.Create("USR-1", "en", "Second", "second ticket description", "", "")
	require.NoError(t, err)

	tickets, total, err = service.ListByUser("USR-1", 5, 0)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
	assert.EqualValues(t, 2, total)
}

func TestSearchPagination(t *testing.T) {
	service, _ := newTestTicketService(t)

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := service.Create("USR-1", "en", title, "some ticket description", "", "")
		require.NoError(t, err)
	}

	tickets, total, hasMore, err := service.Search(&models.TicketSearch{UserID: "USR-1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
	assert.EqualValues(t, 3, total)
	assert.True(t, hasMore)

	tickets, _, hasMore, err = service.Search(&models.TicketSearch{UserID: "USR-1", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.False(t, hasMore)
}
