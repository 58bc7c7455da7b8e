package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MathijsBok/ticket-system-sub002/internal/domain"
)

// MemoryStore is a mutex-guarded Store used when no Postgres DSN is
// configured, and by the test suite. Per-ticket mutexes acquired in sorted
// id order give the same serialization guarantees as the row locks in the
// Postgres store; WithTickets restores a snapshot on error so failed
// operations leave no partial state.
type MemoryStore struct {
	mu          sync.RWMutex
	tickets     map[string]domain.Ticket
	numbers     map[int64]string
	comments    map[string][]domain.Comment
	activities  map[string][]domain.Activity
	feedback    map[string]domain.Feedback
	requests    map[string]domain.FeedbackRequest
	attachments map[string]domain.Attachment
	nextNumber  int64

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:     make(map[string]domain.Ticket),
		numbers:     make(map[int64]string),
		comments:    make(map[string][]domain.Comment),
		activities:  make(map[string][]domain.Activity),
		feedback:    make(map[string]domain.Feedback),
		requests:    make(map[string]domain.FeedbackRequest),
		attachments: make(map[string]domain.Attachment),
		nextNumber:  1,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) Tickets() TicketRepository         { return &memTickets{s} }
func (s *MemoryStore) Comments() CommentRepository       { return &memComments{s} }
func (s *MemoryStore) Activities() ActivityRepository    { return &memActivities{s} }
func (s *MemoryStore) Feedback() FeedbackRepository      { return &memFeedback{s} }
func (s *MemoryStore) Attachments() AttachmentRepository { return &memAttachments{s} }

// WithTickets serializes against concurrent operations on the given
// tickets and rolls their state back if fn fails.
func (s *MemoryStore) WithTickets(ctx context.Context, ticketIDs []string, fn func(ctx context.Context, tx Store) error) error {
	ids := sortedUnique(ticketIDs)
	for _, id := range ids {
		s.ticketLock(id).Lock()
	}
	defer func() {
		for i := len(ids) - 1; i >= 0; i-- {
			s.ticketLock(ids[i]).Unlock()
		}
	}()

	snap := s.snapshot(ids)
	if err := fn(ctx, s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *MemoryStore) ticketLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

type memSnapshot struct {
	tickets     map[string]*domain.Ticket
	activityLen map[string]int
	commentLen  map[string]int
	feedback    map[string]*domain.Feedback
	requests    map[string]*domain.FeedbackRequest
}

func (s *MemoryStore) snapshot(ids []string) memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memSnapshot{
		tickets:     make(map[string]*domain.Ticket, len(ids)),
		activityLen: make(map[string]int, len(ids)),
		commentLen:  make(map[string]int, len(ids)),
		feedback:    make(map[string]*domain.Feedback, len(ids)),
		requests:    make(map[string]*domain.FeedbackRequest, len(ids)),
	}
	for _, id := range ids {
		if t, ok := s.tickets[id]; ok {
			copied := t
			snap.tickets[id] = &copied
		} else {
			snap.tickets[id] = nil
		}
		snap.activityLen[id] = len(s.activities[id])
		snap.commentLen[id] = len(s.comments[id])
		if fb, ok := s.feedback[id]; ok {
			copied := fb
			snap.feedback[id] = &copied
		} else {
			snap.feedback[id] = nil
		}
		if req, ok := s.requests[id]; ok {
			copied := req
			snap.requests[id] = &copied
		} else {
			snap.requests[id] = nil
		}
	}
	return snap
}

func (s *MemoryStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range snap.tickets {
		if t == nil {
			delete(s.tickets, id)
			continue
		}
		s.tickets[id] = *t
	}
	for id, n := range snap.activityLen {
		if len(s.activities[id]) > n {
			s.activities[id] = s.activities[id][:n]
		}
	}
	for id, n := range snap.commentLen {
		if len(s.comments[id]) > n {
			s.comments[id] = s.comments[id][:n]
		}
	}
	for id, fb := range snap.feedback {
		if fb == nil {
			delete(s.feedback, id)
			continue
		}
		s.feedback[id] = *fb
	}
	for id, req := range snap.requests {
		if req == nil {
			delete(s.requests, id)
			continue
		}
		s.requests[id] = *req
	}
}

type memTickets struct{ s *MemoryStore }

func (r *memTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now()
	ticket.Number = r.s.nextNumber
	r.s.nextNumber++
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.s.tickets[ticket.ID] = *ticket
	r.s.numbers[ticket.Number] = ticket.ID
	return nil
}

func (r *memTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.s.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *memTickets) GetByNumber(ctx context.Context, number int64) (*domain.Ticket, error) {
	r.s.mu.RLock()
	id, ok := r.s.numbers[number]
	r.s.mu.RUnlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *memTickets) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for _, t := range r.s.tickets {
		if !matchesFilter(&t, filter) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

func matchesFilter(t *domain.Ticket, filter TicketFilter) bool {
	if filter.RequesterID != nil && t.RequesterID != *filter.RequesterID {
		return false
	}
	if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, t.Priority) {
		return false
	}
	if filter.Type != nil && t.Type != *filter.Type {
		return false
	}
	if filter.CreatedFrom != nil && t.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && t.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if !strings.Contains(strings.ToLower(t.Subject), term) {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

func paginate(tickets []domain.Ticket, limit, offset int) []domain.Ticket {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tickets) {
		return nil
	}
	end := offset + limit
	if end > len(tickets) {
		end = len(tickets)
	}
	return tickets[offset:end]
}

func (r *memTickets) ListIncidents(ctx context.Context, problemID string) ([]domain.Ticket, error) {
	return r.collect(func(t *domain.Ticket) bool {
		return t.Type == domain.TicketTypeIncident &&
			t.ProblemID != nil && *t.ProblemID == problemID
	})
}

func (r *memTickets) ListOpenIncidents(ctx context.Context, problemID string) ([]domain.Ticket, error) {
	return r.collect(func(t *domain.Ticket) bool {
		return t.Type == domain.TicketTypeIncident &&
			t.ProblemID != nil && *t.ProblemID == problemID && t.IsOpen()
	})
}

func (r *memTickets) ListMergedInto(ctx context.Context, targetID string) ([]domain.Ticket, error) {
	result, err := r.collect(func(t *domain.Ticket) bool {
		return t.MergedIntoID != nil && *t.MergedIntoID == targetID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		ci, cj := result[i].ClosedAt, result[j].ClosedAt
		if ci == nil || cj == nil {
			return result[i].Number > result[j].Number
		}
		return ci.After(*cj)
	})
	return result, nil
}

func (r *memTickets) ListPendingForReminder(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	return r.collect(func(t *domain.Ticket) bool {
		if t.Status != domain.TicketStatusPending || t.IsMerged() || t.ReminderSentAt != nil {
			return false
		}
		ref := pendingReference(t)
		return ref != nil && !ref.After(cutoff)
	})
}

func (r *memTickets) ListPendingForAutoSolve(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	return r.collect(func(t *domain.Ticket) bool {
		if t.Status != domain.TicketStatusPending || t.IsMerged() {
			return false
		}
		ref := pendingReference(t)
		if ref == nil || ref.After(cutoff) {
			return false
		}
		return t.LastRequesterReplyAt == nil || t.LastRequesterReplyAt.Before(*ref)
	})
}

func (r *memTickets) ListSolvedForAutoClose(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	return r.collect(func(t *domain.Ticket) bool {
		return t.Status == domain.TicketStatusSolved && !t.IsMerged() &&
			t.SolvedAt != nil && !t.SolvedAt.After(cutoff)
	})
}

func pendingReference(t *domain.Ticket) *time.Time {
	if t.LastAgentReplyAt != nil {
		return t.LastAgentReplyAt
	}
	return t.PendingSince
}

func (r *memTickets) collect(match func(*domain.Ticket) bool) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for _, t := range r.s.tickets {
		if match(&t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})
	return result, nil
}

type memComments struct{ s *MemoryStore }

func (r *memComments) Create(ctx context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = time.Now()
	r.s.comments[comment.TicketID] = append(r.s.comments[comment.TicketID], *comment)
	return nil
}

func (r *memComments) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.Comment(nil), r.s.comments[ticketID]...), nil
}

type memActivities struct{ s *MemoryStore }

func (r *memActivities) Create(ctx context.Context, activity *domain.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.CreatedAt = time.Now()
	r.s.activities[activity.TicketID] = append(r.s.activities[activity.TicketID], *activity)
	return nil
}

func (r *memActivities) ListByTicket(ctx context.Context, ticketID string) ([]domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.Activity(nil), r.s.activities[ticketID]...), nil
}

type memFeedback struct{ s *MemoryStore }

func (r *memFeedback) SaveRequest(ctx context.Context, req *domain.FeedbackRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.CreatedAt = time.Now()
	r.s.requests[req.TicketID] = *req
	return nil
}

func (r *memFeedback) GetRequest(ctx context.Context, ticketID string) (*domain.FeedbackRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &req, nil
}

func (r *memFeedback) Create(ctx context.Context, feedback *domain.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.feedback[feedback.TicketID]; ok {
		return errors.New("feedback already submitted")
	}
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.CreatedAt = time.Now()
	r.s.feedback[feedback.TicketID] = *feedback
	return nil
}

func (r *memFeedback) GetByTicket(ctx context.Context, ticketID string) (*domain.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	fb, ok := r.s.feedback[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &fb, nil
}

type memAttachments struct{ s *MemoryStore }

func (r *memAttachments) Create(ctx context.Context, attachment *domain.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now()
	}
	r.s.attachments[attachment.ID] = *attachment
	return nil
}

func (r *memAttachments) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	return r.collect(func(a *domain.Attachment) bool {
		return a.TicketID == ticketID && a.DeletedAt == nil
	})
}

func (r *memAttachments) ListExpired(ctx context.Context, before time.Time) ([]domain.Attachment, error) {
	return r.collect(func(a *domain.Attachment) bool {
		return a.DeletedAt == nil && !a.CreatedAt.After(before)
	})
}

func (r *memAttachments) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attachments[id]
	if !ok || a.DeletedAt != nil {
		return nil
	}
	a.DeletedAt = &at
	r.s.attachments[id] = a
	return nil
}

func (r *memAttachments) collect(match func(*domain.Attachment) bool) ([]domain.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Attachment
	for _, a := range r.s.attachments {
		if match(&a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
