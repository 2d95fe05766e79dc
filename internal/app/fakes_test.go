package app

import (
	"context"
	"sync"
	"time"

	"teacha/internal/common"
	"teacha/internal/domain/application"
	"teacha/internal/domain/conversation"
	"teacha/internal/domain/notification"
	"teacha/internal/domain/offer"
	"teacha/internal/domain/principal"
)

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[common.UUID]*offer.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[common.UUID]*offer.Offer)}
}

func (r *fakeOfferRepo) Create(ctx context.Context, o offer.Offer) (*offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = common.NewUUID()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	r.offers[o.ID] = &o
	return cloneOffer(&o), nil
}

func (r *fakeOfferRepo) GetByID(ctx context.Context, id common.UUID) (*offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.offers[id]
	if o == nil {
		return nil, common.NewError(common.CodeNotFound, "offer not found", nil)
	}
	return cloneOffer(o), nil
}

func (r *fakeOfferRepo) ListOpen(ctx context.Context, limit, offset int) ([]offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]offer.Offer, 0, len(r.offers))
	for _, o := range r.offers {
		if o.Status == offer.StatusActive {
			out = append(out, *cloneOffer(o))
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) ListByInstitution(ctx context.Context, institutionID common.UUID) ([]offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]offer.Offer, 0)
	for _, o := range r.offers {
		if o.InstitutionID == institutionID {
			out = append(out, *cloneOffer(o))
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) ListActive(ctx context.Context) ([]offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]offer.Offer, 0)
	for _, o := range r.offers {
		if o.Status == offer.StatusActive {
			out = append(out, *cloneOffer(o))
		}
	}
	return out, nil
}

func (r *fakeOfferRepo) SetStatusIf(ctx context.Context, id common.UUID, next, prev offer.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.offers[id]
	if o == nil {
		return false, common.NewError(common.CodeNotFound, "offer not found", nil)
	}
	if o.Status != prev {
		return false, nil
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *fakeOfferRepo) Fill(ctx context.Context, id, applicationID common.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.offers[id]
	if o == nil {
		return false, common.NewError(common.CodeNotFound, "offer not found", nil)
	}
	if o.Status != offer.StatusActive {
		return false, nil
	}
	o.Status = offer.StatusFilled
	winner := applicationID
	o.FilledBy = &winner
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func cloneOffer(o *offer.Offer) *offer.Offer {
	copy := *o
	copy.Subjects = append([]string(nil), o.Subjects...)
	copy.Periods = append([]string(nil), o.Periods...)
	if o.FilledBy != nil {
		winner := *o.FilledBy
		copy.FilledBy = &winner
	}
	return &copy
}

type fakeApplicationRepo struct {
	mu   sync.Mutex
	apps map[common.UUID]*application.Application
	// updateErr, when set, fails the next UpdateStatusIf call once
	updateErr error
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[common.UUID]*application.Application)}
}

func (r *fakeApplicationRepo) Create(ctx context.Context, app application.Application) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.OfferID == app.OfferID && existing.CandidateID == app.CandidateID {
			return nil, common.NewError(common.CodeConflict, "application already exists", nil)
		}
	}
	if app.ID == "" {
		app.ID = common.NewUUID()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	r.apps[app.ID] = &app
	copy := app
	return &copy, nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id common.UUID) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app := r.apps[id]
	if app == nil {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	copy := *app
	return &copy, nil
}

func (r *fakeApplicationRepo) FindByOfferAndCandidate(ctx context.Context, offerID, candidateID common.UUID) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.OfferID == offerID && app.CandidateID == candidateID {
			copy := *app
			return &copy, nil
		}
	}
	return nil, common.NewError(common.CodeNotFound, "application not found", nil)
}

func (r *fakeApplicationRepo) ListByOffer(ctx context.Context, offerID common.UUID) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]application.Application, 0)
	for _, app := range r.apps {
		if app.OfferID == offerID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) ListPendingByOffer(ctx context.Context, offerID common.UUID) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]application.Application, 0)
	for _, app := range r.apps {
		if app.OfferID == offerID && app.Status == application.StatusPending {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) ListByCandidate(ctx context.Context, candidateID common.UUID) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]application.Application, 0)
	for _, app := range r.apps {
		if app.CandidateID == candidateID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) ListByInstitution(ctx context.Context, institutionID common.UUID) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]application.Application, 0)
	for _, app := range r.apps {
		if app.InstitutionID == institutionID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) UpdateStatusIf(ctx context.Context, id common.UUID, next, prev application.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		err := r.updateErr
		r.updateErr = nil
		return false, err
	}
	app := r.apps[id]
	if app == nil {
		return false, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	if app.Status != prev {
		return false, nil
	}
	app.Status = next
	app.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *fakeApplicationRepo) Delete(ctx context.Context, id common.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.apps[id] == nil {
		return common.NewError(common.CodeNotFound, "application not found", nil)
	}
	delete(r.apps, id)
	return nil
}

type fakeConversationRepo struct {
	mu     sync.Mutex
	byID   map[common.UUID]*conversation.Conversation
	byPair map[string]common.UUID
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:   make(map[common.UUID]*conversation.Conversation),
		byPair: make(map[string]common.UUID),
	}
}

func (r *fakeConversationRepo) Create(ctx context.Context, c conversation.Conversation) (*conversation.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := conversation.PairKey(c.CandidateID, c.InstitutionID)
	if existingID, ok := r.byPair[key]; ok {
		return cloneConversation(r.byID[existingID]), false, nil
	}
	if c.ID == "" {
		c.ID = common.NewUUID()
	}
	c.CreatedAt = time.Now().UTC()
	if c.Unread == nil {
		c.Unread = map[common.UUID]int{c.CandidateID: 0, c.InstitutionID: 0}
	}
	r.byID[c.ID] = &c
	r.byPair[key] = c.ID
	return cloneConversation(&c), true, nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id common.UUID) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID[id]
	if c == nil {
		return nil, common.NewError(common.CodeNotFound, "conversation not found", nil)
	}
	return cloneConversation(c), nil
}

func (r *fakeConversationRepo) FindByPair(ctx context.Context, pairKey string) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPair[pairKey]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "conversation not found", nil)
	}
	return cloneConversation(r.byID[id]), nil
}

func (r *fakeConversationRepo) ListByParticipant(ctx context.Context, participantID common.UUID) ([]conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]conversation.Conversation, 0)
	for _, c := range r.byID {
		if c.HasParticipant(participantID) {
			out = append(out, *cloneConversation(c))
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) Touch(ctx context.Context, id common.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID[id]
	if c == nil {
		return common.NewError(common.CodeNotFound, "conversation not found", nil)
	}
	c.LastMessageAt = at
	return nil
}

func (r *fakeConversationRepo) RecordMessage(ctx context.Context, id common.UUID, senderID, preview string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID[id]
	if c == nil {
		return common.NewError(common.CodeNotFound, "conversation not found", nil)
	}
	c.LastMessage = preview
	c.LastMessageAt = at
	for participant := range c.Unread {
		if participant.String() != senderID {
			c.Unread[participant]++
		}
	}
	return nil
}

func (r *fakeConversationRepo) MarkRead(ctx context.Context, id common.UUID, participantID common.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byID[id]
	if c == nil {
		return common.NewError(common.CodeNotFound, "conversation not found", nil)
	}
	c.Unread[participantID] = 0
	return nil
}

func cloneConversation(c *conversation.Conversation) *conversation.Conversation {
	copy := *c
	copy.Unread = make(map[common.UUID]int, len(c.Unread))
	for participant, count := range c.Unread {
		copy.Unread[participant] = count
	}
	return &copy
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []conversation.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m conversation.Message) (*conversation.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = common.NewUUID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.messages = append(r.messages, m)
	copy := m
	return &copy, nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID common.UUID, limit, offset int) ([]conversation.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]conversation.Message, 0)
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if offset >= len(out) {
		return []conversation.Message{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items []notification.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n notification.Notification) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = common.NewUUID()
	}
	n.CreatedAt = time.Now().UTC()
	r.items = append(r.items, n)
	copy := n
	return &copy, nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID common.UUID, limit, offset int) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Notification, 0)
	for _, n := range r.items {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, recipientID common.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.items {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, recipientID common.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].RecipientID == recipientID {
			r.items[i].Read = true
			return nil
		}
	}
	return common.NewError(common.CodeNotFound, "notification not found", nil)
}

func (r *fakeNotificationRepo) byKind(kind notification.Kind) []notification.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Notification, 0)
	for _, n := range r.items {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type fakeDirectory struct {
	mu         sync.Mutex
	principals map[common.UUID]*principal.Principal
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{principals: make(map[common.UUID]*principal.Principal)}
}

func (d *fakeDirectory) add(p principal.Principal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.principals[p.ID] = &p
}

func (d *fakeDirectory) GetPrincipal(ctx context.Context, id common.UUID) (*principal.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.principals[id]
	if p == nil {
		return nil, common.NewError(common.CodeNotFound, "principal not found", nil)
	}
	copy := *p
	return &copy, nil
}

type sentMail struct {
	to       string
	template string
	params   map[string]string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(to, template string, params map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, template: template, params: params})
	return nil
}
