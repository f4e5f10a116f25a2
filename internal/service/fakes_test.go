package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/chatconnect/internal/apperror"
	"github.com/sakif/chatconnect/internal/model"
)

// fakeUserRepo is an in-memory repository.UserRepository. It enforces the
// same uniqueness rules as the sqlite store so conflict paths can be
// exercised without a database.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) newID() string {
	r.nextID++
	return fmt.Sprintf("user-%d", r.nextID)
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return apperror.Conflict("duplicate user")
		}
	}
	user.ID = r.newID()
	now := time.Now()
	user.CreatedOn = now
	user.UpdatedAt = now
	user.Verification = false
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperror.NotFound("user not found")
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, email, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok || u.Email != email {
		return nil, apperror.NotFound("user not found")
	}
	u.Verification = true
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, email, passwordHash string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			u.Password = passwordHash
			u.UpdatedAt = time.Now()
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user not found")
}

func (r *fakeUserRepo) DeleteByEmail(_ context.Context, email string) error {
	for id, u := range r.users {
		if u.Email == email {
			delete(r.users, id)
			return nil
		}
	}
	return apperror.NotFound("user not found")
}

func (r *fakeUserRepo) UpsertGitHub(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.GitHubID == user.GitHubID {
			u.Email = user.Email
			u.FirstName = user.FirstName
			u.LastName = user.LastName
			u.UpdatedAt = time.Now()
			*user = *u
			return nil
		}
	}
	user.ID = r.newID()
	now := time.Now()
	user.CreatedOn = now
	user.UpdatedAt = now
	user.Verification = true
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetAccountByUserID(_ context.Context, userID string) (*model.Account, error) {
	if _, ok := r.users[userID]; !ok {
		return nil, apperror.NotFound("account not found")
	}
	return &model.Account{UserID: userID}, nil
}

// fakeConversationRepo is an in-memory repository.ConversationRepository.
type fakeConversationRepo struct {
	convs   map[string]*model.Conversation
	members map[string]bool // "userID/conversationID"
	nextID  int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:   make(map[string]*model.Conversation),
		members: make(map[string]bool),
	}
}

func (r *fakeConversationRepo) Create(_ context.Context, conv *model.Conversation) error {
	r.nextID++
	conv.ID = fmt.Sprintf("conv-%d", r.nextID)
	conv.CreatedOn = time.Now()
	cp := *conv
	r.convs[conv.ID] = &cp
	return nil
}

func (r *fakeConversationRepo) List(_ context.Context) ([]model.Conversation, error) {
	out := make([]model.Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id string) (*model.Conversation, error) {
	if c, ok := r.convs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperror.NotFound("conversation not found")
}

func (r *fakeConversationRepo) Update(_ context.Context, conv *model.Conversation) error {
	c, ok := r.convs[conv.ID]
	if !ok {
		return apperror.NotFound("conversation not found")
	}
	c.Name = conv.Name
	return nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.convs[id]; !ok {
		return apperror.NotFound("conversation not found")
	}
	delete(r.convs, id)
	return nil
}

func (r *fakeConversationRepo) AddMember(_ context.Context, m *model.UserConversation) error {
	key := m.UserID + "/" + m.ConversationID
	if r.members[key] {
		return apperror.Conflict("user is already a member of this conversation")
	}
	r.members[key] = true
	r.nextID++
	m.ID = fmt.Sprintf("member-%d", r.nextID)
	m.CreatedOn = time.Now()
	return nil
}

// fakeMessageRepo is an in-memory repository.MessageRepository.
type fakeMessageRepo struct {
	msgs   []model.Message
	nextID int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *model.Message) error {
	r.nextID++
	msg.ID = fmt.Sprintf("msg-%d", r.nextID)
	msg.Timestamp = time.Now()
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeMailer records outbound mail instead of dialing SMTP.
type fakeMailer struct {
	sent []sentMail
	err  error // returned from Send when non-nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}
