package api_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lalith-99/supportchat/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// In-memory repositories. Each test seeds exactly what it needs; err, when
// set, fails every call.

type fakeUserRepo struct {
	order []string
	users map[string]*models.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) seed(username, passwordHash string, role models.Role) {
	f.order = append(f.order, username)
	f.users[username] = &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, username, passwordHash string, role models.Role) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.seed(username, passwordHash, role)
	return f.users[username], nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[username], nil
}

func (f *fakeUserRepo) ListUsernamesByRole(ctx context.Context, role models.Role) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	usernames := make([]string, 0)
	for _, username := range f.order {
		if f.users[username].Role == role {
			usernames = append(usernames, username)
		}
	}
	return usernames, nil
}

type fakeMessageRepo struct {
	all []models.Message
	err error
}

func (f *fakeMessageRepo) Create(ctx context.Context, sender, receiver, body string) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	msg := models.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		Timestamp: time.Now(),
	}
	f.all = append(f.all, msg)
	return &msg, nil
}

func (f *fakeMessageRepo) ListInvolving(ctx context.Context, username string) ([]models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	messages := make([]models.Message, 0)
	for _, msg := range f.all {
		if msg.Sender == username || msg.Receiver == username {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (f *fakeMessageRepo) ListAll(ctx context.Context) ([]models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Message, len(f.all))
	copy(out, f.all)
	return out, nil
}
