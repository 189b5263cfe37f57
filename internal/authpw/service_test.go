package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"civiclink/api/internal/store"
)

type fakeUserStore struct {
	users map[string]store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]store.User)}
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	user, ok := f.users[email]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user store.User) (store.User, error) {
	if _, ok := f.users[user.Email]; ok {
		return store.User{}, store.ErrDuplicate
	}
	f.users[user.Email] = user
	return user, nil
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpRequest{
		Email:       "ada@example.com",
		Password:    "correct-horse",
		DisplayName: "Ada",
		Location:    "Springfield",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Role != "citizen" {
		t.Errorf("self-registered accounts must start as citizen, got %s", user.Role)
	}
	if user.ID == "" {
		t.Error("expected generated user ID")
	}

	signed, err := svc.SignIn(ctx, "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signed.ID != user.ID {
		t.Errorf("expected same user back, got %s", signed.ID)
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	_, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "bo@example.com",
		Password:    "short",
		DisplayName: "Bo",
	})
	if err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	req := SignUpRequest{Email: "dup@example.com", Password: "long-enough", DisplayName: "Dup"}
	if _, err := svc.SignUp(ctx, req); err != nil {
		t.Fatalf("first SignUp failed: %v", err)
	}
	if _, err := svc.SignUp(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "eve@example.com", Password: "long-enough", DisplayName: "Eve"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, "eve@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	svc := NewService(newFakeUserStore())
	if _, err := svc.SignIn(context.Background(), "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
