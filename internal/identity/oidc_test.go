package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memStateStore struct {
	mu     sync.Mutex
	states map[string]LoginState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: make(map[string]LoginState)}
}

func (s *memStateStore) Put(ctx context.Context, state LoginState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ID] = state
	return nil
}

func (s *memStateStore) Take(ctx context.Context, id string) (LoginState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[id]
	if !ok {
		return LoginState{}, errors.New("not found")
	}
	delete(s.states, id)
	return state, nil
}

type fakeIdpRepo struct {
	idps  map[string]Idp
	links []linkCall
}

type linkCall struct {
	userID  uuid.UUID
	idpName string
	subject string
}

func (f *fakeIdpRepo) IdpByName(ctx context.Context, name string) (Idp, error) {
	idp, ok := f.idps[name]
	if !ok {
		return Idp{}, errors.New("not found")
	}
	return idp, nil
}

func (f *fakeIdpRepo) EnabledIdps(ctx context.Context) ([]Idp, error) {
	var out []Idp
	for _, idp := range f.idps {
		if idp.Enabled {
			out = append(out, idp)
		}
	}
	return out, nil
}

func (f *fakeIdpRepo) LinkUserToIdp(ctx context.Context, userID uuid.UUID, idpName, subject string) error {
	f.links = append(f.links, linkCall{userID: userID, idpName: idpName, subject: subject})
	return nil
}

func TestBeginLoginBuildsAuthzURLAndStoresState(t *testing.T) {
	repo := &fakeIdpRepo{idps: map[string]Idp{
		"example": {Name: "example", Enabled: true, ClientID: "client-1", OIDCConfigURL: "https://idp.example"},
	}}
	store := newMemStateStore()
	r := NewRedirector(repo, store, 15*time.Minute)

	authzURL, stateID, err := r.BeginLogin(context.Background(), "example", "https://bbs.example/callback")
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}
	if authzURL == "" || stateID == "" {
		t.Fatalf("BeginLogin() returned empty authzURL/stateID")
	}

	resolved, err := r.ResolveCallback(context.Background(), stateID)
	if err != nil {
		t.Fatalf("ResolveCallback() error = %v", err)
	}
	if resolved.IdpName != "example" || resolved.Nonce == "" || resolved.CodeVerifier == "" {
		t.Fatalf("ResolveCallback() = %+v, want populated nonce/verifier", resolved)
	}
}

func TestBeginLoginRejectsUnknownIdp(t *testing.T) {
	r := NewRedirector(&fakeIdpRepo{idps: map[string]Idp{}}, newMemStateStore(), time.Minute)

	_, _, err := r.BeginLogin(context.Background(), "ghost", "https://bbs.example/callback")
	if !errors.Is(err, ErrIdpNotFound) {
		t.Fatalf("BeginLogin() error = %v, want ErrIdpNotFound", err)
	}
}

func TestBeginLoginRejectsDisabledIdp(t *testing.T) {
	repo := &fakeIdpRepo{idps: map[string]Idp{
		"example": {Name: "example", Enabled: false},
	}}
	r := NewRedirector(repo, newMemStateStore(), time.Minute)

	_, _, err := r.BeginLogin(context.Background(), "example", "https://bbs.example/callback")
	if !errors.Is(err, ErrIdpDisabled) {
		t.Fatalf("BeginLogin() error = %v, want ErrIdpDisabled", err)
	}
}

func TestResolveCallbackConsumesStateOnce(t *testing.T) {
	repo := &fakeIdpRepo{idps: map[string]Idp{
		"example": {Name: "example", Enabled: true, OIDCConfigURL: "https://idp.example"},
	}}
	store := newMemStateStore()
	r := NewRedirector(repo, store, time.Minute)

	_, stateID, _ := r.BeginLogin(context.Background(), "example", "https://bbs.example/callback")
	if _, err := r.ResolveCallback(context.Background(), stateID); err != nil {
		t.Fatalf("first ResolveCallback() error = %v", err)
	}

	if _, err := r.ResolveCallback(context.Background(), stateID); !errors.Is(err, ErrLoginStateExpired) {
		t.Fatalf("second ResolveCallback() error = %v, want ErrLoginStateExpired", err)
	}
}
