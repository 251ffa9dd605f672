package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"bridge_backend/internal/auth/repository"
	"bridge_backend/internal/auth/verifier"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/events"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

type fakeRepo struct {
	usersBySubject map[string]repository.User
	rolesByUser    map[uuid.UUID][]string

	createCalls   int
	touchCalls    int
	setRolesCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		usersBySubject: make(map[string]repository.User),
		rolesByUser:    make(map[uuid.UUID][]string),
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, params repository.CreateUserParams) (repository.User, error) {
	f.createCalls++
	if _, exists := f.usersBySubject[params.Subject]; exists {
		return repository.User{}, apperr.Conflict("user already exists")
	}
	user := repository.User{
		ID:          uuid.New(),
		Subject:     params.Subject,
		Email:       params.Email,
		DisplayName: params.DisplayName,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.usersBySubject[params.Subject] = user
	if params.InitialRole != "" {
		f.rolesByUser[user.ID] = []string{params.InitialRole}
	}
	return user, nil
}

func (f *fakeRepo) GetUserBySubject(_ context.Context, subject string) (repository.User, error) {
	user, ok := f.usersBySubject[subject]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, userID uuid.UUID) (repository.User, error) {
	for _, u := range f.usersBySubject {
		if u.ID == userID {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) GetUsersByIDs(_ context.Context, userIDs []uuid.UUID) ([]repository.User, error) {
	var out []repository.User
	for _, id := range userIDs {
		for _, u := range f.usersBySubject {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) GrantRole(_ context.Context, userID uuid.UUID, role string) error {
	for _, existing := range f.rolesByUser[userID] {
		if existing == role {
			return nil
		}
	}
	f.rolesByUser[userID] = append(f.rolesByUser[userID], role)
	return nil
}

func (f *fakeRepo) TouchLastSeen(_ context.Context, userID uuid.UUID) error {
	f.touchCalls++
	for subject, u := range f.usersBySubject {
		if u.ID == userID {
			now := time.Now()
			u.LastSeenAt = &now
			f.usersBySubject[subject] = u
		}
	}
	return nil
}

func (f *fakeRepo) UpdateProfile(_ context.Context, params repository.UpdateProfileParams) (repository.User, error) {
	for subject, u := range f.usersBySubject {
		if u.ID == params.UserID {
			if params.Email != nil {
				u.Email = *params.Email
			}
			if params.DisplayName != nil {
				u.DisplayName = *params.DisplayName
			}
			f.usersBySubject[subject] = u
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) SetActive(_ context.Context, userID uuid.UUID, active bool) error {
	for subject, u := range f.usersBySubject {
		if u.ID == userID {
			u.IsActive = active
			f.usersBySubject[subject] = u
			return nil
		}
	}
	return apperr.NotFound("user not found")
}

func (f *fakeRepo) ListUsers(_ context.Context, _ repository.ListUsersParams) ([]repository.UserWithRoles, int, error) {
	var out []repository.UserWithRoles
	for _, u := range f.usersBySubject {
		out = append(out, repository.UserWithRoles{User: u, Roles: f.rolesByUser[u.ID]})
	}
	return out, len(out), nil
}

func (f *fakeRepo) GetUserRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	return f.rolesByUser[userID], nil
}

func (f *fakeRepo) SetUserRoles(_ context.Context, userID uuid.UUID, roles []string) error {
	f.setRolesCalls++
	f.rolesByUser[userID] = roles
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

type fakeAgentLookup struct {
	agentID *uuid.UUID
}

func (f fakeAgentLookup) AgentIDForUser(context.Context, uuid.UUID) (*uuid.UUID, error) {
	return f.agentID, nil
}

func newTestService(repo repository.Repository, bus events.Bus) *Service {
	return New(repo, bus, logger.New("development"))
}

func TestEnsureUserProvisionsFirstSeenSubject(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	ident := verifier.ExternalIdentity{Subject: "provider|777", Email: "new@example.com", Name: "New User"}
	user, err := svc.EnsureUser(context.Background(), ident)
	if err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected one create call, got %d", repo.createCalls)
	}
	if len(user.Roles) != 1 || user.Roles[0] != authz.RoleNewUser {
		t.Fatalf("expected fresh account to hold only the %s role, got %v", authz.RoleNewUser, user.Roles)
	}
	if len(bus.published) != 1 || bus.published[0].EventName() != "auth.user.provisioned" {
		t.Fatalf("expected a provisioned event, got %v", bus.published)
	}
}

func TestEnsureUserReusesExistingAccount(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	ident := verifier.ExternalIdentity{Subject: "provider|777", Email: "new@example.com"}
	first, err := svc.EnsureUser(context.Background(), ident)
	if err != nil {
		t.Fatalf("first EnsureUser returned error: %v", err)
	}
	second, err := svc.EnsureUser(context.Background(), ident)
	if err != nil {
		t.Fatalf("second EnsureUser returned error: %v", err)
	}

	if repo.createCalls != 1 {
		t.Fatalf("expected the second request to reuse the account, got %d create calls", repo.createCalls)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same account on both requests, got %s and %s", first.ID, second.ID)
	}
}

func TestEnsureUserRejectsDeactivatedAccount(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	seeded, _ := repo.CreateUser(context.Background(), repository.CreateUserParams{Subject: "provider|off"})
	if err := repo.SetActive(context.Background(), seeded.ID, false); err != nil {
		t.Fatalf("seed deactivation failed: %v", err)
	}

	_, err := svc.EnsureUser(context.Background(), verifier.ExternalIdentity{Subject: "provider|off"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error for deactivated account, got %v", err)
	}
}

func TestEnsureUserThrottlesLastSeenWrites(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	recent := time.Now().Add(-time.Minute)
	_, _ = repo.CreateUser(context.Background(), repository.CreateUserParams{Subject: "provider|seen"})
	u := repo.usersBySubject["provider|seen"]
	u.LastSeenAt = &recent
	repo.usersBySubject["provider|seen"] = u

	if _, err := svc.EnsureUser(context.Background(), verifier.ExternalIdentity{Subject: "provider|seen"}); err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if repo.touchCalls != 0 {
		t.Fatalf("expected recent activity to skip the last-seen write, got %d", repo.touchCalls)
	}

	stale := time.Now().Add(-10 * time.Minute)
	u = repo.usersBySubject["provider|seen"]
	u.LastSeenAt = &stale
	repo.usersBySubject["provider|seen"] = u

	if _, err := svc.EnsureUser(context.Background(), verifier.ExternalIdentity{Subject: "provider|seen"}); err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if repo.touchCalls != 1 {
		t.Fatalf("expected stale activity to write last-seen once, got %d", repo.touchCalls)
	}
}

func TestEnsureUserAttachesAgentScope(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	agentID := uuid.New()
	svc.SetAgentLookup(fakeAgentLookup{agentID: &agentID})

	user, err := svc.EnsureUser(context.Background(), verifier.ExternalIdentity{Subject: "provider|agent"})
	if err != nil {
		t.Fatalf("EnsureUser returned error: %v", err)
	}
	if user.AgentID == nil || *user.AgentID != agentID {
		t.Fatalf("expected agent scope %s, got %v", agentID, user.AgentID)
	}
}

func TestSetUserRolesRejectsUnknownRole(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	seeded, _ := repo.CreateUser(context.Background(), repository.CreateUserParams{Subject: "provider|roles"})

	err := svc.SetUserRoles(context.Background(), seeded.ID, []string{"superuser"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
	if repo.setRolesCalls != 0 {
		t.Fatalf("expected no role write after validation failure, got %d", repo.setRolesCalls)
	}

	if err := svc.SetUserRoles(context.Background(), seeded.ID, []string{authz.RoleAgent}); err != nil {
		t.Fatalf("expected known role to be accepted, got %v", err)
	}
}
