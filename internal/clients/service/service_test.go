package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"bridge_backend/internal/clients/repository"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

// fakeClientRepo keeps a searchable index plus a log of creations. With
// indexOnCreate false, created rows are invisible to later lookups, which
// mimics two resolutions racing past each other's insert.
type fakeClientRepo struct {
	clients       []repository.Client
	created       []repository.Client
	indexOnCreate bool
}

func (f *fakeClientRepo) FindByPhone(_ context.Context, _ repository.DBTX, phone string) (repository.Client, error) {
	for _, c := range f.clients {
		if c.Phone == phone {
			return c, nil
		}
	}
	return repository.Client{}, apperr.NotFound("client not found")
}

func (f *fakeClientRepo) FindByEmail(_ context.Context, _ repository.DBTX, email string) (repository.Client, error) {
	for _, c := range f.clients {
		if c.Email == email {
			return c, nil
		}
	}
	return repository.Client{}, apperr.NotFound("client not found")
}

func (f *fakeClientRepo) Create(_ context.Context, _ repository.DBTX, params repository.CreateClientParams) (repository.Client, error) {
	client := repository.Client{
		ID:    uuid.New(),
		Name:  params.Name,
		Phone: params.Phone,
		Email: params.Email,
	}
	f.created = append(f.created, client)
	if f.indexOnCreate {
		f.clients = append(f.clients, client)
	}
	return client, nil
}

func (f *fakeClientRepo) GetByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (repository.Client, error) {
	for _, c := range f.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.Client{}, apperr.NotFound("client not found")
}

func (f *fakeClientRepo) seed(name, phone, email string) repository.Client {
	client := repository.Client{ID: uuid.New(), Name: name, Phone: phone, Email: email}
	f.clients = append(f.clients, client)
	return client
}

func newTestService(repo *fakeClientRepo) *Service {
	return New(repo, logger.New("development"))
}

func TestResolvePrefersPhoneMatch(t *testing.T) {
	repo := &fakeClientRepo{indexOnCreate: true}
	byPhone := repo.seed("Asha", "+91-9999999999", "asha@old.example")
	repo.seed("Someone Else", "", "asha@new.example")
	svc := newTestService(repo)

	client, err := svc.Resolve(context.Background(), nil, ResolveParams{
		Name:  "Asha Updated",
		Phone: "+91-9999999999",
		Email: "asha@new.example",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if client.ID != byPhone.ID {
		t.Fatalf("expected phone-matched client %s, got %s", byPhone.ID, client.ID)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no new client, created %d", len(repo.created))
	}
}

func TestResolveFallsBackToEmail(t *testing.T) {
	repo := &fakeClientRepo{indexOnCreate: true}
	byEmail := repo.seed("Ravi", "+91-8888888888", "ravi@example.com")
	svc := newTestService(repo)

	client, err := svc.Resolve(context.Background(), nil, ResolveParams{
		Name:  "Ravi K",
		Phone: "+91-7777777777",
		Email: "ravi@example.com",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if client.ID != byEmail.ID {
		t.Fatalf("expected email-matched client %s, got %s", byEmail.ID, client.ID)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no new client, created %d", len(repo.created))
	}
}

func TestResolveCreatesWhenNoMatch(t *testing.T) {
	repo := &fakeClientRepo{indexOnCreate: true}
	svc := newTestService(repo)

	client, err := svc.Resolve(context.Background(), nil, ResolveParams{
		Name:  "Meera",
		Phone: "+91-6666666666",
		Email: "meera@example.com",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one creation, got %d", len(repo.created))
	}
	if client.Name != "Meera" || client.Phone != "+91-6666666666" || client.Email != "meera@example.com" {
		t.Fatalf("created client does not carry submitted fields verbatim: %+v", client)
	}
}

func TestResolveDoesNotNormalizePhone(t *testing.T) {
	repo := &fakeClientRepo{indexOnCreate: true}
	formatted := repo.seed("Asha", "+91-9999999999", "")
	svc := newTestService(repo)

	client, err := svc.Resolve(context.Background(), nil, ResolveParams{
		Name:  "Asha",
		Phone: "9999999999",
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if client.ID == formatted.ID {
		t.Fatal("differently formatted phone must not match an existing client")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected a second client, created %d", len(repo.created))
	}
}

func TestResolveSkipsEmptyContactFields(t *testing.T) {
	repo := &fakeClientRepo{indexOnCreate: true}
	repo.seed("Empty Phone", "", "")
	svc := newTestService(repo)

	client, err := svc.Resolve(context.Background(), nil, ResolveParams{Name: "Walk-in"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	// An empty phone or email never counts as a match, even against rows
	// that also have empty fields.
	if len(repo.created) != 1 {
		t.Fatalf("expected a fresh client, created %d", len(repo.created))
	}
	if client.Name != "Walk-in" {
		t.Fatalf("unexpected client: %+v", client)
	}
}

func TestResolveDuplicatesWhenLookupsRace(t *testing.T) {
	repo := &fakeClientRepo{indexOnCreate: false}
	svc := newTestService(repo)

	first, err := svc.Resolve(context.Background(), nil, ResolveParams{Name: "Dup", Phone: "+91-5555555555"})
	if err != nil {
		t.Fatalf("first Resolve returned error: %v", err)
	}
	second, err := svc.Resolve(context.Background(), nil, ResolveParams{Name: "Dup", Phone: "+91-5555555555"})
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("expected two distinct clients when inserts race")
	}
	if len(repo.created) != 2 {
		t.Fatalf("expected both submissions to create a client, created %d", len(repo.created))
	}
}
