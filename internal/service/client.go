package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mostaks/kwr-dashboard-server/internal/auth"
	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/errors"
	"github.com/mostaks/kwr-dashboard-server/internal/id"
	"github.com/mostaks/kwr-dashboard-server/internal/store"
	"github.com/mostaks/kwr-dashboard-server/internal/util"
)

// ClientService manages tenants and their access checks.
type ClientService struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewClientService creates a new client service.
func NewClientService(st *store.Store, logger *slog.Logger) *ClientService {
	return &ClientService{store: st, logger: logger, now: time.Now}
}

// ClientInput is the create/update request body for a client.
type ClientInput struct {
	Name        string `json:"name" validate:"required"`
	Suffix      string `json:"suffix" validate:"required"`
	Password    string `json:"password"`
	LogoURL     string `json:"logoUrl"`
	WebsiteURL  string `json:"websiteUrl"`
	Description string `json:"description"`
}

// ClientSummary is a client plus how many dashboards it owns.
type ClientSummary struct {
	domain.Client
	DashboardCount int `json:"dashboardCount"`
}

// Create creates a new client. Suffixes are unique across clients since
// they address dashboards in URLs.
func (s *ClientService) Create(ctx context.Context, input ClientInput) (*domain.Client, error) {
	name := util.CleanName(input.Name)
	if name == "" || util.CleanName(input.Suffix) == "" {
		return nil, errors.Validation("client name and suffix are required")
	}

	_, err := s.store.Clients.GetByIndex(ctx, "suffix", input.Suffix)
	if err == nil {
		return nil, errors.Conflict("a client with this suffix already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, errors.CodeInternal, "look up client suffix")
	}

	now := s.now()
	client := &domain.Client{
		ID:          id.MustGenerate(id.PrefixClient),
		Name:        name,
		Suffix:      input.Suffix,
		LogoURL:     input.LogoURL,
		WebsiteURL:  input.WebsiteURL,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "hash password")
		}
		client.PasswordHash = hash
	}

	batch := s.store.NewBatch()
	if err := s.store.Clients.Stage(batch, client, nil); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "stage client")
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "commit client create")
	}

	s.logger.Info("client created", "client_id", client.ID, "suffix", client.Suffix)
	return client, nil
}

// Get returns one client by id.
func (s *ClientService) Get(ctx context.Context, clientID string) (*domain.Client, error) {
	client, err := s.store.Clients.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("client %s not found", clientID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "load client")
	}
	return client, nil
}

// GetBySuffix returns one client by its url suffix.
func (s *ClientService) GetBySuffix(ctx context.Context, suffix string) (*domain.Client, error) {
	client, err := s.store.Clients.GetByIndex(ctx, "suffix", suffix)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrEmptyIndexValue) {
			return nil, errors.NotFound("client not found")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "load client")
	}
	return client, nil
}

// List returns all clients with their dashboard counts.
func (s *ClientService) List(ctx context.Context) ([]ClientSummary, error) {
	counts := make(map[string]int)
	for dash, err := range s.store.Dashboards.List(ctx) {
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "list dashboards")
		}
		counts[dash.ClientID]++
	}

	summaries := []ClientSummary{}
	for client, err := range s.store.Clients.List(ctx) {
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "list clients")
		}
		summaries = append(summaries, ClientSummary{
			Client:         *client,
			DashboardCount: counts[client.ID],
		})
	}
	return summaries, nil
}

// ClientPatch is a partial client update; nil fields are untouched.
type ClientPatch struct {
	Name        *string `json:"name"`
	Suffix      *string `json:"suffix"`
	Password    *string `json:"password"`
	LogoURL     *string `json:"logoUrl"`
	WebsiteURL  *string `json:"websiteUrl"`
	Description *string `json:"description"`
}

// Update applies a partial update to a client.
func (s *ClientService) Update(ctx context.Context, clientID string, patch ClientPatch) (*domain.Client, error) {
	prev, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	client := *prev
	if patch.Name != nil {
		client.Name = util.CleanName(*patch.Name)
	}
	if patch.Suffix != nil && *patch.Suffix != prev.Suffix {
		if _, err := s.store.Clients.GetByIndex(ctx, "suffix", *patch.Suffix); err == nil {
			return nil, errors.Conflict("a client with this suffix already exists")
		} else if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrEmptyIndexValue) {
			return nil, errors.Wrap(err, errors.CodeInternal, "look up client suffix")
		}
		client.Suffix = *patch.Suffix
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			client.PasswordHash = ""
		} else {
			hash, err := auth.HashPassword(*patch.Password)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInternal, "hash password")
			}
			client.PasswordHash = hash
		}
	}
	if patch.LogoURL != nil {
		client.LogoURL = *patch.LogoURL
	}
	if patch.WebsiteURL != nil {
		client.WebsiteURL = *patch.WebsiteURL
	}
	if patch.Description != nil {
		client.Description = *patch.Description
	}
	client.UpdatedAt = s.now()

	batch := s.store.NewBatch()
	if err := s.store.Clients.Stage(batch, &client, prev); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "stage client")
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "commit client update")
	}
	return &client, nil
}

// Delete removes a client and its dashboards. Pool entities referenced by
// the deleted dashboards stay; other clients' dashboards may share them.
func (s *ClientService) Delete(ctx context.Context, clientID string) error {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return err
	}

	batch := s.store.NewBatch()
	for dash, err := range s.store.Dashboards.List(ctx) {
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "list dashboards")
		}
		if dash.ClientID == clientID {
			s.store.Dashboards.StageDelete(batch, dash)
		}
	}
	s.store.Clients.StageDelete(batch, client)

	if err := batch.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "commit client delete")
	}

	s.logger.Info("client deleted", "client_id", clientID)
	return nil
}

// VerifyAccess checks a password against the client's stored hash. Clients
// without a password are open; any supplied password passes.
func (s *ClientService) VerifyAccess(ctx context.Context, clientID, password string) error {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return err
	}
	if client.PasswordHash == "" {
		return nil
	}
	if !auth.VerifyPassword(client.PasswordHash, password) {
		return errors.InvalidCredentials("incorrect password")
	}
	return nil
}
