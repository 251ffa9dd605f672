package service

import (
	"context"

	"github.com/google/uuid"

	"bridge_backend/internal/auth/token"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/leads/domain"
	"bridge_backend/internal/leads/repository"
	"bridge_backend/internal/leads/transport"
	"bridge_backend/platform/apperr"
)

// shareTokenBytes yields 32-character share tokens.
const shareTokenBytes = 16

// tokenRetries bounds collision retries on the unique share token.
const tokenRetries = 3

// CreateFormTemplate creates a shareable public form for a product.
func (s *Service) CreateFormTemplate(ctx context.Context, actor authz.Actor, req transport.CreateFormTemplateRequest) (transport.FormTemplateResponse, error) {
	if !s.policy.Can(actor, authz.ActionFormsManage, authz.NoResource()) {
		return transport.FormTemplateResponse{}, apperr.Forbidden("not allowed to manage forms")
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.FormTemplateResponse{}, apperr.Validation("product does not exist")
		}
		return transport.FormTemplateResponse{}, err
	}
	if !product.IsActive {
		return transport.FormTemplateResponse{}, apperr.Validation("product is not active")
	}

	schema, err := marshalFormData(req.Schema)
	if err != nil {
		return transport.FormTemplateResponse{}, err
	}

	var form repository.FormTemplate
	for attempt := 0; ; attempt++ {
		shareToken, err := token.GenerateRandomToken(shareTokenBytes)
		if err != nil {
			return transport.FormTemplateResponse{}, apperr.Wrap(apperr.KindInternal, "generate share token", err)
		}

		form, err = s.repo.CreateFormTemplate(ctx, repository.CreateFormTemplateParams{
			ProductID:   req.ProductID,
			Title:       req.Title,
			Description: req.Description,
			Schema:      schema,
			ShareToken:  shareToken,
			ExpiresAt:   req.ExpiresAt,
			CreatedBy:   &actor.UserID,
		})
		if err == nil {
			break
		}
		if apperr.Is(err, apperr.KindConflict) && attempt < tokenRetries {
			continue
		}
		return transport.FormTemplateResponse{}, err
	}

	s.log.Info("form template created", "form_id", form.ID, "product_id", form.ProductID)
	return s.toFormTemplateResponse(form), nil
}

// GetFormTemplate returns one form template for the admin console.
func (s *Service) GetFormTemplate(ctx context.Context, actor authz.Actor, id uuid.UUID) (transport.FormTemplateResponse, error) {
	if !s.policy.Can(actor, authz.ActionFormsManage, authz.NoResource()) {
		return transport.FormTemplateResponse{}, apperr.Forbidden("not allowed to manage forms")
	}

	form, err := s.repo.GetFormTemplateByID(ctx, id)
	if err != nil {
		return transport.FormTemplateResponse{}, err
	}
	return s.toFormTemplateResponse(form), nil
}

// ListFormTemplates returns a page of form templates.
func (s *Service) ListFormTemplates(ctx context.Context, actor authz.Actor, req transport.ListFormTemplatesRequest) (transport.FormTemplateListResponse, error) {
	if !s.policy.Can(actor, authz.ActionFormsManage, authz.NoResource()) {
		return transport.FormTemplateListResponse{}, apperr.Forbidden("not allowed to manage forms")
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	params := repository.ListFormTemplatesParams{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if req.ProductID != "" {
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			return transport.FormTemplateListResponse{}, apperr.Validation("productId is not a valid UUID")
		}
		params.ProductID = &productID
	}

	forms, total, err := s.repo.ListFormTemplates(ctx, params)
	if err != nil {
		return transport.FormTemplateListResponse{}, err
	}

	items := make([]transport.FormTemplateResponse, 0, len(forms))
	for _, form := range forms {
		items = append(items, s.toFormTemplateResponse(form))
	}
	return transport.FormTemplateListResponse{
		Forms:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// UpdateFormTemplate edits a form template. Deactivating a template
// takes its share link out of circulation immediately.
func (s *Service) UpdateFormTemplate(ctx context.Context, actor authz.Actor, id uuid.UUID, req transport.UpdateFormTemplateRequest) (transport.FormTemplateResponse, error) {
	if !s.policy.Can(actor, authz.ActionFormsManage, authz.NoResource()) {
		return transport.FormTemplateResponse{}, apperr.Forbidden("not allowed to manage forms")
	}

	schema, err := marshalFormData(req.Schema)
	if err != nil {
		return transport.FormTemplateResponse{}, err
	}

	form, err := s.repo.UpdateFormTemplate(ctx, repository.UpdateFormTemplateParams{
		ID:           id,
		Title:        req.Title,
		Description:  req.Description,
		Schema:       schema,
		IsActive:     req.IsActive,
		ExpiresAt:    req.ExpiresAt.Value,
		ExpiresAtSet: req.ExpiresAt.Set,
	})
	if err != nil {
		return transport.FormTemplateResponse{}, err
	}
	return s.toFormTemplateResponse(form), nil
}

// GetPublicForm resolves a share token for an anonymous visitor.
func (s *Service) GetPublicForm(ctx context.Context, shareToken string) (transport.PublicFormResponse, error) {
	form, err := s.publicForm(ctx, shareToken)
	if err != nil {
		return transport.PublicFormResponse{}, err
	}

	product, err := s.catalog.GetProduct(ctx, form.ProductID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.PublicFormResponse{}, apperr.NotFound("form not found")
		}
		return transport.PublicFormResponse{}, err
	}
	if !product.IsActive {
		return transport.PublicFormResponse{}, apperr.NotFound("form not found")
	}

	return transport.PublicFormResponse{
		Title:       form.Title,
		Description: form.Description,
		Schema:      form.Schema,
		ProductName: product.Name,
	}, nil
}

// SubmitPublicForm records an anonymous submission arriving through a
// share link. The lead starts submitted with no agent attached.
func (s *Service) SubmitPublicForm(ctx context.Context, shareToken string, req transport.PublicSubmissionRequest) (transport.PublicSubmissionResponse, error) {
	form, err := s.publicForm(ctx, shareToken)
	if err != nil {
		return transport.PublicSubmissionResponse{}, err
	}

	lead, err := s.createLead(ctx, createLeadParams{
		productID: form.ProductID,
		name:      req.CustomerName,
		phone:     req.CustomerPhone,
		email:     req.CustomerEmail,
		formData:  req.FormData,
		status:    domain.StatusSubmitted,
		source:    domain.SourcePublicShare,
	})
	if err != nil {
		return transport.PublicSubmissionResponse{}, err
	}

	return transport.PublicSubmissionResponse{
		ReferenceNumber: lead.ReferenceNumber,
		Message:         "Thank you. Your application has been received.",
	}, nil
}

// publicForm resolves a share token for the public surface: unknown and
// deactivated links read as absent, expired links as gone.
func (s *Service) publicForm(ctx context.Context, shareToken string) (repository.FormTemplate, error) {
	form, err := s.repo.GetFormTemplateByToken(ctx, shareToken)
	if err != nil {
		return repository.FormTemplate{}, err
	}
	if !form.IsActive {
		return repository.FormTemplate{}, apperr.NotFound("form not found")
	}
	if form.ExpiresAt != nil && s.now().After(*form.ExpiresAt) {
		return repository.FormTemplate{}, apperr.Gone("this form has expired")
	}
	return form, nil
}

func (s *Service) toFormTemplateResponse(form repository.FormTemplate) transport.FormTemplateResponse {
	return transport.FormTemplateResponse{
		ID:          form.ID,
		ProductID:   form.ProductID,
		Title:       form.Title,
		Description: form.Description,
		Schema:      form.Schema,
		ShareToken:  form.ShareToken,
		ShareURL:    s.shareBase + "/forms/" + form.ShareToken,
		IsActive:    form.IsActive,
		ExpiresAt:   form.ExpiresAt,
		CreatedBy:   form.CreatedBy,
		CreatedAt:   form.CreatedAt,
		UpdatedAt:   form.UpdatedAt,
	}
}
