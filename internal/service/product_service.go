package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bot-dashboard/internal/domain"
	"bot-dashboard/internal/repository"

	"github.com/google/uuid"
)

const (
	MaxNameLength     = 255
	MaxUsernameLength = 255
	MaxLinkLength     = 500
)

// Clock returns the current instant
type Clock func() time.Time

// CreateProductInput carries the fields accepted when a product is sold.
// A nil ContractStartDate means now; a nil ContractEndDate means derived.
type CreateProductInput struct {
	Name              string
	Description       *string
	BotUsername       *string
	WebsiteLink       *string
	ContractMonths    int
	ContractStartDate *time.Time
	ContractEndDate   *time.Time
	CustomerTelegram  *string
	CustomerLink      *string
}

// UpdateProductInput is a partial update; nil fields are left untouched
type UpdateProductInput struct {
	Name             *string
	Description      *string
	BotUsername      *string
	WebsiteLink      *string
	ContractMonths   *int
	CustomerTelegram *string
	CustomerLink     *string
	IsRenewed        *bool
}

// ProductList is one page of a filtered listing
type ProductList struct {
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
	Products []*domain.Product `json:"products"`
}

// ProductService defines the interface for product lifecycle operations
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter, page repository.Pagination) (*ProductList, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	RenewProduct(ctx context.Context, id uuid.UUID, months int) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	RefreshStatuses(ctx context.Context) (int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	now         Clock
}

// NewProductService creates a new instance of ProductService using wall-clock UTC time
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return NewProductServiceWithClock(productRepo, func() time.Time { return time.Now().UTC() })
}

// NewProductServiceWithClock creates a ProductService that reads "now" from clock
func NewProductServiceWithClock(productRepo repository.ProductRepository, clock Clock) ProductService {
	return &productService{
		productRepo: productRepo,
		now:         clock,
	}
}

func validateMonths(field string, months int) error {
	if !domain.ValidContractMonths(months) {
		return newValidationError(field, "must be between %d and %d", domain.MinContractMonths, domain.MaxContractMonths)
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return newValidationError("name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return newValidationError("name", "must be at most %d characters", MaxNameLength)
	}
	return nil
}

func validateOptionalFields(botUsername, websiteLink, customerTelegram, customerLink *string) error {
	if err := checkLength("bot_username", botUsername, MaxUsernameLength); err != nil {
		return err
	}
	if err := checkLength("website_link", websiteLink, MaxLinkLength); err != nil {
		return err
	}
	if err := checkLength("customer_telegram", customerTelegram, MaxUsernameLength); err != nil {
		return err
	}
	return checkLength("customer_link", customerLink, MaxLinkLength)
}

// CreateProduct validates the input, derives the contract window and persists the product
func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	if err := validateMonths("contract_months", input.ContractMonths); err != nil {
		return nil, err
	}
	if err := validateOptionalFields(input.BotUsername, input.WebsiteLink, input.CustomerTelegram, input.CustomerLink); err != nil {
		return nil, err
	}

	now := s.now()

	start := now
	if input.ContractStartDate != nil {
		start = input.ContractStartDate.UTC()
	}

	end := domain.DeriveEndDate(start, input.ContractMonths)
	if input.ContractEndDate != nil {
		end = input.ContractEndDate.UTC()
		if end.Before(start) {
			return nil, newValidationError("contract_end_date", "must not be before contract_start_date")
		}
	}

	product := &domain.Product{
		ID:                uuid.New(),
		Name:              input.Name,
		Description:       input.Description,
		BotUsername:       input.BotUsername,
		WebsiteLink:       input.WebsiteLink,
		ContractMonths:    input.ContractMonths,
		ContractStartDate: start,
		ContractEndDate:   end,
		CustomerTelegram:  input.CustomerTelegram,
		CustomerLink:      input.CustomerLink,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	product.RefreshStatus(now)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// GetProduct returns a product or repository.ErrProductNotFound
func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// The stored status may predate the last refresh sweep
	product.RefreshStatus(s.now())
	return product, nil
}

// ListProducts returns one page of products plus the total matching the filter
func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter, page repository.Pagination) (*ProductList, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newValidationError("status", "must be one of Active, Expired, ExpiringSoon")
	}

	page = page.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	products, total, err := s.productRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}

	return &ProductList{
		Total:    total,
		Page:     page.Page,
		PerPage:  page.PerPage,
		Products: products,
	}, nil
}

// UpdateProduct merges the supplied fields. A months change re-derives the end
// date from the existing start date.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	if input.Name != nil {
		if err := validateName(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.ContractMonths != nil {
		if err := validateMonths("contract_months", *input.ContractMonths); err != nil {
			return nil, err
		}
	}
	if err := validateOptionalFields(input.BotUsername, input.WebsiteLink, input.CustomerTelegram, input.CustomerLink); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ContractMonths != nil {
		product.ContractMonths = *input.ContractMonths
		product.ContractEndDate = domain.DeriveEndDate(product.ContractStartDate, product.ContractMonths)
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.BotUsername != nil {
		product.BotUsername = input.BotUsername
	}
	if input.WebsiteLink != nil {
		product.WebsiteLink = input.WebsiteLink
	}
	if input.CustomerTelegram != nil {
		product.CustomerTelegram = input.CustomerTelegram
	}
	if input.CustomerLink != nil {
		product.CustomerLink = input.CustomerLink
	}
	if input.IsRenewed != nil {
		product.IsRenewed = *input.IsRenewed
	}

	return s.save(ctx, product)
}

// RenewProduct extends the contract from the later of its end date and now
func (s *productService) RenewProduct(ctx context.Context, id uuid.UUID, months int) (*domain.Product, error) {
	if err := validateMonths("months", months); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	base := product.ContractEndDate
	if now := s.now(); now.After(base) {
		base = now
	}

	product.ContractEndDate = domain.DeriveEndDate(base, months)
	product.IsRenewed = true

	return s.save(ctx, product)
}

// save recomputes status, bumps updated_at and writes the product back
func (s *productService) save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	now := s.now()
	product.RefreshStatus(now)
	product.UpdatedAt = now

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct hard-deletes a product
func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return repository.ErrProductNotFound
	}
	return nil
}

// RefreshStatuses rewrites stored statuses that drifted as time passed
func (s *productService) RefreshStatuses(ctx context.Context) (int64, error) {
	changed, err := s.productRepo.RefreshStatuses(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to refresh statuses: %w", err)
	}
	return changed, nil
}
