package repository

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bot-dashboard/internal/domain"

	"github.com/google/uuid"
)

type memoryProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]domain.Product
}

// NewMemoryProductRepository creates a ProductRepository kept in process memory.
// It follows the same filtering, ordering and not-found rules as the Postgres store.
func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{
		products: make(map[uuid.UUID]domain.Product),
	}
}

func (r *memoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}

	updated := *product
	updated.CreatedAt = existing.CreatedAt
	r.products[product.ID] = updated
	return nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *memoryProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

func (r *memoryProductRepository) List(ctx context.Context, filter ProductFilter, page Pagination) ([]*domain.Product, int, error) {
	page = page.Normalize()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if search != "" && !matchesSearch(&p, search) {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) < 0
	})

	total := len(matched)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.PerPage
	if end > total {
		end = total
	}

	products := make([]*domain.Product, 0, end-start)
	for i := start; i < end; i++ {
		p := matched[i]
		products = append(products, &p)
	}

	return products, total, nil
}

func (r *memoryProductRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.products), nil
}

func (r *memoryProductRepository) CountByStatus(ctx context.Context, status domain.ProductStatus, now time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, p := range r.products {
		if domain.DeriveStatus(p.ContractEndDate, now) == status {
			total++
		}
	}
	return total, nil
}

func (r *memoryProductRepository) CountEndingWithin(ctx context.Context, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, p := range r.products {
		if p.ContractEndDate.After(from) && !p.ContractEndDate.After(to) {
			total++
		}
	}
	return total, nil
}

func (r *memoryProductRepository) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed int64
	for id, p := range r.products {
		status := domain.DeriveStatus(p.ContractEndDate, now)
		if status != p.Status {
			p.Status = status
			r.products[id] = p
			changed++
		}
	}
	return changed, nil
}

func matchesSearch(p *domain.Product, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	for _, field := range []*string{p.Description, p.CustomerTelegram, p.BotUsername} {
		if field != nil && strings.Contains(strings.ToLower(*field), search) {
			return true
		}
	}
	return false
}
