package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bot-dashboard/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// The functions in this file describe the ProductRepository contract once;
// each implementation runs them against a fresh, empty store.

type storeFactory func(t *testing.T) ProductRepository

var contractNow = time.Date(2026, time.June, 15, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newTestProduct(name string, createdAt time.Time) *domain.Product {
	start := createdAt
	end := domain.DeriveEndDate(start, 3)
	return &domain.Product{
		Name:              name,
		ContractMonths:    3,
		ContractStartDate: start,
		ContractEndDate:   end,
		Status:            domain.DeriveStatus(end, contractNow),
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
}

func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("CreateAssignsIDAndRoundTrips", func(t *testing.T) { testCreateRoundTrip(t, newStore(t)) })
	t.Run("FindMissingReturnsNotFound", func(t *testing.T) { testFindMissing(t, newStore(t)) })
	t.Run("UpdateOverwritesFields", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("UpdateMissingReturnsNotFound", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("DeleteReportsExistence", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("PaginationSlicesNewestFirst", func(t *testing.T) { testPagination(t, newStore(t)) })
	t.Run("SearchIsCaseInsensitiveSubstring", func(t *testing.T) { testSearch(t, newStore(t)) })
	t.Run("StatusFilterAndTotal", func(t *testing.T) { testStatusFilter(t, newStore(t)) })
	t.Run("CountersAndWindow", func(t *testing.T) { testCounters(t, newStore(t)) })
	t.Run("CountByStatusIgnoresStaleColumn", func(t *testing.T) { testCountByStatusUsesClock(t, newStore(t)) })
	t.Run("RefreshStatusesRewritesStale", func(t *testing.T) { testRefreshStatuses(t, newStore(t)) })
}

func testCreateRoundTrip(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	product := newTestProduct("Premium Bot", contractNow)
	product.Description = strPtr("Advanced Telegram bot with AI capabilities")
	product.BotUsername = strPtr("premium_ai_bot")
	product.CustomerTelegram = strPtr("@john_doe")

	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if product.ID == uuid.Nil {
		t.Fatal("Create() should assign an ID")
	}

	got, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}

	if got.Name != product.Name || got.ContractMonths != product.ContractMonths || got.Status != product.Status {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, product)
	}
	if !got.ContractEndDate.Equal(product.ContractEndDate) {
		t.Errorf("ContractEndDate = %s, want %s", got.ContractEndDate, product.ContractEndDate)
	}
	if got.Description == nil || *got.Description != *product.Description {
		t.Errorf("Description = %v, want %q", got.Description, *product.Description)
	}
	if got.WebsiteLink != nil {
		t.Errorf("WebsiteLink = %q, want nil", *got.WebsiteLink)
	}
}

func testFindMissing(t *testing.T, repo ProductRepository) {
	if _, err := repo.FindByID(context.Background(), uuid.New()); err != ErrProductNotFound {
		t.Errorf("FindByID() error = %v, want ErrProductNotFound", err)
	}
}

func testUpdate(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	product := newTestProduct("Support Bot", contractNow)
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	product.Name = "Support Bot v2"
	product.IsRenewed = true
	product.WebsiteLink = strPtr("https://support-bot.example.com")
	product.UpdatedAt = contractNow.Add(time.Hour)

	if err := repo.Update(ctx, product); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Name != "Support Bot v2" || !got.IsRenewed {
		t.Errorf("Update() not reflected: %+v", got)
	}
	if got.WebsiteLink == nil || *got.WebsiteLink != "https://support-bot.example.com" {
		t.Errorf("WebsiteLink = %v", got.WebsiteLink)
	}
	if !got.UpdatedAt.Equal(product.UpdatedAt) {
		t.Errorf("UpdatedAt = %s, want %s", got.UpdatedAt, product.UpdatedAt)
	}
	if !got.CreatedAt.Equal(contractNow) {
		t.Errorf("CreatedAt changed to %s", got.CreatedAt)
	}
}

func testUpdateMissing(t *testing.T, repo ProductRepository) {
	product := newTestProduct("Ghost Bot", contractNow)
	product.ID = uuid.New()
	if err := repo.Update(context.Background(), product); err != ErrProductNotFound {
		t.Errorf("Update() error = %v, want ErrProductNotFound", err)
	}
}

func testDelete(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	product := newTestProduct("Marketing Bot", contractNow)
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := repo.Delete(ctx, product.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v; want true, nil", deleted, err)
	}

	if _, err := repo.FindByID(ctx, product.ID); err != ErrProductNotFound {
		t.Errorf("FindByID() after delete error = %v, want ErrProductNotFound", err)
	}

	deleted, err = repo.Delete(ctx, product.ID)
	if err != nil || deleted {
		t.Errorf("second Delete() = %v, %v; want false, nil", deleted, err)
	}
}

func testPagination(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	// 25 products created one minute apart; index 24 is the newest.
	ids := make([]uuid.UUID, 25)
	for i := 0; i < 25; i++ {
		p := newTestProduct(fmt.Sprintf("Bot %02d", i), contractNow.Add(time.Duration(i)*time.Minute))
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids[i] = p.ID
	}

	products, total, err := repo.List(ctx, ProductFilter{}, Pagination{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(products) != 10 {
		t.Fatalf("len(products) = %d, want 10", len(products))
	}
	// Items 11-20 of the newest-first ordering are indices 14 down to 5.
	for i, p := range products {
		if want := ids[14-i]; p.ID != want {
			t.Errorf("products[%d] = %s (%s), want %s", i, p.Name, p.ID, want)
		}
	}

	products, total, err = repo.List(ctx, ProductFilter{}, Pagination{Page: 3, PerPage: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 25 || len(products) != 5 {
		t.Errorf("last page: total=%d len=%d, want 25 and 5", total, len(products))
	}

	products, _, err = repo.List(ctx, ProductFilter{}, Pagination{Page: 9, PerPage: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(products) != 0 {
		t.Errorf("page beyond end returned %d products", len(products))
	}
}

func testSearch(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	premium := newTestProduct("Premium Bot", contractNow)
	other := newTestProduct("Analytics", contractNow.Add(time.Minute))
	other.Description = strPtr("Data analytics and reporting")
	other.CustomerTelegram = strPtr("@data_team")
	byUsername := newTestProduct("Helper", contractNow.Add(2*time.Minute))
	byUsername.BotUsername = strPtr("notify_bot")
	literal := newTestProduct("100% uptime", contractNow.Add(3*time.Minute))

	for _, p := range []*domain.Product{premium, other, byUsername, literal} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	properties := gopter.NewProperties(nil)

	properties.Property("any casing of a substring of the name finds the product", prop.ForAll(
		func(term string) bool {
			products, total, err := repo.List(ctx, ProductFilter{Search: term}, Pagination{})
			if err != nil {
				t.Logf("FAIL: List() error = %v", err)
				return false
			}
			for _, p := range products {
				if p.ID == premium.ID {
					return total >= 1
				}
			}
			t.Logf("FAIL: search %q did not return Premium Bot", term)
			return false
		},
		gen.OneConstOf("premium", "PREMIUM", "Bot", "BOT", "bot", "mium b", "Premium Bot"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))

	tests := []struct {
		term string
		want int
	}{
		{"@DATA", 1},
		{"reporting", 1},
		{"notify", 1},
		{"%", 1},
		{"_", 2},
		{"y_b", 1},
		{"m_b", 0}, // an unescaped _ would match "Premium Bot"
		{"nothing-matches", 0},
	}
	for _, tt := range tests {
		_, total, err := repo.List(ctx, ProductFilter{Search: tt.term}, Pagination{})
		if err != nil {
			t.Fatalf("List(%q) error = %v", tt.term, err)
		}
		if total != tt.want {
			t.Errorf("List(%q) total = %d, want %d", tt.term, total, tt.want)
		}
	}
}

func testStatusFilter(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	statuses := []domain.ProductStatus{
		domain.StatusActive, domain.StatusActive, domain.StatusExpired,
		domain.StatusExpiringSoon, domain.StatusExpired, domain.StatusActive,
	}
	for i, s := range statuses {
		p := newTestProduct(fmt.Sprintf("Bot %d", i), contractNow.Add(time.Duration(i)*time.Second))
		p.Status = s
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	products, total, err := repo.List(ctx, ProductFilter{Status: domain.StatusActive}, Pagination{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(products) != 2 {
		t.Errorf("len(products) = %d, want 2", len(products))
	}
	for _, p := range products {
		if p.Status != domain.StatusActive {
			t.Errorf("status filter returned %s", p.Status)
		}
	}

	_, total, err = repo.List(ctx, ProductFilter{Status: domain.StatusExpired, Search: "bot 4"}, Pagination{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 {
		t.Errorf("status+search total = %d, want 1", total)
	}
}

func testCounters(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	ends := []time.Duration{
		-24 * time.Hour,     // expired
		0,                   // exactly now: outside (now, ...]
		3 * 24 * time.Hour,  // within 7 and 30
		7 * 24 * time.Hour,  // on the 7 day edge, inclusive
		20 * 24 * time.Hour, // within 30 only
		45 * 24 * time.Hour, // outside both
	}
	for i, offset := range ends {
		p := newTestProduct(fmt.Sprintf("Bot %d", i), contractNow)
		p.ContractEndDate = contractNow.Add(offset)
		p.Status = domain.DeriveStatus(p.ContractEndDate, contractNow)
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	total, err := repo.Count(ctx)
	if err != nil || total != 6 {
		t.Errorf("Count() = %d, %v; want 6", total, err)
	}

	expired, err := repo.CountByStatus(ctx, domain.StatusExpired, contractNow)
	if err != nil || expired != 1 {
		t.Errorf("CountByStatus(Expired) = %d, %v; want 1", expired, err)
	}

	within7, err := repo.CountEndingWithin(ctx, contractNow, contractNow.Add(7*24*time.Hour))
	if err != nil || within7 != 2 {
		t.Errorf("CountEndingWithin(7d) = %d, %v; want 2", within7, err)
	}

	within30, err := repo.CountEndingWithin(ctx, contractNow, contractNow.Add(30*24*time.Hour))
	if err != nil || within30 != 3 {
		t.Errorf("CountEndingWithin(30d) = %d, %v; want 3", within30, err)
	}
}

func testRefreshStatuses(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	fresh := newTestProduct("Fresh", contractNow)
	fresh.ContractEndDate = contractNow.Add(60 * 24 * time.Hour)
	fresh.Status = domain.StatusActive

	stale := newTestProduct("Stale", contractNow)
	stale.ContractEndDate = contractNow.Add(-2 * 24 * time.Hour)
	stale.Status = domain.StatusActive

	edge := newTestProduct("Edge", contractNow)
	edge.ContractEndDate = contractNow.Add(7*24*time.Hour + 23*time.Hour)
	edge.Status = domain.StatusActive

	for _, p := range []*domain.Product{fresh, stale, edge} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	changed, err := repo.RefreshStatuses(ctx, contractNow)
	if err != nil {
		t.Fatalf("RefreshStatuses() error = %v", err)
	}
	if changed != 2 {
		t.Errorf("RefreshStatuses() changed = %d, want 2", changed)
	}

	for _, tc := range []struct {
		p    *domain.Product
		want domain.ProductStatus
	}{
		{fresh, domain.StatusActive},
		{stale, domain.StatusExpired},
		{edge, domain.StatusExpiringSoon},
	} {
		got, err := repo.FindByID(ctx, tc.p.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if got.Status != tc.want {
			t.Errorf("%s status = %s, want %s", tc.p.Name, got.Status, tc.want)
		}
	}

	changed, err = repo.RefreshStatuses(ctx, contractNow)
	if err != nil || changed != 0 {
		t.Errorf("second RefreshStatuses() = %d, %v; want 0", changed, err)
	}
}

func testCountByStatusUsesClock(t *testing.T, repo ProductRepository) {
	ctx := context.Background()

	stale := newTestProduct("Stale", contractNow)
	stale.ContractEndDate = contractNow.Add(-2 * 24 * time.Hour)
	stale.Status = domain.StatusActive
	if err := repo.Create(ctx, stale); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, tc := range []struct {
		status domain.ProductStatus
		want   int
	}{
		{domain.StatusActive, 0},
		{domain.StatusExpiringSoon, 0},
		{domain.StatusExpired, 1},
	} {
		got, err := repo.CountByStatus(ctx, tc.status, contractNow)
		if err != nil || got != tc.want {
			t.Errorf("CountByStatus(%s) = %d, %v; want %d", tc.status, got, err, tc.want)
		}
	}
}
