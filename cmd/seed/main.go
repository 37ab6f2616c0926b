package main

import (
	"context"
	"time"

	"bot-dashboard/internal/config"
	"bot-dashboard/internal/database"
	"bot-dashboard/internal/logger"
	"bot-dashboard/internal/repository"
	"bot-dashboard/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type sampleProduct struct {
	name           string
	description    string
	botUsername    string
	websiteLink    string
	months         int
	startedDaysAgo int
	customer       string
}

var samples = []sampleProduct{
	{"Premium Bot", "Advanced Telegram bot with AI capabilities", "premium_ai_bot", "", 12, 30, "@john_doe"},
	{"Marketing Bot", "Automated marketing and promotion bot", "marketing_pro_bot", "", 6, 150, "@jane_smith"},
	{"Support Bot", "24/7 customer support automation", "", "https://support-bot.example.com", 3, 85, "@support_team"},
	{"Analytics Bot", "Data analytics and reporting bot", "analytics_bot", "", 12, 10, "@data_team"},
	{"Notification Bot", "Smart notification delivery system", "notify_bot", "", 1, 25, "@notify_admin"},
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// clearProducts deletes every stored product page by page
func clearProducts(ctx context.Context, products service.ProductService) (int, error) {
	deleted := 0
	for {
		list, err := products.ListProducts(ctx, repository.ProductFilter{}, repository.Pagination{Page: 1, PerPage: repository.MaxPerPage})
		if err != nil {
			return deleted, err
		}
		if len(list.Products) == 0 {
			return deleted, nil
		}
		for _, p := range list.Products {
			if err := products.DeleteProduct(ctx, p.ID); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
}

func main() {
	clearFirst := pflag.Bool("clear", false, "delete existing products before seeding")
	clearOnly := pflag.Bool("clear-only", false, "delete existing products and exit")
	statusOnly := pflag.Bool("status", false, "report the schema migration status and exit")
	pflag.Parse()

	cfg := config.Load()
	log := logger.NewWithDefaults()
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbService.Close()

	// Report before migrating so pending versions are visible
	if *statusOnly {
		status, err := database.GetMigrationStatus(dbService.DB())
		if err != nil {
			log.Fatal("Failed to read migration status", zap.Error(err))
		}
		log.Info("Migration status",
			zap.Int64("current", status.Current),
			zap.Int64("latest", status.Latest),
			zap.Int("pending", status.Pending),
		)
		return
	}

	if err := database.RunMigrations(dbService.DB(), log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	products := service.NewProductService(repository.NewProductRepository(dbService.DB()))
	if *clearFirst || *clearOnly {
		deleted, err := clearProducts(ctx, products)
		if err != nil {
			log.Fatal("Failed to clear products", zap.Error(err))
		}
		log.Info("Cleared products", zap.Int("deleted", deleted))
		if *clearOnly {
			return
		}
	}

	now := time.Now().UTC()

	for _, s := range samples {
		start := now.AddDate(0, 0, -s.startedDaysAgo)
		product, err := products.CreateProduct(ctx, service.CreateProductInput{
			Name:              s.name,
			Description:       optional(s.description),
			BotUsername:       optional(s.botUsername),
			WebsiteLink:       optional(s.websiteLink),
			ContractMonths:    s.months,
			ContractStartDate: &start,
			CustomerTelegram:  optional(s.customer),
		})
		if err != nil {
			log.Fatal("Failed to seed product", zap.String("name", s.name), zap.Error(err))
		}

		log.Info("Seeded product",
			zap.String("name", product.Name),
			zap.String("status", string(product.Status)),
			zap.Time("contract_end_date", product.ContractEndDate),
		)
	}

	log.Info("Seeding completed", zap.Int("products", len(samples)))
}
