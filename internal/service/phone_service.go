package service

import (
	"context"
	"strings"

	"bot-dashboard/internal/client"
)

const (
	MaxBulkPhoneNumbers = 1000
	MaxPhoneLength      = 20
	DefaultCleanupDays  = 90
)

// PhoneService validates phone registry requests before forwarding them
type PhoneService interface {
	CheckPhone(ctx context.Context, phoneNumber string) (*client.CheckResult, error)
	RegisterPhone(ctx context.Context, phoneNumber string, metadata map[string]interface{}) (*client.RegisterResult, error)
	BulkRegisterPhones(ctx context.Context, phoneNumbers []string, metadata map[string]interface{}) (*client.BulkRegisterResult, error)
	CleanupOldRecords(ctx context.Context, days int) (*client.CleanupResult, error)
}

type phoneService struct {
	registry client.PhoneRegistryClient
}

// NewPhoneService creates a new instance of PhoneService
func NewPhoneService(registry client.PhoneRegistryClient) PhoneService {
	return &phoneService{registry: registry}
}

func validatePhone(field, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return newValidationError(field, "is required")
	}
	if len(phone) > MaxPhoneLength {
		return newValidationError(field, "must be at most %d characters", MaxPhoneLength)
	}
	return nil
}

func (s *phoneService) CheckPhone(ctx context.Context, phoneNumber string) (*client.CheckResult, error) {
	if err := validatePhone("phone_number", phoneNumber); err != nil {
		return nil, err
	}
	return s.registry.CheckPhone(ctx, strings.TrimSpace(phoneNumber)), nil
}

func (s *phoneService) RegisterPhone(ctx context.Context, phoneNumber string, metadata map[string]interface{}) (*client.RegisterResult, error) {
	if err := validatePhone("phone_number", phoneNumber); err != nil {
		return nil, err
	}
	return s.registry.RegisterPhone(ctx, strings.TrimSpace(phoneNumber), metadata), nil
}

// BulkRegisterPhones rejects empty or oversized batches without contacting the registry
func (s *phoneService) BulkRegisterPhones(ctx context.Context, phoneNumbers []string, metadata map[string]interface{}) (*client.BulkRegisterResult, error) {
	if len(phoneNumbers) == 0 {
		return nil, newValidationError("phone_numbers", "must contain at least one phone number")
	}
	if len(phoneNumbers) > MaxBulkPhoneNumbers {
		return nil, newValidationError("phone_numbers", "cannot register more than %d phone numbers at once", MaxBulkPhoneNumbers)
	}

	numbers := make([]string, len(phoneNumbers))
	for i, p := range phoneNumbers {
		if err := validatePhone("phone_numbers", p); err != nil {
			return nil, err
		}
		numbers[i] = strings.TrimSpace(p)
	}

	return s.registry.BulkRegisterPhones(ctx, numbers, metadata), nil
}

// CleanupOldRecords purges registry records older than days; zero means the default
func (s *phoneService) CleanupOldRecords(ctx context.Context, days int) (*client.CleanupResult, error) {
	if days == 0 {
		days = DefaultCleanupDays
	}
	if days < 1 {
		return nil, newValidationError("days", "must be at least 1")
	}
	return s.registry.CleanupOldRecords(ctx, days), nil
}
