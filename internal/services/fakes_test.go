package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
	"stockly/internal/repositories"
	"stockly/pkg/utils"
)

// In-memory repository fakes. The usage fake guards its map with a mutex so
// concurrency tests exercise real interleavings.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*db_models.Account
}

func newFakeAccountRepo(accounts ...*db_models.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: map[uuid.UUID]*db_models.Account{}}
	for _, account := range accounts {
		repo.accounts[account.ID] = account
	}
	return repo
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepo) Insert(_ context.Context, account *db_models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccountRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account, ok := f.accounts[id]; ok {
		account.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeAccountRepo) UpdateSubscription(_ context.Context, id uuid.UUID, plan db_models.SubscriptionPlan, expiresAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account, ok := f.accounts[id]; ok {
		account.SubscriptionPlan = plan
		account.SubscriptionExpiresAt = expiresAt
	}
	return nil
}

func (f *fakeAccountRepo) ListExpiredPremium(_ context.Context, cutoff time.Time) ([]db_models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Account
	for _, account := range f.accounts {
		if account.SubscriptionPlan == db_models.SubscriptionPlanPremium &&
			account.SubscriptionExpiresAt != nil &&
			!account.SubscriptionExpiresAt.After(cutoff) {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) WithTx(*gorm.DB) repositories.AccountRepositoryInterface { return f }

type fakeDefinitionRepo struct {
	definitions []db_models.FeatureDefinition
}

func (f *fakeDefinitionRepo) GetDefinitions(_ context.Context, tier db_models.SubscriptionPlan) ([]db_models.FeatureDefinition, error) {
	var out []db_models.FeatureDefinition
	for _, def := range f.definitions {
		if def.Tier == tier {
			out = append(out, def)
		}
	}
	return out, nil
}

func (f *fakeDefinitionRepo) GetDefinition(_ context.Context, tier db_models.SubscriptionPlan, featureName string) (*db_models.FeatureDefinition, error) {
	for _, def := range f.definitions {
		if def.Tier == tier && def.FeatureName == featureName {
			copied := def
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeUsageRepo struct {
	mu      sync.Mutex
	records map[string]*db_models.FeatureUsage
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{records: map[string]*db_models.FeatureUsage{}}
}

func usageKey(userID uuid.UUID, featureName string) string {
	return userID.String() + "/" + featureName
}

func (f *fakeUsageRepo) seed(userID uuid.UUID, featureName string, current int64, limit *int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[usageKey(userID, featureName)] = &db_models.FeatureUsage{
		UserID:       userID,
		FeatureName:  featureName,
		CurrentUsage: current,
		UsageLimit:   limit,
	}
}

func (f *fakeUsageRepo) current(userID uuid.UUID, featureName string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[usageKey(userID, featureName)]; ok {
		return record.CurrentUsage
	}
	return 0
}

func (f *fakeUsageRepo) GetUsageForUser(_ context.Context, userID uuid.UUID) ([]db_models.FeatureUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.FeatureUsage
	for _, record := range f.records {
		if record.UserID == userID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeUsageRepo) GetUsage(_ context.Context, userID uuid.UUID, featureName string) (*db_models.FeatureUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[usageKey(userID, featureName)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeUsageRepo) GetUsageForUpdate(ctx context.Context, userID uuid.UUID, featureName string) (*db_models.FeatureUsage, error) {
	return f.GetUsage(ctx, userID, featureName)
}

func (f *fakeUsageRepo) SetUsage(_ context.Context, userID uuid.UUID, featureName string, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[usageKey(userID, featureName)]
	if !ok {
		return utils.ErrUsageRecordNotFound
	}
	if value < 0 {
		value = 0
	}
	record.CurrentUsage = value
	record.UpdatedAt = time.Now().Unix()
	return nil
}

func (f *fakeUsageRepo) Increment(_ context.Context, userID uuid.UUID, featureName string, delta int64, atomic bool) (*db_models.FeatureUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[usageKey(userID, featureName)]
	if !ok {
		if atomic {
			return nil, utils.ErrUsageRecordNotFound
		}
		record = &db_models.FeatureUsage{
			UserID:      userID,
			FeatureName: featureName,
			LastResetAt: time.Now().UTC(),
		}
		f.records[usageKey(userID, featureName)] = record
	}
	next := record.CurrentUsage + delta
	if next < 0 {
		next = 0
	}
	record.CurrentUsage = next
	record.UpdatedAt = time.Now().Unix()
	copied := *record
	return &copied, nil
}

func (f *fakeUsageRepo) Create(_ context.Context, userID uuid.UUID, featureName string, usageLimit *int64, initialUsage int64) (*db_models.FeatureUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[usageKey(userID, featureName)]; ok {
		return nil, utils.ErrUsageRecordExists
	}
	record := &db_models.FeatureUsage{
		UserID:       userID,
		FeatureName:  featureName,
		CurrentUsage: initialUsage,
		UsageLimit:   usageLimit,
		LastResetAt:  time.Now().UTC(),
	}
	f.records[usageKey(userID, featureName)] = record
	copied := *record
	return &copied, nil
}

func (f *fakeUsageRepo) ResetCounters(_ context.Context, asOf time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var affected int64
	for _, record := range f.records {
		record.CurrentUsage = 0
		record.LastResetAt = asOf
		affected++
	}
	return affected, nil
}

func (f *fakeUsageRepo) WithTx(*gorm.DB) repositories.FeatureUsageRepositoryInterface { return f }

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []db_models.TierHistory
}

func (f *fakeHistoryRepo) Append(_ context.Context, record *db_models.TierHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeHistoryRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]db_models.TierHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.TierHistory
	for _, record := range f.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) WithTx(*gorm.DB) repositories.TierHistoryRepositoryInterface { return f }

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*db_models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uuid.UUID]*db_models.Product{}}
}

func (f *fakeProductRepo) Insert(_ context.Context, product *db_models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	copied := *product
	f.products[product.ID] = &copied
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*db_models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok || product.OwnerID != ownerID {
		return nil, nil
	}
	copied := *product
	return &copied, nil
}

func (f *fakeProductRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, page, pageSize int) ([]db_models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []db_models.Product
	for _, product := range f.products {
		if product.OwnerID == ownerID {
			all = append(all, *product)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeProductRepo) Update(_ context.Context, product *db_models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *product
	f.products[product.ID] = &copied
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, ownerID, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[id]
	if !ok || product.OwnerID != ownerID {
		return false, nil
	}
	delete(f.products, id)
	return true, nil
}

func (f *fakeProductRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, product := range f.products {
		if product.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (f *fakeProductRepo) WithTx(*gorm.DB) repositories.ProductRepositoryInterface { return f }

type fakeMailService struct {
	mu            sync.Mutex
	tierChanges   []string
	resetTokens   []string
	failTierMails bool
}

func (f *fakeMailService) SendMailToResetPassword(_, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetTokens = append(f.resetTokens, token)
	return nil
}

func (f *fakeMailService) SendTierChangeNotification(to, _, previousPlan, newPlan, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTierMails {
		return utils.ErrDatabaseError
	}
	f.tierChanges = append(f.tierChanges, to+":"+previousPlan+"->"+newPlan+":"+reason)
	return nil
}

// passthroughTx satisfies the transact seam without a database; the fakes
// ignore the tx handle entirely.
func passthroughTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
