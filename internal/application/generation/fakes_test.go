package generation

import (
	"context"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

type fakeBookRepo struct {
	books map[string]*entity.Book
}

func (f *fakeBookRepo) Create(_ context.Context, book *entity.Book) error { return nil }

func (f *fakeBookRepo) GetByID(_ context.Context, id string) (*entity.Book, error) {
	return f.books[id], nil
}

func (f *fakeBookRepo) List(_ context.Context, _ *repository.BookFilter, _ repository.Pagination) (*repository.PagedResult[*entity.Book], error) {
	return &repository.PagedResult[*entity.Book]{}, nil
}

func (f *fakeBookRepo) UpdateCoverURL(_ context.Context, _, _ string) error { return nil }

func (f *fakeBookRepo) IncrementViewCount(_ context.Context, _ string, _ int64) error { return nil }

type fakeAuthorRepo struct {
	authors map[string]*entity.Author
}

func (f *fakeAuthorRepo) GetByID(_ context.Context, id string) (*entity.Author, error) {
	return f.authors[id], nil
}

type fakeGenreRepo struct {
	genres map[string]*entity.Genre
}

func (f *fakeGenreRepo) GetBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	return f.genres[slug], nil
}

type fakeEditionRepo struct {
	editions map[string]*entity.Edition
}

func (f *fakeEditionRepo) Create(_ context.Context, _ *entity.Edition) error { return nil }

func (f *fakeEditionRepo) GetByID(_ context.Context, id string) (*entity.Edition, error) {
	return f.editions[id], nil
}

func (f *fakeEditionRepo) GetByBookLangModel(_ context.Context, _, _, _ string) (*entity.Edition, error) {
	return nil, nil
}

func (f *fakeEditionRepo) ListByBook(_ context.Context, _ string) ([]*entity.Edition, error) {
	return nil, nil
}

type fakePageRepo struct {
	pages     map[string]map[int]*entity.Page
	insertErr error

	inserted  []*entity.Page
	rangeFrom int
	rangeTo   int
}

func (f *fakePageRepo) Insert(_ context.Context, page *entity.Page) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, page)
	return nil
}

func (f *fakePageRepo) GetByEditionAndNumber(_ context.Context, editionID string, pageNumber int) (*entity.Page, error) {
	return f.pages[editionID][pageNumber], nil
}

func (f *fakePageRepo) ListRange(_ context.Context, editionID string, from, to int) ([]*entity.Page, error) {
	f.rangeFrom = from
	f.rangeTo = to

	var out []*entity.Page
	for n := from; n <= to; n++ {
		if page, ok := f.pages[editionID][n]; ok {
			out = append(out, page)
		}
	}
	return out, nil
}

type fakeSectionRepo struct {
	sections []*entity.Section
}

func (f *fakeSectionRepo) ListByBook(_ context.Context, _ string) ([]*entity.Section, error) {
	return f.sections, nil
}

type fakeSearchRepo struct {
	search *entity.BookSearch
	labels []string
}

func (f *fakeSearchRepo) GetByBook(_ context.Context, _ string) (*entity.BookSearch, error) {
	return f.search, nil
}

func (f *fakeSearchRepo) ListTagLabels(_ context.Context, _ string) ([]string, error) {
	return f.labels, nil
}

type fakeCreditRepo struct {
	balance  int64
	debitErr error

	debits []debitCall
}

type debitCall struct {
	userID string
	cost   int64
	reason string
	refID  string
}

func (f *fakeCreditRepo) GetBalance(_ context.Context, userID string) (*entity.CreditBalance, error) {
	return &entity.CreditBalance{UserID: userID, Balance: f.balance}, nil
}

func (f *fakeCreditRepo) EnsureBalance(_ context.Context, userID string, _ int64) (*entity.CreditBalance, error) {
	return &entity.CreditBalance{UserID: userID, Balance: f.balance}, nil
}

func (f *fakeCreditRepo) HasBalance(_ context.Context, _ string, cost int64) (bool, int64, error) {
	return f.balance >= cost, f.balance, nil
}

func (f *fakeCreditRepo) DebitIfAffordable(_ context.Context, userID string, cost int64, reason, refID string) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	f.debits = append(f.debits, debitCall{userID: userID, cost: cost, reason: reason, refID: refID})
	f.balance -= cost
	return nil
}

type fakeProviderKeyRepo struct {
	keys map[string]bool
}

func (f *fakeProviderKeyRepo) HasKey(_ context.Context, userID, provider string) (bool, error) {
	return f.keys[userID+"/"+provider], nil
}

type fakeModelRepo struct {
	models map[string]*entity.AIModel
}

func (f *fakeModelRepo) GetBySlug(_ context.Context, slug string) (*entity.AIModel, error) {
	return f.models[slug], nil
}
