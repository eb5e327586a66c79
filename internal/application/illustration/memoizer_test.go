package illustration

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/infrastructure/imagegen"
	"mirage-codex-api/pkg/errors"
)

type fakeBookRepo struct {
	books     map[string]*entity.Book
	coverURLs map[string]string
}

func (f *fakeBookRepo) Create(_ context.Context, _ *entity.Book) error { return nil }

func (f *fakeBookRepo) GetByID(_ context.Context, id string) (*entity.Book, error) {
	return f.books[id], nil
}

func (f *fakeBookRepo) List(_ context.Context, _ *repository.BookFilter, _ repository.Pagination) (*repository.PagedResult[*entity.Book], error) {
	return &repository.PagedResult[*entity.Book]{}, nil
}

func (f *fakeBookRepo) UpdateCoverURL(_ context.Context, id, coverURL string) error {
	if f.coverURLs == nil {
		f.coverURLs = map[string]string{}
	}
	f.coverURLs[id] = coverURL
	return nil
}

func (f *fakeBookRepo) IncrementViewCount(_ context.Context, _ string, _ int64) error { return nil }

type fakeImageRepo struct {
	images    map[string]*entity.PageImage
	insertErr error
	failOnce  bool
}

func (f *fakeImageRepo) GetByHash(_ context.Context, hash string) (*entity.PageImage, error) {
	return f.images[hash], nil
}

func (f *fakeImageRepo) Insert(_ context.Context, image *entity.PageImage) error {
	if f.insertErr != nil {
		err := f.insertErr
		if f.failOnce {
			f.insertErr = nil
		}
		return err
	}
	if _, ok := f.images[image.Hash]; ok {
		return repository.ErrDuplicateImage
	}
	f.images[image.Hash] = image
	return nil
}

type fakeGenerator struct {
	calls int
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) ([]byte, *imagegen.Params, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return []byte("image-bytes:" + prompt), &imagegen.Params{
		Model:  "flux-schnell",
		Width:  768,
		Height: 1024,
		Steps:  28,
		Seed:   42,
		Format: "webp",
	}, nil
}

type fakeStore struct {
	uploads   map[string][]byte
	uploadErr error
}

func (f *fakeStore) Upload(_ context.Context, objectName string, data []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[objectName] = data
	return "https://cdn.example.com/" + objectName, nil
}

func (f *fakeStore) Download(_ context.Context, objectName string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.uploads[objectName])), nil
}

func (f *fakeStore) PublicURL(objectName string) string {
	return "https://cdn.example.com/" + objectName
}

func ensureRequest() *EnsureRequest {
	return &EnsureRequest{
		UserID:     "user-1",
		BookID:     "book-1",
		EditionID:  "ed-1",
		PageNumber: 7,
		Prompt:     "a lighthouse at dusk",
	}
}

func TestEnsureGeneratesOnceForSameInputs(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PageImage{}}
	gen := &fakeGenerator{}
	m := NewMemoizer(images, gen, &fakeStore{})

	first, err := m.Ensure(context.Background(), ensureRequest())
	require.NoError(t, err)
	assert.False(t, first.Reused)

	second, err := m.Ensure(context.Background(), ensureRequest())
	require.NoError(t, err)
	assert.True(t, second.Reused)

	assert.Equal(t, 1, gen.calls, "same inputs must reuse the stored image")
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.URL, second.URL)
}

func TestEnsurePromptChangeRegenerates(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PageImage{}}
	gen := &fakeGenerator{}
	m := NewMemoizer(images, gen, &fakeStore{})

	first, err := m.Ensure(context.Background(), ensureRequest())
	require.NoError(t, err)

	changed := ensureRequest()
	changed.Prompt = "a lighthouse at dawn"
	second, err := m.Ensure(context.Background(), changed)
	require.NoError(t, err)

	assert.Equal(t, 2, gen.calls)
	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestEnsureCacheHitAllowsAnonymous(t *testing.T) {
	req := ensureRequest()
	hash := PageImageHash(req.BookID, req.EditionID, req.PageNumber, req.Prompt)
	images := &fakeImageRepo{images: map[string]*entity.PageImage{
		hash: {Hash: hash, URL: "https://cdn.example.com/cached.webp"},
	}}
	gen := &fakeGenerator{}
	m := NewMemoizer(images, gen, &fakeStore{})

	req.UserID = ""
	ref, err := m.Ensure(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, ref.Reused)
	assert.Zero(t, gen.calls)
}

func TestEnsureCacheMissRequiresIdentity(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PageImage{}}
	gen := &fakeGenerator{}
	m := NewMemoizer(images, gen, &fakeStore{})

	req := ensureRequest()
	req.UserID = ""
	_, err := m.Ensure(context.Background(), req)

	assert.ErrorIs(t, err, errors.ErrUnauthorized)
	assert.Zero(t, gen.calls, "anonymous miss must not generate")
}

func TestEnsureUploadFailureLeavesNoRecord(t *testing.T) {
	images := &fakeImageRepo{images: map[string]*entity.PageImage{}}
	m := NewMemoizer(images, &fakeGenerator{}, &fakeStore{uploadErr: fmt.Errorf("bucket unavailable")})

	_, err := m.Ensure(context.Background(), ensureRequest())
	require.Error(t, err)
	assert.Empty(t, images.images, "no dangling row after a failed upload")
}

func TestEnsureInsertFailureAfterUploadIsTolerated(t *testing.T) {
	images := &fakeImageRepo{
		images:    map[string]*entity.PageImage{},
		insertErr: stderrors.New("connection reset"),
	}
	m := NewMemoizer(images, &fakeGenerator{}, &fakeStore{})

	ref, err := m.Ensure(context.Background(), ensureRequest())
	require.NoError(t, err, "the image is already uploaded and servable")
	assert.NotEmpty(t, ref.URL)
}

func TestEnsureInsertRetriesTransientFailure(t *testing.T) {
	images := &fakeImageRepo{
		images:    map[string]*entity.PageImage{},
		insertErr: stderrors.New("connection reset"),
		failOnce:  true,
	}
	m := NewMemoizer(images, &fakeGenerator{}, &fakeStore{})

	ref, err := m.Ensure(context.Background(), ensureRequest())
	require.NoError(t, err)
	assert.Len(t, images.images, 1, "retry lands the record")
	assert.NotEmpty(t, ref.URL)
}

func TestPageImageHashDeterminism(t *testing.T) {
	a := PageImageHash("b", "e", 3, "prompt")
	b := PageImageHash("b", "e", 3, "prompt")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, PageImageHash("b", "e", 4, "prompt"))
	assert.NotEqual(t, a, PageImageHash("b", "e", 3, "prompt."))
}

func TestCoverReturnsExistingWithoutGeneration(t *testing.T) {
	books := &fakeBookRepo{books: map[string]*entity.Book{
		"book-1": {ID: "book-1", CoverURL: "https://cdn.example.com/covers/book-1.webp"},
	}}
	gen := &fakeGenerator{}
	covers := NewCovers(books, gen, &fakeStore{})

	url, err := covers.Ensure(context.Background(), "", "book-1", "a lighthouse", false)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/covers/book-1.webp", url)
	assert.Zero(t, gen.calls)
}

func TestCoverGeneratesAndUpserts(t *testing.T) {
	books := &fakeBookRepo{books: map[string]*entity.Book{
		"book-1": {ID: "book-1"},
	}}
	gen := &fakeGenerator{}
	covers := NewCovers(books, gen, &fakeStore{})

	url, err := covers.Ensure(context.Background(), "user-1", "book-1", "a lighthouse", false)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, url, "covers/book-1.webp")
	assert.Equal(t, url, books.coverURLs["book-1"])
}

func TestCoverForceRegenerates(t *testing.T) {
	books := &fakeBookRepo{books: map[string]*entity.Book{
		"book-1": {ID: "book-1", CoverURL: "https://cdn.example.com/old.webp"},
	}}
	gen := &fakeGenerator{}
	covers := NewCovers(books, gen, &fakeStore{})

	_, err := covers.Ensure(context.Background(), "user-1", "book-1", "a lighthouse", true)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestCoverAnonymousGenerationDenied(t *testing.T) {
	books := &fakeBookRepo{books: map[string]*entity.Book{
		"book-1": {ID: "book-1"},
	}}
	covers := NewCovers(books, &fakeGenerator{}, &fakeStore{})

	_, err := covers.Ensure(context.Background(), "", "book-1", "a lighthouse", false)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}
