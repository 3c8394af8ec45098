package liveness_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"curationsapi/src/domain/entities"
	"curationsapi/src/infra/catalog"
)

type fakeCatalog struct {
	records map[string]catalog.Record
	errors  map[string]error
	calls   []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		records: map[string]catalog.Record{},
		errors:  map[string]error{},
	}
}

func (f *fakeCatalog) with(entity string, id string, record catalog.Record) *fakeCatalog {
	f.records[entity+"/"+id] = record
	return f
}

func (f *fakeCatalog) failing(entity string, id string, err error) *fakeCatalog {
	f.errors[entity+"/"+id] = err
	return f
}

func (f *fakeCatalog) GetEntity(ctx context.Context, entity string, id string) (catalog.Record, error) {
	key := entity + "/" + id
	f.calls = append(f.calls, key)

	if err, ok := f.errors[key]; ok {
		return nil, err
	}
	if record, ok := f.records[key]; ok {
		return record, nil
	}
	return nil, &catalog.FetchError{Entity: entity, ID: id, StatusCode: 404}
}

type fakeCandidateStore struct {
	mu          sync.Mutex
	candidates  []entities.Curation
	listErr     error
	lockErr     error
	markErr     error
	markedIDs   []int64
	skipIDs     map[int64]bool
	liveDate    time.Time
	lockHeld    bool
	lockRelease int
}

func (f *fakeCandidateStore) AcquireReconcileLock(ctx context.Context) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.lockHeld = true

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lockHeld = false
		f.lockRelease++
	}, nil
}

// ListLiveCandidates deixa de oferecer o que já foi marcado, como o filtro is_live = FALSE.
func (f *fakeCandidateStore) ListLiveCandidates(ctx context.Context) ([]entities.Curation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	candidates := make([]entities.Curation, 0, len(f.candidates))
	for _, curation := range f.candidates {
		if !slices.Contains(f.markedIDs, curation.ID) {
			candidates = append(candidates, curation)
		}
	}
	return candidates, nil
}

// MarkLive ignora os ids em skipIDs, como a guarda status = 'approved' do UPDATE.
func (f *fakeCandidateStore) MarkLive(ctx context.Context, ids []int64, liveDate time.Time) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return nil, f.markErr
	}

	marked := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !f.skipIDs[id] {
			marked = append(marked, id)
		}
	}
	f.markedIDs = append(f.markedIDs, marked...)
	f.liveDate = liveDate
	return marked, nil
}

type recordingInvalidator struct {
	invalidated map[string][]string
	err         error
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, entity string, ids []string) error {
	if r.invalidated == nil {
		r.invalidated = map[string][]string{}
	}
	r.invalidated[entity] = append(r.invalidated[entity], ids...)
	return r.err
}

type resolverFunc func(ctx context.Context, curation entities.Curation) (catalog.Record, error)

func (f resolverFunc) Resolve(ctx context.Context, curation entities.Curation) (catalog.Record, error) {
	return f(ctx, curation)
}
