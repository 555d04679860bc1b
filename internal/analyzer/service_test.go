package analyzer

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/types"
)

type memoryStore struct {
	mu              sync.Mutex
	inventory       []types.Equipment
	classifications []types.Classification
	replaceErr      error
	listErr         error
	replaceCalls    int
}

func (m *memoryStore) ListInventory(context.Context) ([]types.Equipment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.inventory, nil
}

func (m *memoryStore) ReplaceClassifications(_ context.Context, cs []types.Classification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.classifications = append([]types.Classification(nil), cs...)
	return nil
}

func (m *memoryStore) snapshot() []types.Classification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Classification, len(m.classifications))
	for i, c := range m.classifications {
		c.LastUpdated, c.CreatedAt = time.Time{}, time.Time{}
		out[i] = c
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func TestServiceRun(t *testing.T) {
	store := &memoryStore{inventory: sampleInventory()}
	svc := NewService(newTestAnalyzer(testGateway(), OSFallbackDrop, nil), store, nil)

	if svc.LastRun() != nil {
		t.Error("expected no last run before the first run")
	}

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.OSAnalyzed != 2 || summary.ApplicationsAnalyzed != 3 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.Total != 5 || summary.Dropped != 0 {
		t.Errorf("unexpected totals %+v", summary)
	}
	if len(store.classifications) != 5 {
		t.Errorf("expected 5 stored classifications, got %d", len(store.classifications))
	}
	if last := svc.LastRun(); last == nil || last.Total != summary.Total {
		t.Errorf("LastRun() = %+v", last)
	}
}

func TestServiceRunCountsDroppedOS(t *testing.T) {
	inventory := append(sampleInventory(), types.Equipment{Name: "SRV-09", OSName: "FreeBSD", OSVersion: "13"})
	store := &memoryStore{inventory: inventory}
	svc := NewService(newTestAnalyzer(testGateway(), OSFallbackDrop, nil), store, nil)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", summary.Dropped)
	}
}

func TestServiceRunIsIdempotent(t *testing.T) {
	store := &memoryStore{inventory: sampleInventory()}
	svc := NewService(newTestAnalyzer(testGateway(), OSFallbackDrop, nil), store, nil)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first := store.snapshot()

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second := store.snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-analysis changed stored classifications:\n%+v\n%+v", first, second)
	}
}

func TestServiceRunReplacesStaleEntries(t *testing.T) {
	store := &memoryStore{inventory: sampleInventory()}
	svc := NewService(newTestAnalyzer(testGateway(), OSFallbackDrop, nil), store, nil)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	store.inventory = store.inventory[:1]
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, c := range store.classifications {
		if c.ProductName == "Ubuntu" {
			t.Error("classification for removed equipment survived re-analysis")
		}
	}
	if len(store.classifications) != 3 {
		t.Errorf("expected 3 classifications, got %d", len(store.classifications))
	}
}

func TestServiceRunPersistenceFailure(t *testing.T) {
	store := &memoryStore{inventory: sampleInventory(), replaceErr: fmt.Errorf("disk I/O error")}
	svc := NewService(newTestAnalyzer(testGateway(), OSFallbackDrop, nil), store, nil)

	summary, err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("expected persistence failure to be returned")
	}
	if !errors.Is(err, errors.ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
	if summary != nil {
		t.Errorf("expected no summary, got %+v", summary)
	}
	if svc.LastRun() != nil {
		t.Error("failed run must not be recorded")
	}
}

func TestServiceRunInventoryFailure(t *testing.T) {
	store := &memoryStore{listErr: fmt.Errorf("database is locked")}
	svc := NewService(newTestAnalyzer(testGateway(), OSFallbackDrop, nil), store, nil)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected inventory failure to be returned")
	}
	if store.replaceCalls != 0 {
		t.Error("nothing must be written when the inventory cannot be read")
	}
}

func TestServiceRunSerializesConcurrentCalls(t *testing.T) {
	store := &memoryStore{inventory: sampleInventory()}
	svc := NewService(newTestAnalyzer(testGateway(), OSFallbackDrop, nil), store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Run(context.Background()); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if store.replaceCalls != 4 {
		t.Errorf("expected 4 replace calls, got %d", store.replaceCalls)
	}
	if len(store.classifications) != 5 {
		t.Errorf("expected 5 classifications, got %d", len(store.classifications))
	}
}
