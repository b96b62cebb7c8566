package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/docrank/internal/domain"
)

// --- Mocks ---

type mockRanker struct {
	closestDocsFn func(ctx context.Context, query string, k int) (domain.Ranking, error)

	mu       sync.Mutex
	inFlight int
	peak     int
	calls    atomic.Int32
}

func (m *mockRanker) ClosestDocs(ctx context.Context, query string, k int) (domain.Ranking, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.closestDocsFn != nil {
		return m.closestDocsFn(ctx, query, k)
	}
	return rankingFor(query, k), nil
}

// rankingFor derives a deterministic ranking from the query text.
func rankingFor(query string, k int) domain.Ranking {
	r := domain.Ranking{}
	for i := range k {
		r.IDs = append(r.IDs, fmt.Sprintf("%s-%d", query, i))
		r.Scores = append(r.Scores, float64(k-i))
	}
	return r
}

// jitterRanker finishes queries in random order.
func jitterRanker() *mockRanker {
	return &mockRanker{closestDocsFn: func(_ context.Context, query string, k int) (domain.Ranking, error) {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
		return rankingFor(query, k), nil
	}}
}

func queries(n int) []string {
	qs := make([]string, n)
	for i := range qs {
		qs[i] = fmt.Sprintf("q%d", i)
	}
	return qs
}

// --- Tests ---

func TestClosestDocs_PreservesOrder(t *testing.T) {
	qs := queries(40)

	for _, workers := range []int{0, 1, 2, 7, 40, 100} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			d := New(jitterRanker())

			got, err := d.ClosestDocs(context.Background(), qs, 3, workers)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(qs) {
				t.Fatalf("expected %d results, got %d", len(qs), len(got))
			}
			for i, r := range got {
				if !strings.HasPrefix(r.IDs[0], qs[i]+"-") {
					t.Errorf("result %d belongs to %s", i, r.IDs[0])
				}
				if r.Len() != 3 {
					t.Errorf("result %d: expected 3 ids, got %d", i, r.Len())
				}
			}
		})
	}
}

func TestClosestDocs_MatchesSequential(t *testing.T) {
	qs := queries(25)
	ctx := context.Background()

	sequential, err := New(jitterRanker()).ClosestDocs(ctx, qs, 2, 1)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	parallel, err := New(jitterRanker()).ClosestDocs(ctx, qs, 2, 8)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	for i := range qs {
		if strings.Join(sequential[i].IDs, ",") != strings.Join(parallel[i].IDs, ",") {
			t.Errorf("query %d: sequential %v != parallel %v", i, sequential[i].IDs, parallel[i].IDs)
		}
	}
}

func TestClosestDocs_BoundedConcurrency(t *testing.T) {
	m := &mockRanker{closestDocsFn: func(_ context.Context, q string, k int) (domain.Ranking, error) {
		time.Sleep(2 * time.Millisecond)
		return rankingFor(q, k), nil
	}}

	if _, err := New(m).ClosestDocs(context.Background(), queries(30), 1, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.peak > 3 {
		t.Errorf("expected at most 3 concurrent calls, saw %d", m.peak)
	}
}

func TestClosestDocs_FailFast(t *testing.T) {
	boom := errors.New("engine down")
	m := &mockRanker{closestDocsFn: func(ctx context.Context, q string, k int) (domain.Ranking, error) {
		if q == "q3" {
			return domain.Ranking{}, boom
		}
		select {
		case <-ctx.Done():
			return domain.Ranking{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
		return rankingFor(q, k), nil
	}}

	got, err := New(m).ClosestDocs(context.Background(), queries(50), 1, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
	if !strings.Contains(err.Error(), "query 3") {
		t.Errorf("expected failing query index in %q", err)
	}
	if got != nil {
		t.Errorf("expected no partial results, got %d", len(got))
	}
	if n := m.calls.Load(); n >= 50 {
		t.Errorf("expected remaining queries to be skipped, got %d calls", n)
	}
}

func TestClosestDocs_LargeBatch(t *testing.T) {
	m := &mockRanker{}
	qs := queries(250)

	got, err := New(m).ClosestDocs(context.Background(), qs, 1, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(qs) {
		t.Fatalf("expected %d rankings, got %d", len(qs), len(got))
	}
	for i, r := range got {
		if len(r.IDs) != 1 || r.IDs[0] != qs[i]+"-0" {
			t.Fatalf("result %d out of order: %v", i, r.IDs)
		}
	}
}

func TestClosestDocs_Empty(t *testing.T) {
	got, err := New(&mockRanker{}).ClosestDocs(context.Background(), nil, 3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestClosestDocs_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &mockRanker{}
	_, err := New(m).ClosestDocs(ctx, queries(4), 1, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if m.calls.Load() != 0 {
		t.Errorf("expected no ranker calls, got %d", m.calls.Load())
	}
}

func TestWorkers(t *testing.T) {
	tests := []struct {
		requested, n, want int
	}{
		{4, 10, 4},
		{20, 10, 10},
		{1, 0, 1},
	}
	for _, tc := range tests {
		if got := Workers(tc.requested, tc.n); got != tc.want {
			t.Errorf("Workers(%d, %d) = %d, want %d", tc.requested, tc.n, got, tc.want)
		}
	}
	if got := Workers(0, 1000); got < 1 || got > 1000 {
		t.Errorf("default workers out of range: %d", got)
	}
}
