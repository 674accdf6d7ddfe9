package poller

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("等待条件超时")
}

// scripted returns queued results in call order, then repeats the last one.
type scripted struct {
	mu      sync.Mutex
	results []result
	calls   int
}

type result struct {
	data []int
	err  error
}

func (s *scripted) fetch(context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	r := s.results[idx]
	return r.data, r.err
}

func (s *scripted) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestLoadingUntilFirstFetch(t *testing.T) {
	release := make(chan struct{})
	p := Start(context.Background(), func(ctx context.Context) ([]int, error) {
		<-release
		return []int{1}, nil
	}, Options[[]int]{View: "alerts", Interval: time.Hour}, zerolog.Nop())
	defer p.Stop()

	snap := p.Snapshot()
	if !snap.Loading || snap.Loaded {
		t.Fatalf("首次拉取完成前应处于 loading: %+v", snap)
	}
	close(release)
	waitFor(t, func() bool { return p.Snapshot().Loaded })
	if p.Snapshot().Loading {
		t.Fatal("首次拉取完成后 loading 应为 false")
	}
}

func TestFailureKeepsPreviousSnapshot(t *testing.T) {
	src := &scripted{results: []result{
		{data: []int{1, 2, 3}},
		{err: errors.New("connection refused")},
	}}
	p := Start(context.Background(), src.fetch, Options[[]int]{
		View:     "alerts",
		Interval: time.Hour,
		Reason:   ReasonAlerts,
	}, zerolog.Nop())
	defer p.Stop()

	waitFor(t, func() bool { return p.Snapshot().Loaded })
	before := p.Snapshot()

	p.Refresh()
	waitFor(t, func() bool { return p.Snapshot().Err != nil })
	after := p.Snapshot()

	if !reflect.DeepEqual(after.Data, before.Data) || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("失败后快照应保持不变: before=%v after=%v", before.Data, after.Data)
	}
	var acq *AcquisitionError
	if !errors.As(after.Err, &acq) || acq.Reason != ReasonAlerts {
		t.Fatalf("应返回 AcquisitionError, 实际 %v", after.Err)
	}
	if !IsAcquisition(after.Err) {
		t.Fatal("IsAcquisition 应为 true")
	}
}

func TestSuccessClearsError(t *testing.T) {
	src := &scripted{results: []result{
		{err: errors.New("boom")},
		{data: []int{7}},
	}}
	p := Start(context.Background(), src.fetch, Options[[]int]{View: "risk_map", Interval: time.Hour, Reason: ReasonRiskMap}, zerolog.Nop())
	defer p.Stop()

	waitFor(t, func() bool { return p.Snapshot().Err != nil })
	if p.Snapshot().Loaded {
		t.Fatal("失败的首次拉取不应标记 loaded")
	}
	if got := p.Snapshot().Err.Error(); got != "Failed to fetch risk map data: boom" {
		t.Fatalf("unexpected error text %q", got)
	}

	p.Refresh()
	waitFor(t, func() bool { return p.Snapshot().Loaded })
	snap := p.Snapshot()
	if snap.Err != nil || !reflect.DeepEqual(snap.Data, []int{7}) {
		t.Fatalf("成功后应清除错误并替换快照: %+v", snap)
	}
}

func TestFixedCadenceAfterFailures(t *testing.T) {
	src := &scripted{results: []result{{err: errors.New("down")}}}
	p := Start(context.Background(), src.fetch, Options[[]int]{View: "alerts", Interval: 10 * time.Millisecond}, zerolog.Nop())
	defer p.Stop()
	waitFor(t, func() bool { return src.count() >= 4 })
}

func TestNoApplyAfterStop(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	p := Start(context.Background(), func(ctx context.Context) ([]int, error) {
		if calls.Add(1) == 1 {
			return []int{1}, nil
		}
		<-release
		return []int{2}, nil
	}, Options[[]int]{View: "alerts", Interval: time.Hour}, zerolog.Nop())

	waitFor(t, func() bool { return p.Snapshot().Loaded })
	p.Refresh()
	waitFor(t, func() bool { return calls.Load() == 2 })

	p.Stop()
	close(release)
	p.Wait()

	snap := p.Snapshot()
	if !reflect.DeepEqual(snap.Data, []int{1}) {
		t.Fatalf("Stop 之后完成的结果应被丢弃, 实际 %v", snap.Data)
	}
	p.Stop()
}

func TestLastCompletedWins(t *testing.T) {
	slow := make(chan struct{})
	var calls atomic.Int32
	p := Start(context.Background(), func(ctx context.Context) ([]int, error) {
		switch calls.Add(1) {
		case 1:
			<-slow
			return []int{1}, nil
		default:
			return []int{2}, nil
		}
	}, Options[[]int]{View: "alerts", Interval: time.Hour}, zerolog.Nop())
	defer p.Stop()

	waitFor(t, func() bool { return calls.Load() == 1 })
	p.Refresh()
	waitFor(t, func() bool { return p.Snapshot().Loaded })
	if got := p.Snapshot().Data; !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("快的拉取先完成, 实际 %v", got)
	}

	close(slow)
	waitFor(t, func() bool { return p.Snapshot().Sequence == 2 })
	if got := p.Snapshot().Data; !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("最后完成的结果应覆盖快照, 实际 %v", got)
	}
}

func TestOnUpdateHook(t *testing.T) {
	var seen atomic.Int32
	p := Start(context.Background(), func(ctx context.Context) ([]int, error) {
		return []int{1, 2}, nil
	}, Options[[]int]{
		View:     "alerts",
		Interval: time.Hour,
		Size:     func(v []int) int { return len(v) },
		OnUpdate: func(s Snapshot[[]int]) {
			if len(s.Data) == 2 {
				seen.Add(1)
			}
		},
	}, zerolog.Nop())
	defer p.Stop()
	waitFor(t, func() bool { return seen.Load() == 1 })
}

func TestOnUpdateDeliveredInOrder(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	var calls atomic.Int32
	var mu sync.Mutex
	var order []uint64

	p := Start(context.Background(), func(ctx context.Context) ([]int, error) {
		return []int{int(calls.Add(1))}, nil
	}, Options[[]int]{
		View:     "alerts",
		Interval: time.Hour,
		OnUpdate: func(s Snapshot[[]int]) {
			if s.Sequence == 1 {
				close(entered)
				<-gate
			}
			mu.Lock()
			order = append(order, s.Sequence)
			mu.Unlock()
		},
	}, zerolog.Nop())
	defer p.Stop()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("首个 hook 未触发")
	}
	p.Refresh()
	waitFor(t, func() bool { return p.Snapshot().Sequence == 2 })
	close(gate)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(order, []uint64{1, 2}) {
		t.Fatalf("hook 应按完成顺序投递, 实际 %v", order)
	}
	if last := order[len(order)-1]; last != p.Snapshot().Sequence {
		t.Fatalf("最后投递的 seq=%d 与快照 seq=%d 不一致", last, p.Snapshot().Sequence)
	}
}

func TestDeliverSkipsOlderAndStopped(t *testing.T) {
	var got []uint64
	p := &Poller[[]int]{opts: Options[[]int]{OnUpdate: func(s Snapshot[[]int]) {
		got = append(got, s.Sequence)
	}}}

	p.deliver(Snapshot[[]int]{Sequence: 2})
	p.deliver(Snapshot[[]int]{Sequence: 1})
	if !reflect.DeepEqual(got, []uint64{2}) {
		t.Fatalf("旧快照不应覆盖新快照, 实际 %v", got)
	}

	p.stopped = true
	p.deliver(Snapshot[[]int]{Sequence: 3})
	if len(got) != 1 {
		t.Fatalf("stop 之后不应再调用 hook, 实际 %v", got)
	}
}

func TestStopWaitsForRunningHook(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	var after atomic.Bool
	p := Start(context.Background(), func(ctx context.Context) ([]int, error) {
		return []int{1}, nil
	}, Options[[]int]{
		View:     "alerts",
		Interval: time.Hour,
		OnUpdate: func(Snapshot[[]int]) {
			close(entered)
			<-gate
			after.Store(true)
		},
	}, zerolog.Nop())

	<-entered
	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("hook 运行中 Stop 不应返回")
	case <-time.After(50 * time.Millisecond):
	}
	close(gate)
	<-stopped
	if !after.Load() {
		t.Fatal("Stop 返回前 hook 应已结束")
	}
}
