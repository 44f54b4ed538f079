package jobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyreel/config"
	"storyreel/state"
	"storyreel/types"
)

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "job:abc" {
		t.Fatalf("Key = %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}

	if err := m.Save(ctx, types.JobStatus{JobID: "j1", State: types.StateImaging}); err != nil {
		t.Fatal(err)
	}
	s, err := m.Load(ctx, "j1")
	if err != nil || s.State != types.StateImaging {
		t.Fatalf("Load = %+v, %v", s, err)
	}
}

func TestObserverMirrorsManager(t *testing.T) {
	store := NewMemory()
	sm := state.NewManager("j1", "t", "out/j1", Observer(store))

	sm.SetState(types.StateNarrating)
	sm.SetError(errors.New("speech down"))

	s, err := store.Load(context.Background(), "j1")
	if err != nil {
		t.Fatal(err)
	}
	if s.State != types.StateError || s.Error != "speech down" {
		t.Fatalf("stored status = %+v", s)
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatalf("expected connection error")
	}
}
