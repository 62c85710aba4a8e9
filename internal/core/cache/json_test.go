package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mapStore struct {
	data  map[string][]byte
	loads int
}

func (m *mapStore) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, ok := m.data[key]; ok {
		return b, nil
	}
	m.loads++
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	m.data[key] = b
	return b, nil
}

func (m *mapStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestGetOrLoadJSON_CachesAfterFirstLoad(t *testing.T) {
	s := &mapStore{data: map[string][]byte{}}
	calls := 0
	load := func(context.Context) ([]item, error) {
		calls++
		return []item{{Name: "deel", Price: 120}}, nil
	}
	for i := 0; i < 3; i++ {
		got, err := GetOrLoadJSON(context.Background(), s, "k", time.Minute, load)
		if err != nil {
			t.Fatalf("GetOrLoadJSON: %v", err)
		}
		if len(got) != 1 || got[0].Name != "deel" {
			t.Fatalf("unexpected value %+v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("load called %d times, want 1", calls)
	}

	_ = s.Del(context.Background(), "k")
	if _, err := GetOrLoadJSON(context.Background(), s, "k", time.Minute, load); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("load called %d times after Del, want 2", calls)
	}
}

func TestGetOrLoadJSON_NilStoreLoadsDirectly(t *testing.T) {
	got, err := GetOrLoadJSON[item](context.Background(), nil, "k", time.Minute,
		func(context.Context) (item, error) { return item{Name: "hat"}, nil })
	if err != nil || got.Name != "hat" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestGetOrLoadJSON_ReloadsUndecodableEntry(t *testing.T) {
	s := &mapStore{data: map[string][]byte{"k": []byte(`{"name":`)}}
	got, err := GetOrLoadJSON(context.Background(), s, "k", time.Minute,
		func(context.Context) (item, error) { return item{Name: "boots", Price: 80}, nil })
	if err != nil || got.Name != "boots" {
		t.Fatalf("got %v, %v", got, err)
	}
	if s.loads != 1 || string(s.data["k"]) != `{"name":"boots","price":80}` {
		t.Fatalf("loads=%d data=%s", s.loads, s.data["k"])
	}
}

func TestGetOrLoadJSON_PropagatesLoadError(t *testing.T) {
	s := &mapStore{data: map[string][]byte{}}
	boom := errors.New("boom")
	_, err := GetOrLoadJSON(context.Background(), s, "k", time.Minute,
		func(context.Context) (item, error) { return item{}, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := s.data["k"]; ok {
		t.Fatal("failed load must not be cached")
	}
}
