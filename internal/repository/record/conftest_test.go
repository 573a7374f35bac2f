package record

import (
	"cmp"
	"context"
	"slices"
	"testing"

	"github.com/kailas-cloud/formdex/internal/db"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
)

type zmember struct {
	score  float64
	member string
}

// memStore is an in-memory implementation of the consumer interface.
type memStore struct {
	kv    map[string][]byte
	zsets map[string][]zmember

	// failKey, when set, fails writes to matching keys.
	failKey func(key string) error
	mgets   int
}

func newMemStore() *memStore {
	return &memStore{kv: map[string][]byte{}, zsets: map[string][]zmember{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	m.mgets++
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.kv[k]
	}
	return out, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	if m.failKey != nil {
		if err := m.failKey(key); err != nil {
			return err
		}
	}
	m.kv[key] = value
	return nil
}

func (m *memStore) SetNX(_ context.Context, key string, value []byte) (bool, error) {
	if m.failKey != nil {
		if err := m.failKey(key); err != nil {
			return false, err
		}
	}
	if _, ok := m.kv[key]; ok {
		return false, nil
	}
	m.kv[key] = value
	return true, nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	delete(m.kv, key)
	delete(m.zsets, key)
	return nil
}

func (m *memStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	if m.failKey != nil {
		if err := m.failKey(key); err != nil {
			return err
		}
	}
	set := slices.DeleteFunc(m.zsets[key], func(z zmember) bool { return z.member == member })
	set = append(set, zmember{score: score, member: member})
	slices.SortFunc(set, func(a, b zmember) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(a.member, b.member)
	})
	m.zsets[key] = set
	return nil
}

func (m *memStore) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	set := m.zsets[key]
	n := int64(len(set))
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	var out []string
	for i := start; i <= stop; i++ {
		out = append(out, set[i].member)
	}
	return out, nil
}

func (m *memStore) ZRem(_ context.Context, key string, members ...string) error {
	m.zsets[key] = slices.DeleteFunc(m.zsets[key], func(z zmember) bool {
		return slices.Contains(members, z.member)
	})
	return nil
}

func (m *memStore) ZCard(_ context.Context, key string) (int64, error) {
	return int64(len(m.zsets[key])), nil
}

func newTestRepo(t *testing.T) (*Repo, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(ms), ms
}

func testRecord(id string, kind domsub.Kind, phone, email string, createdAt int64) domsub.Record {
	sec := domsub.NewSection("personalDetails", []domsub.Entry{
		{Name: "fullName", Value: value.String("Alice")},
		{Name: "phone", Value: value.String(phone)},
	})
	return domsub.New("acme", kind, []domsub.Section{sec}, domsub.Identity{
		ApplicantName: "Alice",
		Phone:         phone,
		Email:         email,
		Address:       domsub.Address{City: "Pune"},
	}).
		WithID(id).
		WithSearchIndex("fullname:alice phone:" + phone).
		WithTimestamps(createdAt, createdAt)
}
