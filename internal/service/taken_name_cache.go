package service

import (
	"context"
	"sync"
	"time"
)

const (
	namespaceUsername = "username"
	namespaceNickname = "nickname"
)

// TakenNameCacheStore caches names known to be taken so repeated availability
// checks from the signup form skip the database. Only positive "taken" facts
// are cached; a miss always falls through to the store.
type TakenNameCacheStore interface {
	Get(ctx context.Context, namespace, name string) (bool, error)
	Set(ctx context.Context, namespace, name string, ttl time.Duration) error
}

type NoopTakenNameCacheStore struct{}

func NewNoopTakenNameCacheStore() *NoopTakenNameCacheStore {
	return &NoopTakenNameCacheStore{}
}

func (s *NoopTakenNameCacheStore) Get(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *NoopTakenNameCacheStore) Set(context.Context, string, string, time.Duration) error {
	return nil
}

type InMemoryTakenNameCacheStore struct {
	mu    sync.RWMutex
	store map[string]map[string]time.Time
}

func NewInMemoryTakenNameCacheStore() *InMemoryTakenNameCacheStore {
	return &InMemoryTakenNameCacheStore{
		store: make(map[string]map[string]time.Time),
	}
}

func (s *InMemoryTakenNameCacheStore) Get(_ context.Context, namespace, name string) (bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	ns, ok := s.store[namespace]
	if !ok {
		s.mu.RUnlock()
		return false, nil
	}
	expiresAt, ok := ns[name]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		s.mu.Lock()
		if ns2, ok2 := s.store[namespace]; ok2 {
			delete(ns2, name)
			if len(ns2) == 0 {
				delete(s.store, namespace)
			}
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (s *InMemoryTakenNameCacheStore) Set(_ context.Context, namespace, name string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.store[namespace]
	if !ok {
		ns = make(map[string]time.Time)
		s.store[namespace] = ns
	}
	ns[name] = time.Now().UTC().Add(ttl)
	return nil
}
