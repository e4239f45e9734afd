// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"slices"
	"sync"
)

// Observer is notified whenever the reconciled properties may have changed
// wholesale: after a load, a reset, a delete or a preset application.
type Observer interface {
	OnPropertiesReloaded()
}

// ObserverFunc is a function which implements the [Observer] interface.
type ObserverFunc func()

// OnPropertiesReloaded implements the [Observer] interface.
func (f ObserverFunc) OnPropertiesReloaded() {
	f()
}

// FileRefresher is told every time the properties file is written, so it
// can refresh any cached view of the file.
type FileRefresher interface {
	Refresh(path string)
}

// RefresherFunc is a function which implements the [FileRefresher] interface.
type RefresherFunc func(path string)

// Refresh implements the [FileRefresher] interface.
func (f RefresherFunc) Refresh(path string) {
	f(path)
}

// Subscription is returned when registering an observer or an error listener.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops any further notifications. It is safe to call more
// than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

func newListeners() *listeners {
	return &listeners{
		observers: make(map[int]Observer),
		onError:   make(map[int]func(error)),
	}
}

type listeners struct {
	mu        sync.Mutex
	next      int
	observers map[int]Observer
	onError   map[int]func(error)
}

func (l *listeners) subscribe(o Observer) *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.next
	l.next++
	l.observers[id] = o
	return &Subscription{cancel: func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.observers, id)
	}}
}

func (l *listeners) subscribeErrors(f func(error)) *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.next
	l.next++
	l.onError[id] = f
	return &Subscription{cancel: func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.onError, id)
	}}
}

// reloaded notifies observers in registration order without holding the lock.
func (l *listeners) reloaded() {
	for _, o := range snapshot(&l.mu, l.observers) {
		o.OnPropertiesReloaded()
	}
}

func (l *listeners) publish(err error) {
	for _, f := range snapshot(&l.mu, l.onError) {
		f(err)
	}
}

func snapshot[T any](mu *sync.Mutex, m map[int]T) []T {
	mu.Lock()
	defer mu.Unlock()

	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	xs := make([]T, 0, len(ids))
	for _, id := range ids {
		xs = append(xs, m[id])
	}
	return xs
}
