// Package keylock реализует набор мьютексов, адресуемых строковым ключом.
//
// Используется для сериализации конкурентных запросов одного пользователя:
// включение/выключение сессии и мутации корзины выполняются под блокировкой
// по идентификатору пользователя, чтобы двойная отправка запроса не приводила
// к дублированию корзины или лишней ротации токенов.
package keylock

import "sync"

// KeyLock хранит мьютексы по ключам. Нулевое значение непригодно,
// используйте New.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New создает новый KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock захватывает мьютекс для ключа key, создавая его при необходимости.
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock освобождает мьютекс для ключа key. Мьютекс без ожидающих
// удаляется из набора, чтобы карта не росла бесконечно.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
