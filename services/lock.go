package services

import "sync"

// tournamentLocks выстраивает изменения структуры одного турнира в
// очередь. Запись, правка и удаление результата читают состояние,
// прогоняют движок и коммитят транзакцию под одним замком: без него два
// параллельных запроса прочитали бы один и тот же узел как готовый и
// оба записали бы результат. Разные турниры друг другу не мешают.
type tournamentLocks struct {
	mu   sync.Mutex
	byID map[int]*sync.Mutex
}

func newTournamentLocks() *tournamentLocks {
	return &tournamentLocks{byID: make(map[int]*sync.Mutex)}
}

// Lock захватывает замок турнира и возвращает функцию освобождения.
func (l *tournamentLocks) Lock(tournamentID int) func() {
	l.mu.Lock()
	m, ok := l.byID[tournamentID]
	if !ok {
		m = &sync.Mutex{}
		l.byID[tournamentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
