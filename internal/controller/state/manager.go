package state

import "sync"

// Manager хранит шаги диалогов в памяти процесса.
// После рестарта бота незавершённые диалоги теряются.
type Manager struct {
	mu      sync.RWMutex
	dialogs map[int64]UserData // telegramID -> диалог
}

func NewManager() *Manager {
	return &Manager{dialogs: make(map[int64]UserData)}
}

// Begin начинает диалог; данные предыдущего диалога стираются.
// data копируется, вызывающий может менять свою map дальше.
func (sm *Manager) Begin(telegramID int64, state UserState, data map[string]string) {
	if state == StateNone {
		sm.ClearState(telegramID)
		return
	}

	copied := make(map[string]string, len(data))
	for k, v := range data {
		copied[k] = v
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.dialogs[telegramID] = UserData{State: state, Data: copied}
}

// GetState текущий шаг или StateNone
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.dialogs[telegramID].State
}

// GetString данные диалога; пустая строка если ключа или диалога нет
func (sm *Manager) GetString(telegramID int64, key string) string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.dialogs[telegramID].Data[key]
}

// ClearState завершает диалог
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.dialogs, telegramID)
}
