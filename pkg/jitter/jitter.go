// Package jitter добавляет случайность в интервалы повторных попыток,
// чтобы переподключения не происходили синхронно.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает d со случайной добавкой в диапазоне [d, d*(1+factor)].
func Duration(d time.Duration, factor float64) time.Duration {
	randMutex.Lock()
	add := globalRand.Float64() * factor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(add)
}

// Backoff вычисляет экспоненциальную задержку с джиттером для попытки attempt
// (нумерация с нуля), ограниченную max.
func Backoff(base, max time.Duration, attempt int, factor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	return Duration(backoff, factor)
}
