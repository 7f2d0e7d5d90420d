package ingest

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"

	"cybercrush-seeder/internal/domain"
)

// DrawPersonalNumbers выбирает n различных номеров из [1000, 10000) без возвращения.
func DrawPersonalNumbers(n int, rnd *rand.Rand) ([]string, error) {
	if n > domain.PersonalNumberCapacity {
		return nil, &domain.CapacityError{Requested: n, Capacity: domain.PersonalNumberCapacity}
	}
	if n <= 0 {
		return []string{}, nil
	}
	pool := make([]int, domain.PersonalNumberCapacity)
	for i := range pool {
		pool[i] = domain.PersonalNumberMin + i
	}
	// частичная перетасовка Фишера-Йетса: первые n позиций
	out := make([]string, n)
	for i := 0; i < n; i++ {
		j := i + rnd.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		out[i] = fmt.Sprintf("%04d", pool[i])
	}
	return out, nil
}

// NewRand возвращает генератор ChaCha8 с зерном из crypto/rand.
func NewRand() (*rand.Rand, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("seed personal number generator: %w", err)
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}
