// Package cache stellt einen get-or-compute Cache ohne Ablaufzeit bereit.
// Werte sind Spaltenmengen; einmal berechnet bleiben sie bis zu einem
// expliziten Forget oder Prozessende gültig.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store ist der Memoisierungs-Vertrag des Introspectors. Implementierungen
// müssen nebenläufig nutzbar sein; eine doppelte Berechnung bei einem
// Erstzugriffs-Rennen ist zulässig, da die Werte deterministisch sind.
type Store interface {
	GetOrCompute(key string, compute func() ([]string, error)) ([]string, error)
	Forget(key string)
}

// Memory ist ein prozessweiter In-Memory-Store auf LRU-Basis. Die Kapazität
// begrenzt nur die Anzahl der Einträge, es gibt keine Ablaufzeit.
type Memory struct {
	c *lru.Cache[string, []string]
}

// NewMemory erstellt einen Memory-Store. size <= 0 wählt eine Kapazität, die
// für die Tabellenanzahl üblicher Schemata weit ausreicht.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 1024
	}
	c, _ := lru.New[string, []string](size)
	return &Memory{c: c}
}

func (m *Memory) GetOrCompute(key string, compute func() ([]string, error)) ([]string, error) {
	if v, ok := m.c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	m.c.Add(key, v)
	return v, nil
}

func (m *Memory) Forget(key string) {
	m.c.Remove(key)
}
