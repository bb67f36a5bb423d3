package tariff

import (
	"fmt"
	"sort"
	"sync"

	"github.com/levenlabs/go-lflag"
	"github.com/wattshift/wattshift/pkg/types"
)

// Configured sets up the tariff registry based on flags. The default
// time-of-use table is always present; operators add regional tables
// with the -tariff-tables JSON flag.
func Configured() *Map {
	m := NewMap()
	m.SetTable(Default())

	var extra []types.Tariff
	lflag.JSON(&extra, "tariff-tables", extra, "JSON list of additional tariff definitions to serve")

	lflag.Do(func() {
		for _, t := range extra {
			tb, err := New(t)
			if err != nil {
				panic(fmt.Sprintf("invalid tariff table: %v", err))
			}
			m.SetTable(tb)
		}
	})

	return m
}

// Map manages the tariff tables served by this process, keyed by
// tariff ID.
type Map struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// NewMap creates an empty tariff Map.
func NewMap() *Map {
	return &Map{
		tables: make(map[string]*Table),
	}
}

// Table returns the table for the given tariff ID. An empty ID
// resolves to the default tariff.
func (m *Map) Table(id string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = DefaultTariffID
	}
	if tb, ok := m.tables[id]; ok {
		return tb, nil
	}
	return nil, fmt.Errorf("unknown tariff: %s", id)
}

// SetTable registers a table under its tariff ID. This is also used by
// tests to inject tables.
func (m *Map) SetTable(tb *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[tb.ID()] = tb
}

// List returns the registered tariffs sorted by ID.
func (m *Map) List() []types.TariffInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.TariffInfo, 0, len(m.tables))
	for _, tb := range m.tables {
		out = append(out, tb.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
