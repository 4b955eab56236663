package geocode

import (
	"context"
	"sync"

	"TripMate/pkg/errors"
)

// MockClient 可配置的地点搜索 mock，实现 Client 接口
type MockClient struct {
	mu     sync.Mutex
	Places map[string][]Place
	Calls  []string

	// FailNext 置为 true 时，下一次调用返回 GeocodeUnavailable 并自动复位
	FailNext bool
}

func NewMockClient() *MockClient {
	return &MockClient{
		Places: make(map[string][]Place),
		Calls:  make([]string, 0),
	}
}

// Add 预置某个查询的结果
func (m *MockClient) Add(query string, places ...Place) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Places[NormalizeQuery(query)] = places
}

func (m *MockClient) Search(ctx context.Context, query string) ([]Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, query)

	if m.FailNext {
		m.FailNext = false
		return nil, errors.GeocodeUnavailable
	}

	places := m.Places[NormalizeQuery(query)]
	out := make([]Place, len(places))
	copy(out, places)
	return out, nil
}

func (m *MockClient) Provider() string {
	return "mock"
}

func (m *MockClient) Available() bool {
	return true
}

// CallCount 已调用次数
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
