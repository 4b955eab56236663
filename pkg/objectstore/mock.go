package objectstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"TripMate/pkg/errors"
)

type MockObject struct {
	ContentType string
	Data        []byte
}

// MockClient 内存对象存储，实现 Client 接口
type MockClient struct {
	mu      sync.Mutex
	Objects map[string]MockObject

	// FailNext 置为 true 时，下一次上传返回 StorageUnavailable 并自动复位
	FailNext bool
}

func NewMockClient() *MockClient {
	return &MockClient{Objects: make(map[string]MockObject)}
}

func (m *MockClient) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return "", errors.StorageUnavailable
	}

	m.Objects[key] = MockObject{ContentType: contentType, Data: data}
	return "https://mock-storage.local/" + key, nil
}
