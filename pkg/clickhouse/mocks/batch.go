package mocks

import (
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/mock"
)

// MockBatch is a mock driver.Batch. Only the methods used by repositories
// are mocked; calling any other method panics.
type MockBatch struct {
	mock.Mock
	driver.Batch
}

func (m *MockBatch) Append(v ...any) error {
	args := m.Called(v...)
	return args.Error(0)
}

func (m *MockBatch) Send() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockBatch) Abort() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockBatch) Rows() int {
	args := m.Called()
	return args.Int(0)
}
