package sync

import (
	"context"

	"github.com/openmined/dirsync/internal/syncsdk"
	"github.com/stretchr/testify/mock"
)

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockRemote) Checksum(ctx context.Context, name string) (*syncsdk.ChecksumResponse, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncsdk.ChecksumResponse), args.Error(1)
}

func (m *MockRemote) Upload(ctx context.Context, name string, path string) (*syncsdk.UploadResponse, error) {
	args := m.Called(ctx, name, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncsdk.UploadResponse), args.Error(1)
}

func (m *MockRemote) UploadChunk(ctx context.Context, name string, index int, data []byte) (int, error) {
	args := m.Called(ctx, name, index, data)
	return args.Int(0), args.Error(1)
}

func (m *MockRemote) Truncate(ctx context.Context, name string, length int64) (int64, error) {
	args := m.Called(ctx, name, length)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRemote) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
