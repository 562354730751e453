package contract

import (
	"context"

	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, args)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// Clone implements the GitClient interface.
func (m *MockGitClient) Clone(ctx context.Context, repoURL string, dest string) error {
	return m.Called(ctx, repoURL, dest).Error(0)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetCommitLog implements the GitClient interface.
func (m *MockGitClient) GetCommitLog(ctx context.Context, repoPath string) ([]byte, error) {
	ret := m.Called(ctx, repoPath)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// MockActivitySource is a mock implementation of ActivitySource for testing.
type MockActivitySource struct {
	mock.Mock
}

var _ ActivitySource = &MockActivitySource{} // Compile-time check

// FetchSnapshot implements the ActivitySource interface.
func (m *MockActivitySource) FetchSnapshot(ctx context.Context, owner, repo string) (*schema.Snapshot, error) {
	ret := m.Called(ctx, owner, repo)
	snap, _ := ret.Get(0).(*schema.Snapshot)
	return snap, ret.Error(1)
}

// MockRegistryClient is a mock implementation of RegistryClient for testing.
type MockRegistryClient struct {
	mock.Mock
}

var _ RegistryClient = &MockRegistryClient{} // Compile-time check

// FetchPackage implements the RegistryClient interface.
func (m *MockRegistryClient) FetchPackage(ctx context.Context, name string) (*schema.PackageMetadata, error) {
	ret := m.Called(ctx, name)
	meta, _ := ret.Get(0).(*schema.PackageMetadata)
	return meta, ret.Error(1)
}
