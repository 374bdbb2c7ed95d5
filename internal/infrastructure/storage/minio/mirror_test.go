package minio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
)

type mockMinIOAPI struct {
	mock.Mock
	bodies map[string]string
}

func (m *mockMinIOAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *mockMinIOAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucket, opts).Error(0)
}

func (m *mockMinIOAPI) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	body, _ := io.ReadAll(r)
	if m.bodies == nil {
		m.bodies = make(map[string]string)
	}
	m.bodies[object] = string(body)
	args := m.Called(ctx, bucket, object, size, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockMinIOAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return m.Called(ctx, bucket, opts).Get(0).(<-chan minio.ObjectInfo)
}

type MirrorTestSuite struct {
	suite.Suite
	api    *mockMinIOAPI
	client *MinIOClient
	dir    string
}

func (s *MirrorTestSuite) SetupTest() {
	s.api = &mockMinIOAPI{}
	s.client = newWithAPI(s.api, &MinIOConfig{Bucket: "backups"}, nil)
	s.dir = s.T().TempDir()
}

func (s *MirrorTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *MirrorTestSuite) writeFile(name, content string) string {
	p := filepath.Join(s.dir, name)
	require.NoError(s.T(), os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (s *MirrorTestSuite) TestDefaults() {
	s.Equal("us-east-1", s.client.config.Region)
	s.Equal("dictionary-backups/", s.client.config.Prefix)
	s.Equal("dictionary-backups/m_backup.yaml", s.client.ObjectKey("/var/x/m_backup.yaml"))
}

func (s *MirrorTestSuite) TestEnsureBucket_Creates() {
	s.api.On("BucketExists", mock.Anything, "backups").Return(false, nil).Once()
	s.api.On("MakeBucket", mock.Anything, "backups", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil).Once()
	s.NoError(s.client.EnsureBucket(context.Background()))
}

func (s *MirrorTestSuite) TestEnsureBucket_Exists() {
	s.api.On("BucketExists", mock.Anything, "backups").Return(true, nil).Once()
	s.NoError(s.client.EnsureBucket(context.Background()))
}

func (s *MirrorTestSuite) TestEnsureBucket_Unreachable() {
	s.api.On("BucketExists", mock.Anything, "backups").Return(false, assert.AnError).Once()
	err := s.client.EnsureBucket(context.Background())
	s.True(errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func (s *MirrorTestSuite) TestMirror_UploadsBackupAndManifest() {
	backup := s.writeFile("m_backup_1.yaml", "entities: {}\n")
	manifest := s.writeFile("m_backup_1.yaml.manifest.json", `{"run_id":"r"}`)
	m := &ontology.BackupManifest{RunID: "r", SHA256: "abc", SourcePath: "m.yaml", BackupPath: backup, ManifestPath: manifest}

	meta := map[string]string{metaRunID: "r", metaSHA256: "abc", metaSource: "m.yaml"}
	s.api.On("PutObject", mock.Anything, "backups", "dictionary-backups/m_backup_1.yaml", int64(13),
		minio.PutObjectOptions{ContentType: "application/yaml", UserMetadata: meta}).
		Return(minio.UploadInfo{}, nil).Once()
	s.api.On("PutObject", mock.Anything, "backups", "dictionary-backups/m_backup_1.yaml.manifest.json", int64(14),
		minio.PutObjectOptions{ContentType: "application/json", UserMetadata: meta}).
		Return(minio.UploadInfo{}, nil).Once()

	s.Require().NoError(s.client.Mirror(context.Background(), m))
	s.Equal("entities: {}\n", s.api.bodies["dictionary-backups/m_backup_1.yaml"])
}

func (s *MirrorTestSuite) TestMirror_UploadFailure() {
	backup := s.writeFile("b.yaml", "x")
	s.api.On("PutObject", mock.Anything, "backups", "dictionary-backups/b.yaml", int64(1), mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError).Once()
	err := s.client.Mirror(context.Background(), &ontology.BackupManifest{BackupPath: backup})
	s.True(errors.IsCode(err, errors.ErrCodeExternalService))
}

func (s *MirrorTestSuite) TestMirror_MissingFile() {
	err := s.client.Mirror(context.Background(), &ontology.BackupManifest{BackupPath: filepath.Join(s.dir, "absent.yaml")})
	s.True(errors.IsPersistence(err))
}

func (s *MirrorTestSuite) TestListBackups() {
	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "dictionary-backups/b.yaml", Size: 2, UserMetadata: minio.StringMap{"X-Amz-Meta-Run-Id": "r2"}}
	ch <- minio.ObjectInfo{Key: "dictionary-backups/b.yaml.manifest.json"}
	ch <- minio.ObjectInfo{Key: "dictionary-backups/a.yaml", Size: 1, UserMetadata: minio.StringMap{"Run-Id": "r1", "Sha256": "s"}}
	close(ch)
	s.api.On("ListObjects", mock.Anything, "backups", mock.Anything).Return((<-chan minio.ObjectInfo)(ch)).Once()

	got, err := s.client.ListBackups(context.Background())
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(MirroredBackup{Key: "dictionary-backups/a.yaml", Size: 1, RunID: "r1", SHA256: "s"}, got[0])
	s.Equal("r2", got[1].RunID)
}

func TestMirrorTestSuite(t *testing.T) {
	suite.Run(t, new(MirrorTestSuite))
}

//Personal.AI order the ending
