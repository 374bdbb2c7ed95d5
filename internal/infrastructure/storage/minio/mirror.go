package minio

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
)

const (
	metaRunID  = "Run-Id"
	metaSHA256 = "Sha256"
	metaSource = "Source-Path"
)

var _ ontology.BackupMirror = (*MinIOClient)(nil)

// ObjectKey returns the object name a local file is mirrored under.
func (c *MinIOClient) ObjectKey(localPath string) string {
	return path.Join(c.config.Prefix, filepath.Base(localPath))
}

// Mirror uploads the backup and its manifest. The backup object carries the
// run id and checksum as user metadata.
func (c *MinIOClient) Mirror(ctx context.Context, m *ontology.BackupManifest) error {
	meta := map[string]string{
		metaRunID:  m.RunID,
		metaSHA256: m.SHA256,
		metaSource: m.SourcePath,
	}
	if err := c.upload(ctx, m.BackupPath, "application/yaml", meta); err != nil {
		return err
	}
	if m.ManifestPath != "" {
		if err := c.upload(ctx, m.ManifestPath, "application/json", meta); err != nil {
			return err
		}
	}
	c.logger.Info("Backup mirrored",
		logging.String("bucket", c.config.Bucket),
		logging.String("object", c.ObjectKey(m.BackupPath)))
	return nil
}

func (c *MinIOClient) upload(ctx context.Context, local, contentType string, meta map[string]string) error {
	f, err := os.Open(local)
	if err != nil {
		return errors.Persistence(err, "failed to open backup for mirroring").WithDetail(local)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return errors.Persistence(err, "failed to stat backup for mirroring").WithDetail(local)
	}

	key := c.ObjectKey(local)
	_, err = c.client.PutObject(ctx, c.config.Bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload backup").WithDetail(c.config.Bucket + "/" + key)
	}
	return nil
}

// MirroredBackup describes one backup object in the bucket.
type MirroredBackup struct {
	Key    string
	Size   int64
	RunID  string
	SHA256 string
}

// ListBackups returns mirrored backups (manifests excluded) ordered by key.
func (c *MinIOClient) ListBackups(ctx context.Context) ([]MirroredBackup, error) {
	var out []MirroredBackup
	for obj := range c.client.ListObjects(ctx, c.config.Bucket, minio.ListObjectsOptions{
		Prefix:       c.config.Prefix,
		Recursive:    true,
		WithMetadata: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeExternalService, "failed to list backups").WithDetail(c.config.Bucket)
		}
		if strings.HasSuffix(obj.Key, ".manifest.json") {
			continue
		}
		out = append(out, MirroredBackup{
			Key:    obj.Key,
			Size:   obj.Size,
			RunID:  userMeta(obj.UserMetadata, metaRunID),
			SHA256: userMeta(obj.UserMetadata, metaSHA256),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// userMeta reads a metadata value whether or not the server kept the
// X-Amz-Meta- prefix.
func userMeta(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return m["X-Amz-Meta-"+key]
}

//Personal.AI order the ending
