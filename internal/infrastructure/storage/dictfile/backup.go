package dictfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/turtacn/OntoGround/internal/domain/ontology"
	"github.com/turtacn/OntoGround/pkg/errors"
)

const (
	backupTimeLayout = "20060102_150405"
	manifestSuffix   = ".manifest.json"
	runIDPrefixLen   = 8
)

// BackupName returns the backup file name for source taken by runID at the
// formatted time stamp: <stem>_backup_<YYYYmmdd_HHMMSS>_<run8><ext>.
func BackupName(source, stamp, runID string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	run := strings.ReplaceAll(runID, "-", "")
	if len(run) > runIDPrefixLen {
		run = run[:runIDPrefixLen]
	}
	name := stem + "_backup_" + stamp
	if run != "" {
		name += "_" + run
	}
	return name + ext
}

func (s *Store) backup(runID string, data []byte, perm os.FileMode) (*ontology.BackupManifest, error) {
	dir := s.opts.BackupDir
	if dir == "" {
		dir = filepath.Dir(s.path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Persistence(err, "failed to create backup directory").WithDetail(dir)
	}

	now := s.opts.Now().UTC()
	backupPath := filepath.Join(dir, BackupName(s.path, now.Format(backupTimeLayout), runID))
	if err := renameio.WriteFile(backupPath, data, perm); err != nil {
		return nil, errors.Persistence(err, "failed to write dictionary backup").WithDetail(backupPath)
	}

	sum := sha256.Sum256(data)
	m := &ontology.BackupManifest{
		RunID:        runID,
		SourcePath:   s.path,
		BackupPath:   backupPath,
		ManifestPath: backupPath + manifestSuffix,
		CreatedAt:    now,
		SHA256:       hex.EncodeToString(sum[:]),
		SizeBytes:    int64(len(data)),
	}
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode backup manifest")
	}
	if err := renameio.WriteFile(m.ManifestPath, body, 0o644); err != nil {
		return nil, errors.Persistence(err, "failed to write backup manifest").WithDetail(m.ManifestPath)
	}
	return m, nil
}

// ReadManifest loads the manifest at path.
func ReadManifest(path string) (*ontology.BackupManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Persistence(err, "failed to read backup manifest").WithDetail(path)
	}
	var m ontology.BackupManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "backup manifest is corrupt").WithDetail(path)
	}
	m.ManifestPath = path
	return &m, nil
}

// VerifyBackup checks the backup file against its manifest checksum.
func VerifyBackup(m *ontology.BackupManifest) error {
	data, err := os.ReadFile(m.BackupPath)
	if err != nil {
		return errors.Persistence(err, "failed to read dictionary backup").WithDetail(m.BackupPath)
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != m.SHA256 || int64(len(data)) != m.SizeBytes {
		return errors.Persistence(nil, "dictionary backup does not match its manifest").
			WithDetailf("%s sha256=%s want=%s", m.BackupPath, got, m.SHA256)
	}
	return nil
}

//Personal.AI order the ending
