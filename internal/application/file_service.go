package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/internal/infrastructure/storage"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
)

const (
	statsCacheKey = "files:stats"
	statsCacheTTL = 60 * time.Second
)

// FileConfig bounds an upload batch.
type FileConfig struct {
	MaxFileSize  int64
	MaxFiles     int
	AllowedTypes []string
}

// StatsCache is the optional cache in front of Stats (helpers.RedisCache).
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// UploadFile is one part of a multipart upload. Open may be called more
// than once; every returned reader is closed by the service.
type UploadFile struct {
	OriginalName string
	Size         int64
	DeclaredType string
	Open         func() (io.ReadCloser, error)
}

type FileService struct {
	Files       repo.FileRepository
	Issues      repo.IssueRepository
	Users       repo.UserRepository
	Blobs       storage.BlobStore
	Coordinator *Coordinator
	Cache       StatsCache
	Config      FileConfig
	Logger      logrus.FieldLogger
}

func NewFileService(files repo.FileRepository, issues repo.IssueRepository, users repo.UserRepository, blobs storage.BlobStore,
	co *Coordinator, cache StatsCache, cfg FileConfig, logger logrus.FieldLogger) *FileService {
	return &FileService{
		Files:       files,
		Issues:      issues,
		Users:       users,
		Blobs:       blobs,
		Coordinator: co,
		Cache:       cache,
		Config:      cfg,
		Logger:      logger,
	}
}

type FileIntegrity struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	Exists       bool   `json:"exists"`
	Size         int64  `json:"size"`
}

type IntegrityReport struct {
	IssueID       string          `json:"issueId"`
	TotalFiles    int             `json:"totalFiles"`
	ExistingFiles int             `json:"existingFiles"`
	MissingFiles  int             `json:"missingFiles"`
	Files         []FileIntegrity `json:"files"`
}

func (s *FileService) pop() populator {
	return populator{userRepo: s.Users, issueRepo: s.Issues}
}

func baseType(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
}

// contentType uses the declared type unless it is missing or generic, in
// which case the first bytes are sniffed.
func (s *FileService) contentType(f UploadFile) (string, error) {
	declared := baseType(f.DeclaredType)
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}
	rc, err := f.Open()
	if err != nil {
		return "", apperror.Wrap(apperror.KindFileUpload, "Could not read uploaded file", err)
	}
	defer rc.Close()
	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", apperror.Wrap(apperror.KindFileUpload, "Could not read uploaded file", err)
	}
	return baseType(mt.String()), nil
}

func (s *FileService) validateBatch(files []UploadFile) ([]string, error) {
	if len(files) == 0 {
		return nil, apperror.FileUpload("No files uploaded")
	}
	if s.Config.MaxFiles > 0 && len(files) > s.Config.MaxFiles {
		return nil, apperror.FileUpload(fmt.Sprintf("Too many files. Maximum is %d files per upload", s.Config.MaxFiles))
	}
	types := make([]string, len(files))
	for i, f := range files {
		if f.Size > s.Config.MaxFileSize {
			return nil, apperror.FileUpload(fmt.Sprintf("File too large. Maximum size is %d bytes", s.Config.MaxFileSize)).
				WithDetails(map[string]any{"file": f.OriginalName, "size": f.Size})
		}
		ct, err := s.contentType(f)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(s.Config.AllowedTypes, ct) {
			return nil, apperror.FileUpload("File type "+ct+" is not allowed").
				WithDetails(map[string]any{"file": f.OriginalName, "mimeType": ct})
		}
		types[i] = ct
	}
	return types, nil
}

// Upload stores the whole batch or nothing. Every blob and record written
// for the batch is removed before an error is returned.
func (s *FileService) Upload(ctx context.Context, actorID, issueID string, files []UploadFile) ([]FileView, error) {
	types, err := s.validateBatch(files)
	if err != nil {
		return nil, err
	}
	issue, err := s.Issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	if !issue.CanModify(actorID) {
		return nil, apperror.Authorization("Only the issue creator or assignee can upload files")
	}

	stored := make([]*entity.File, 0, len(files))
	for i, f := range files {
		rec, err := s.store(ctx, issue.ID, actorID, f, types[i])
		if err != nil {
			s.rollback(ctx, stored)
			return nil, err
		}
		stored = append(stored, rec)
	}
	s.invalidateStats(ctx)
	return s.pop().files(ctx, stored)
}

func (s *FileService) store(ctx context.Context, issueID, actorID string, f UploadFile, ct string) (*entity.File, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindFileUpload, "Could not read uploaded file", err)
	}
	defer rc.Close()

	key, storedName := storage.NewKey(issueID, f.OriginalName)
	loc, written, err := s.Blobs.Put(ctx, key, io.LimitReader(rc, s.Config.MaxFileSize+1), ct)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if written > s.Config.MaxFileSize {
		s.deleteBlob(ctx, loc)
		return nil, apperror.FileUpload(fmt.Sprintf("File too large. Maximum size is %d bytes", s.Config.MaxFileSize)).
			WithDetails(map[string]any{"file": f.OriginalName})
	}

	rec := &entity.File{
		StoredName:   storedName,
		OriginalName: f.OriginalName,
		MimeType:     ct,
		SizeBytes:    written,
		BlobPath:     loc,
		IssueID:      issueID,
		UploadedBy:   actorID,
	}
	if err := s.Coordinator.AttachFile(ctx, rec); err != nil {
		s.deleteBlob(ctx, loc)
		return nil, err
	}
	return rec, nil
}

func (s *FileService) rollback(ctx context.Context, stored []*entity.File) {
	for _, f := range stored {
		if err := s.Coordinator.DetachFile(ctx, f); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("file_id", f.ID).Error("upload rollback failed")
		}
	}
}

func (s *FileService) deleteBlob(ctx context.Context, loc string) {
	if err := s.Blobs.Delete(ctx, loc); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("blob", loc).Warn("orphan blob delete failed")
	}
}

func (s *FileService) Get(ctx context.Context, id string) (*FileView, error) {
	f, err := s.Files.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, msgFileNotFound)
	}
	views, err := s.pop().files(ctx, []*entity.File{f})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *FileService) ListForIssue(ctx context.Context, issueID string) ([]FileView, error) {
	if _, err := s.Issues.GetByID(ctx, issueID); err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	files, err := s.Files.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	return s.pop().files(ctx, files)
}

func (s *FileService) ListMine(ctx context.Context, actorID string, p ListParams) (*Page[FileView], error) {
	files, total, err := s.Files.ListByUploader(ctx, actorID, p.Options())
	if err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	views, err := s.pop().files(ctx, files)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, p), nil
}

// Download opens the blob of file id. The caller must close the reader.
// A record whose blob is gone is reported as NotFound.
func (s *FileService) Download(ctx context.Context, id string) (*FileView, io.ReadCloser, error) {
	f, err := s.Files.GetByID(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err, msgFileNotFound)
	}
	rc, err := s.Blobs.Open(ctx, f.BlobPath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			if s.Logger != nil {
				s.Logger.WithField("file_id", id).Warn("file record without blob")
			}
			return nil, nil, apperror.NotFound("File not found on storage")
		}
		return nil, nil, apperror.Internal(err)
	}
	views, err := s.pop().files(ctx, []*entity.File{f})
	if err != nil {
		rc.Close()
		return nil, nil, err
	}
	return &views[0], rc, nil
}

// Delete is open to the uploader and to the creator of the parent issue.
func (s *FileService) Delete(ctx context.Context, actorID, id string) error {
	f, err := s.Files.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, msgFileNotFound)
	}
	if f.UploadedBy != actorID {
		issue, err := s.Issues.GetByID(ctx, f.IssueID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return storeErr(err, msgIssueNotFound)
		}
		if issue == nil || !issue.IsCreator(actorID) {
			return apperror.Authorization("Only the uploader or the issue creator can delete this file")
		}
	}
	if err := s.Coordinator.DetachFile(ctx, f); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// ValidateIntegrity compares the issue's file records with the blob store.
// It reports and never repairs.
func (s *FileService) ValidateIntegrity(ctx context.Context, issueID string) (*IntegrityReport, error) {
	if _, err := s.Issues.GetByID(ctx, issueID); err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	files, err := s.Files.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, storeErr(err, msgIssueNotFound)
	}
	report := &IntegrityReport{IssueID: issueID, TotalFiles: len(files), Files: make([]FileIntegrity, 0, len(files))}
	for _, f := range files {
		size, exists, err := s.Blobs.Stat(ctx, f.BlobPath)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if exists {
			report.ExistingFiles++
		} else {
			report.MissingFiles++
		}
		report.Files = append(report.Files, FileIntegrity{ID: f.ID, OriginalName: f.OriginalName, Exists: exists, Size: size})
	}
	return report, nil
}

func (s *FileService) Stats(ctx context.Context) (*entity.FileStats, error) {
	if s.Cache != nil {
		var cached entity.FileStats
		if ok, err := s.Cache.GetJSON(ctx, statsCacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}
	st, err := s.Files.Stats(ctx)
	if err != nil {
		return nil, storeErr(err, msgFileNotFound)
	}
	if st.ByMimeType == nil {
		st.ByMimeType = []entity.MimeTypeStats{}
	}
	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, statsCacheKey, st, statsCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Debug("cache file stats failed")
		}
	}
	return st, nil
}

func (s *FileService) invalidateStats(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, statsCacheKey); err != nil && s.Logger != nil {
		s.Logger.WithError(err).Debug("invalidate file stats failed")
	}
}
