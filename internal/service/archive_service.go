package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nurseprep_backend/internal/config"
	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/util"
	"nurseprep_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ArchiveService 把完成的会话快照写入 MinIO，供离线分析使用
type ArchiveService struct {
	client *minio.Client
	bucket string
}

func NewArchiveService(cfg config.StorageConfig) (*ArchiveService, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init failed: %w", err)
	}

	svc := &ArchiveService{client: client, bucket: cfg.MinioBucket}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		logger.Log.Warn("minio bucket check failed", zap.String("bucket", cfg.MinioBucket), zap.Error(err))
		return svc, nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			logger.Log.Warn("minio bucket create failed", zap.String("bucket", cfg.MinioBucket), zap.Error(err))
		}
	}
	return svc, nil
}

// attemptSnapshot 归档载荷，自包含，不依赖数据库再查询
type attemptSnapshot struct {
	ArchivedAt time.Time              `json:"archivedAt"`
	Attempt    *model.TestAttempt     `json:"attempt"`
	Details    []model.QuestionDetail `json:"details"`
}

// ArchiveAttempt 序列化快照并上传，返回对象名
func (s *ArchiveService) ArchiveAttempt(ctx context.Context, attempt *model.TestAttempt, details []model.QuestionDetail) (string, error) {
	snapshot := attemptSnapshot{
		ArchivedAt: time.Now(),
		Attempt:    attempt,
		Details:    details,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}

	// 按日期分片，方便离线分析按天拉取
	objectName := fmt.Sprintf("attempts/%s/%d-%s.json", snapshot.ArchivedAt.Format(util.DateFormat), attempt.ID, uuid.New().String())
	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}
