package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nurseprep_backend/internal/model"
	"nurseprep_backend/internal/repository"
	"nurseprep_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const questionCacheKey = "qbank:question:%d"

// QuestionService 只读题目查询，Redis 缓存热点题目内容
type QuestionService struct {
	Repo     *repository.QuestionRepository
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewQuestionService(repo *repository.QuestionRepository, rdb *redis.Client, cacheTTL time.Duration) *QuestionService {
	return &QuestionService{
		Repo:     repo,
		Redis:    rdb,
		CacheTTL: cacheTTL,
	}
}

func (s *QuestionService) GetQuestion(ctx context.Context, id uint) (*model.Question, error) {
	key := fmt.Sprintf(questionCacheKey, id)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, key).Result(); err == nil {
			var q model.Question
			if json.Unmarshal([]byte(cached), &q) == nil {
				return &q, nil
			}
		}
	}

	q, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(q); err == nil {
			if err := s.Redis.Set(ctx, key, data, s.CacheTTL).Err(); err != nil {
				logger.Log.Warn("question cache set failed", zap.Uint("questionId", id), zap.Error(err))
			}
		}
	}
	return q, nil
}

// GetQuestions 批量查询并按 id 建索引；缓存未命中的统一回源
func (s *QuestionService) GetQuestions(ctx context.Context, ids []uint) (map[uint]model.Question, error) {
	result := make(map[uint]model.Question, len(ids))
	var misses []uint

	for _, id := range ids {
		if s.Redis == nil {
			misses = append(misses, id)
			continue
		}
		key := fmt.Sprintf(questionCacheKey, id)
		cached, err := s.Redis.Get(ctx, key).Result()
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var q model.Question
		if json.Unmarshal([]byte(cached), &q) != nil {
			misses = append(misses, id)
			continue
		}
		result[q.ID] = q
	}

	if len(misses) > 0 {
		qs, err := s.Repo.FindByIDs(misses)
		if err != nil {
			return nil, err
		}
		for _, q := range qs {
			result[q.ID] = q
			if s.Redis != nil {
				if data, err := json.Marshal(q); err == nil {
					s.Redis.Set(ctx, fmt.Sprintf(questionCacheKey, q.ID), data, s.CacheTTL)
				}
			}
		}
	}
	return result, nil
}

// PickIDs 按静态条件随机抽题
func (s *QuestionService) PickIDs(f repository.QuestionFilter, count int) ([]uint, error) {
	return s.Repo.PickIDs(f, count)
}

// Invalidate 题目更新后清除缓存
func (s *QuestionService) Invalidate(ctx context.Context, id uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, fmt.Sprintf(questionCacheKey, id)).Err(); err != nil {
		logger.Log.Warn("question cache invalidate failed", zap.Uint("questionId", id), zap.Error(err))
	}
}
