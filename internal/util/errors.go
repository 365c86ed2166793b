package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrQBankNotFound     = errors.New("qbank not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	ErrEmptyQuestionSet        = errors.New("question set is empty")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrQuestionNotInAttempt    = errors.New("question not in attempt")
	ErrAttemptNotStarted       = errors.New("attempt not started")
	ErrAttemptAlreadyFinalized = errors.New("attempt already finalized")
	ErrAttemptExpired          = errors.New("attempt time limit expired")
)
