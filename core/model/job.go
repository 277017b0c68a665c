package model

import (
	"context"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/google/uuid"
)

// Job は1回の長時間計算を識別する
type Job struct {
	// ID は JobTracker が発行する単調増加の番号
	ID uint64
	// RunID はログ相関用の一意なID
	RunID string

	release context.CancelCauseFunc
}

// Release はジョブのコンテキストを解放する
// 完了後に呼び出すこと（置き換え済みのジョブに対しても安全）。
func (j *Job) Release() {
	if j.release != nil {
		j.release(nil)
	}
}

// JobTracker は協調的キャンセルのためのジョブ番号を管理する
// 新しいジョブを開始すると、直前のジョブのコンテキストは
// 原因 ErrSuperseded でキャンセルされる。
type JobTracker struct {
	mu     sync.Mutex
	latest uint64
	cancel context.CancelCauseFunc
}

// NewJobTracker は新しいJobTrackerを作成する
func NewJobTracker() *JobTracker {
	return &JobTracker{}
}

type jobKey struct{}

// Start は新しいジョブを開始し、そのジョブ用のコンテキストを返す
func (t *JobTracker) Start(parent context.Context) (context.Context, *Job) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel(errors.ErrSuperseded)
	}
	t.latest++

	ctx, cancel := context.WithCancelCause(parent)
	t.cancel = cancel

	job := &Job{ID: t.latest, RunID: uuid.NewString(), release: cancel}
	return context.WithValue(ctx, jobKey{}, job), job
}

// Latest は最後に発行されたジョブ番号を返す
func (t *JobTracker) Latest() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// IsCurrent は id が最新のジョブかどうかを返す
// 古いジョブの結果を表示しないために使う。
func (t *JobTracker) IsCurrent(id uint64) bool {
	return t.Latest() == id
}

// JobFromContext はコンテキストに紐づくジョブを返す
func JobFromContext(ctx context.Context) (*Job, bool) {
	job, ok := ctx.Value(jobKey{}).(*Job)
	return job, ok
}

// Checkpoint は協調的な中断点
// プロセッサを一度譲り、コンテキストが終了していればその原因を返す。
// 新しいジョブに置き換えられた場合のみ errors.ErrSuperseded にマッチする
// （シグナルや兄弟タスクの失敗による終了は原因のまま返す）。
func Checkpoint(ctx context.Context) error {
	runtime.Gosched()
	if ctx.Err() == nil {
		return nil
	}
	return errors.WithStack(context.Cause(ctx))
}

// IsSuperseded は err が「結果なし」を意味するかどうかを返す
func IsSuperseded(err error) bool {
	return errors.Is(err, errors.ErrSuperseded)
}
