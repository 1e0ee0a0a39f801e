package usecase

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/m-mizutani/goerr/v2"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

const DefaultHistoryLimit = 20

type HistoryUsecase struct {
	Store RunStore
}

func NewHistoryUsecase(store RunStore) *HistoryUsecase {
	return &HistoryUsecase{Store: store}
}

func (u *HistoryUsecase) Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	runs, err := u.Store.GetRecentRuns(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list runs")
	}
	return runs, nil
}

// Find returns the run with the given id, or the latest run when id is empty.
func (u *HistoryUsecase) Find(ctx context.Context, id string) (*entity.RunRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return u.Store.GetLatestRun(ctx)
	}
	return u.Store.GetRun(ctx, id)
}

// NotNewer reports whether current is a version lower than or equal to last.
// Unparseable versions are never reported.
func NotNewer(current, last string) bool {
	cv, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	lv, err := semver.NewVersion(last)
	if err != nil {
		return false
	}
	return !cv.GreaterThan(lv)
}
