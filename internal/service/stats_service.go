package service

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/analytics"
	"github.com/yourusername/ipl-winprob/internal/cricket"
	"github.com/yourusername/ipl-winprob/internal/training"
)

// StatsService serves historical statistics computed once from the matches dataset
type StatsService struct {
	matchesPath string
	catalog     *cricket.Catalog
	logger      *logrus.Logger

	once    sync.Once
	summary analytics.Summary
	err     error
}

// NewStatsService creates a stats service. An empty path disables it.
func NewStatsService(matchesPath string, catalog *cricket.Catalog, logger *logrus.Logger) *StatsService {
	return &StatsService{matchesPath: matchesPath, catalog: catalog, logger: logger}
}

// Summary loads the dataset on first use and returns the cached summary
func (s *StatsService) Summary() (analytics.Summary, error) {
	if s.matchesPath == "" {
		return analytics.Summary{}, ErrStatsUnavailable
	}

	s.once.Do(func() {
		matches, err := training.LoadMatches(s.matchesPath)
		if err != nil {
			s.err = err
			return
		}
		s.summary = analytics.Summarize(matches, s.catalog)
		s.logger.WithFields(logrus.Fields{
			"matches": s.summary.TotalMatches,
			"teams":   s.summary.Teams,
		}).Info("Historical statistics computed")
	})
	return s.summary, s.err
}
