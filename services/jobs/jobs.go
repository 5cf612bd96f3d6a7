package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/vidyalaya/core"
)

const jobTimeout = 10 * time.Minute

type (
	PercentageRefresher interface {
		RefreshPercentages(ctx context.Context) (int, error)
	}

	DigestSender interface {
		SendPendingDigest(ctx context.Context) (int, error)
	}
)

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(fmt.Sprintf("cron: %s %v", msg, keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s %v", msg, keysAndValues), err)
}

// Scheduler runs the periodic jobs: refreshing students' stored percentages and
// emailing the admins a digest of the ratings awaiting moderation.
type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	marks   PercentageRefresher
	ratings DigestSender
}

func NewScheduler(conf *core.Config, logger core.Logger, marks PercentageRefresher, ratings DigestSender) (*Scheduler, error) {
	clog := cronLogger{logger: logger}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog))),
		logger:  logger,
		marks:   marks,
		ratings: ratings,
	}

	if conf.Jobs.PercentagesSchedule != "" {
		if _, err := s.cron.AddFunc(conf.Jobs.PercentagesSchedule, s.run("refresh percentages", s.refreshPercentages)); err != nil {
			return nil, errors.Wrap(err, "scheduling percentages refresh")
		}
	}
	if conf.Jobs.RatingsDigestSchedule != "" {
		if _, err := s.cron.AddFunc(conf.Jobs.RatingsDigestSchedule, s.run("ratings digest", s.sendRatingsDigest)); err != nil {
			return nil, errors.Wrap(err, "scheduling ratings digest")
		}
	}
	return s, nil
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := core.NowFunc()
		if err := job(ctx); err != nil {
			s.logger.Error(fmt.Sprintf("job %q failed", name), err)
			return
		}
		s.logger.Info(fmt.Sprintf("job %q done in %s", name, core.NowFunc().Sub(start)))
	}
}

func (s *Scheduler) refreshPercentages(ctx context.Context) error {
	n, err := s.marks.RefreshPercentages(ctx)
	if err != nil {
		return err
	}
	s.logger.Info(fmt.Sprintf("refreshed the percentages of %d students", n))
	return nil
}

func (s *Scheduler) sendRatingsDigest(ctx context.Context) error {
	n, err := s.ratings.SendPendingDigest(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info(fmt.Sprintf("sent the digest of %d pending ratings", n))
	}
	return nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling jobs and waits for the running ones, until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
