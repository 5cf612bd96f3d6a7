package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core"
)

type nopLogger struct {
	errors int
}

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Warn(string, ...interface{})  {}
func (l *nopLogger) Error(string, ...interface{}) { l.errors++ }
func (l *nopLogger) Fatal(string, ...interface{}) {}

type fakeJobs struct {
	refreshed, digests int
	err                error
}

func (f *fakeJobs) RefreshPercentages(context.Context) (int, error) {
	f.refreshed++
	return 3, f.err
}

func (f *fakeJobs) SendPendingDigest(context.Context) (int, error) {
	f.digests++
	return 0, f.err
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name     string
		jobs     core.JobsConfig
		wantJobs int
		wantErr  bool
	}{
		{"both", core.JobsConfig{PercentagesSchedule: "0 2 * * *", RatingsDigestSchedule: "0 7 * * *"}, 2, false},
		{"one", core.JobsConfig{PercentagesSchedule: "@daily"}, 1, false},
		{"none", core.JobsConfig{}, 0, false},
		{"invalid", core.JobsConfig{RatingsDigestSchedule: "every day"}, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := NewScheduler(&core.Config{Jobs: tc.jobs}, &nopLogger{}, &fakeJobs{}, &fakeJobs{})
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantJobs, s.Jobs())
		})
	}
}

func TestScheduler_run(t *testing.T) {
	logger := &nopLogger{}
	fake := &fakeJobs{}
	s, err := NewScheduler(&core.Config{}, logger, fake, fake)
	require.NoError(t, err)

	s.run("refresh", s.refreshPercentages)()
	s.run("digest", s.sendRatingsDigest)()
	assert.Equal(t, 1, fake.refreshed)
	assert.Equal(t, 1, fake.digests)
	assert.Equal(t, 0, logger.errors)

	fake.err = errors.New("db down")
	s.run("refresh", s.refreshPercentages)()
	assert.Equal(t, 1, logger.errors)

	s.Start()
	s.Stop(context.Background())
}
