// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package cli

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	dagsim "github.com/bearbattle/dag-scheduling-sim"
	"github.com/bearbattle/dag-scheduling-sim/internal/logging"
	"github.com/bearbattle/dag-scheduling-sim/internal/runlog"
	"github.com/bearbattle/dag-scheduling-sim/policy"
	"github.com/bearbattle/dag-scheduling-sim/workload"
)

// buildLogger constructs the command logger from the resolved configuration.
func buildLogger() (*zap.Logger, error) {
	return logging.New(viper.GetString("logging.level"), viper.GetString("logging.format"))
}

// envConfig validates the shared episode flags and assembles the engine
// configuration. Zero moving cost and reward scale select the engine
// defaults; a zero time limit means no limit.
func envConfig(seed int64, movingCost, rewardScale, timeLimit float64, logger *zap.Logger) (dagsim.Config, error) {
	switch {
	case movingCost < 0:
		return dagsim.Config{}, fmt.Errorf("moving cost may not be negative: %v", movingCost)
	case rewardScale < 0:
		return dagsim.Config{}, fmt.Errorf("reward scale may not be negative: %v", rewardScale)
	case timeLimit < 0:
		return dagsim.Config{}, fmt.Errorf("time limit may not be negative: %v", timeLimit)
	}
	return dagsim.Config{
		MovingCost:  dagsim.Time(movingCost),
		RewardScale: rewardScale,
		TimeLimit:   dagsim.Time(timeLimit),
		Seed:        seed,
		Logger:      logger,
	}, nil
}

// recordRun persists one episode summary to the run log at dir.
func recordRun(dir, workloadPath string, m *workload.Manifest, seed int64, stats *policy.RunStats) error {
	db, err := runlog.Open(dir)
	if err != nil {
		return err
	}
	defer db.Close()
	return insertRun(db, workloadPath, m, seed, stats)
}

func insertRun(db *runlog.DB, workloadPath string, m *workload.Manifest, seed int64, stats *policy.RunStats) error {
	return db.InsertRun(&runlog.Run{
		Policy:         stats.Policy,
		Seed:           seed,
		Workload:       workloadPath,
		Workers:        m.NumWorkers(),
		JobsArrived:    stats.JobsArrived,
		JobsCompleted:  stats.JobsCompleted,
		Steps:          stats.Steps,
		TotalReward:    stats.TotalReward,
		Makespan:       float64(stats.Makespan),
		AvgJobDuration: float64(stats.AvgJobDuration),
		Truncated:      stats.Truncated,
	})
}
