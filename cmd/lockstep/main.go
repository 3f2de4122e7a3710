// Package main provides the lockstep training CLI: data-parallel MNIST
// training across a list of device handles.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/lockstep-ml/lockstep/autodiff"
	"github.com/lockstep-ml/lockstep/backend/cpu"
	"github.com/lockstep-ml/lockstep/backend/webgpu"
	"github.com/lockstep-ml/lockstep/dataparallel"
	"github.com/lockstep-ml/lockstep/dataset/mnist"
	"github.com/lockstep-ml/lockstep/nn"
	"github.com/lockstep-ml/lockstep/optim"
	"github.com/lockstep-ml/lockstep/tensor"
)

type config struct {
	epochs    int
	batchSize int
	lr        float64
	momentum  float64
	seed      int64
}

func main() {
	devicesFlag := flag.String("devices", "cpu:0", "comma-separated device handles, e.g. cpu:0,cpu:1 or gpu:0")
	epochs := flag.Int("epochs", 5, "number of training epochs")
	batchSize := flag.Int("batch-size", 64, "global batch size, split across devices")
	lr := flag.Float64("lr", 0.01, "learning rate")
	momentum := flag.Float64("momentum", 0.9, "SGD momentum")
	dataDir := flag.String("data-dir", "./data", "directory with MNIST IDX files (plain or .gz)")
	limit := flag.Int("limit", 0, "max training examples to load (0 = all)")
	seed := flag.Int64("seed", 42, "seed for parameter initialization")
	synthetic := flag.Bool("synthetic", false, "train on generated data instead of MNIST files")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	devices, err := parseDevices(*devicesFlag)
	if err != nil {
		logger.Error("invalid --devices", "error", err)
		os.Exit(1)
	}

	train, val, err := loadData(*dataDir, *synthetic, *limit, *seed)
	if err != nil {
		logger.Error("loading dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset ready", "train", train.Len(), "val", val.Len())

	cfg := config{
		epochs:    *epochs,
		batchSize: *batchSize,
		lr:        *lr,
		momentum:  *momentum,
		seed:      *seed,
	}

	switch devices[0].Kind {
	case tensor.CPU:
		backends := make([]*cpu.Backend, len(devices))
		for i, d := range devices {
			backends[i] = cpu.NewFor(d)
		}
		err = run(backends, cfg, train, val, logger)
	case tensor.GPU:
		backends := make([]*webgpu.Backend, len(devices))
		for i, d := range devices {
			b, gpuErr := webgpu.New(d.Ordinal)
			if gpuErr != nil {
				logger.Error("initializing webgpu device", "device", d, "error", gpuErr)
				os.Exit(1)
			}
			defer b.Release()
			backends[i] = b
		}
		err = run(backends, cfg, train, val, logger)
	}
	if err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

// parseDevices parses a comma-separated device list. All handles must
// share one device kind, since a replica group runs on one backend type.
func parseDevices(s string) ([]tensor.Device, error) {
	parts := strings.Split(s, ",")
	devices := make([]tensor.Device, 0, len(parts))
	for _, p := range parts {
		d, err := tensor.ParseDevice(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices given")
	}
	for _, d := range devices[1:] {
		if d.Kind != devices[0].Kind {
			return nil, fmt.Errorf("mixed device kinds: %s and %s", devices[0], d)
		}
	}
	return devices, nil
}

func loadData(dir string, synthetic bool, limit int, seed int64) (*mnist.Dataset, *mnist.Dataset, error) {
	if synthetic {
		train, val := mnist.Synthetic(2000, seed).Split(0.2)
		return train, val, nil
	}
	ds, err := mnist.Load(dir, true)
	if err != nil {
		return nil, nil, err
	}
	train, val := ds.Limit(limit).Split(0.1)
	return train, val, nil
}

// run builds one model replica per backend and trains the group. The
// build function seeds its own generator, so every replica starts from
// identical parameters.
func run[B tensor.Backend](backends []B, cfg config, train, val *mnist.Dataset, logger *slog.Logger) error {
	group, err := dataparallel.NewGroup(backends, func(b *autodiff.Backend[B]) nn.Module[*autodiff.Backend[B]] {
		return nn.NewLeNet(rand.New(rand.NewSource(cfg.seed)), b)
	})
	if err != nil {
		return err
	}

	opt := optim.NewSGD(group.Reference().Parameters(), float32(cfg.lr), float32(cfg.momentum))
	trainer, err := dataparallel.NewTrainer(group, opt)
	if err != nil {
		return err
	}

	trainIt, err := mnist.NewIterator(train, cfg.batchSize)
	if err != nil {
		return err
	}
	valIt, err := mnist.NewIterator(val, cfg.batchSize)
	if err != nil {
		return err
	}

	logger.Info("starting training",
		"devices", group.Devices(),
		"epochs", cfg.epochs,
		"batch_size", cfg.batchSize,
		"lr", cfg.lr,
		"momentum", cfg.momentum,
	)
	return trainer.Fit(trainIt, valIt, cfg.epochs, logger)
}
