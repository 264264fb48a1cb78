package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/LevanBokeria/autoemulate/compare"
	"github.com/LevanBokeria/autoemulate/metrics"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
	"github.com/LevanBokeria/autoemulate/simulator"
	"github.com/LevanBokeria/autoemulate/transforms"
)

// runConfig is the YAML run configuration consumed by `autoemulate compare`.
type runConfig struct {
	Data struct {
		// XCSV and YCSV are headerless CSV files of floats, one sample per
		// row. Set either both CSV paths or a simulator.
		XCSV string `yaml:"x_csv"`
		YCSV string `yaml:"y_csv"`

		// Simulator selects a built-in synthetic simulator by name.
		Simulator string  `yaml:"simulator"`
		Samples   int     `yaml:"samples"`
		Noise     float64 `yaml:"noise"`
	} `yaml:"data"`

	Models []string `yaml:"models"`

	// XTransforms and YTransforms list candidate chains as transform names,
	// e.g. [[], [standardize], [standardize, pca]]. Empty means the default
	// empty + standardize pair.
	XTransforms [][]string `yaml:"x_transforms"`
	YTransforms [][]string `yaml:"y_transforms"`

	Metric            string  `yaml:"metric"`
	Secondary         string  `yaml:"secondary"`
	Folds             int     `yaml:"folds"`
	TestFraction      float64 `yaml:"test_fraction"`
	Seed              uint64  `yaml:"seed"`
	Configs           int     `yaml:"configs_per_combination"`
	TrialTimeout      string  `yaml:"trial_timeout"`
	Workers           int     `yaml:"workers"`
	OutputFromSamples bool    `yaml:"output_from_samples"`

	// SaveDir, when set, persists the best result to a results store there.
	SaveDir string `yaml:"save_dir"`
}

var configPath string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run a model comparison described by a YAML configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return err
		}
		var cfg runConfig
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return errors.Wrap(err, "parsing run configuration")
		}
		return runCompare(cmd, cfg)
	},
}

func init() {
	compareCmd.Flags().StringVarP(&configPath, "config", "c", "autoemulate.yaml", "run configuration file")
}

func runCompare(cmd *cobra.Command, cfg runConfig) error {
	x, y, err := loadData(cfg)
	if err != nil {
		return err
	}

	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}

	session, err := compare.NewSession(x, y,
		cfg.Models, chainSpecs(cfg.XTransforms), chainSpecs(cfg.YTransforms), opts)
	if err != nil {
		return err
	}

	nConfigs := cfg.Configs
	if nConfigs == 0 {
		nConfigs = 10
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := session.Compare(ctx, nConfigs); err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), session.Report())

	if cfg.SaveDir != "" {
		best, err := session.BestResult()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
			return err
		}
		store, err := compare.OpenStore(cfg.SaveDir)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(best); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nsaved best result %s to %s\n", best.ID, cfg.SaveDir)
	}
	return nil
}

func sessionOptions(cfg runConfig) (compare.Options, error) {
	opts := compare.Options{
		NFolds:            cfg.Folds,
		TestFraction:      cfg.TestFraction,
		Seed:              cfg.Seed,
		Workers:           cfg.Workers,
		OutputFromSamples: cfg.OutputFromSamples,
	}
	if cfg.Metric != "" {
		m, err := metrics.ByName(cfg.Metric)
		if err != nil {
			return opts, err
		}
		opts.PrimaryMetric = m
	}
	if cfg.Secondary != "" {
		m, err := metrics.ByName(cfg.Secondary)
		if err != nil {
			return opts, err
		}
		opts.SecondaryMetric = m
	}
	if cfg.TrialTimeout != "" {
		d, err := time.ParseDuration(cfg.TrialTimeout)
		if err != nil {
			return opts, errors.Wrap(err, "parsing trial_timeout")
		}
		opts.TrialTimeout = d
	}
	return opts, nil
}

func loadData(cfg runConfig) (x, y *mat.Dense, err error) {
	switch {
	case cfg.Data.XCSV != "" && cfg.Data.YCSV != "":
		x, err = loadCSV(cfg.Data.XCSV)
		if err != nil {
			return nil, nil, err
		}
		y, err = loadCSV(cfg.Data.YCSV)
		if err != nil {
			return nil, nil, err
		}
		return x, y, nil

	case cfg.Data.Simulator != "":
		sim, err := simulator.ByName(cfg.Data.Simulator, cfg.Data.Noise, cfg.Seed)
		if err != nil {
			return nil, nil, err
		}
		n := cfg.Data.Samples
		if n == 0 {
			n = 200
		}
		x := sim.SampleInputs(n)
		y, err := sim.ForwardBatch(x)
		if err != nil {
			return nil, nil, err
		}
		return x, y, nil

	default:
		return nil, nil, errors.New("run configuration needs either data.x_csv/y_csv or data.simulator")
	}
}

// loadCSV reads a headerless CSV of floats into a matrix.
func loadCSV(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(records) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "reading %s", path)
	}

	rows, cols := len(records), len(records[0])
	m := mat.NewDense(rows, cols, nil)
	for i, record := range records {
		if len(record) != cols {
			return nil, errors.Newf("%s: row %d has %d columns, want %d", path, i, len(record), cols)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: row %d column %d", path, i, j)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

func chainSpecs(chains [][]string) [][]transforms.Spec {
	if chains == nil {
		return nil
	}
	specs := make([][]transforms.Spec, len(chains))
	for i, chain := range chains {
		for _, name := range chain {
			specs[i] = append(specs[i], transforms.Spec{Name: name})
		}
	}
	return specs
}
