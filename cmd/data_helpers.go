package cmd

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/KaramelBytes/gigstats-cli/internal/analysis"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/apex/log"
)

var errNoDataset = errors.New("no dataset: pass --data <file.csv> or run 'gigstats config set data_path <file.csv>'")

func resolveDataPath() (string, error) {
	if dataPath != "" {
		return dataPath, nil
	}
	if cfg != nil && cfg.DataPath != "" {
		return cfg.DataPath, nil
	}
	return "", errNoDataset
}

func loadOptions() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	opt.MaxRows = maxRows
	opt.Sheet = sheetName
	if thousandSep != "" {
		r, size := utf8.DecodeRuneInString(thousandSep)
		if size != len(thousandSep) || r == '.' {
			return opt, fmt.Errorf("invalid --thousands-sep %q: want a single character other than '.'", thousandSep)
		}
		opt.ThousandsSeparator = r
	}
	return opt, nil
}

// loadDataset reads and normalizes the configured dataset. Load failures are
// fatal for every command that needs data.
func loadDataset() (*dataset.Dataset, error) {
	path, err := resolveDataPath()
	if err != nil {
		return nil, err
	}
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Debug("loading dataset")
	ds, err := dataset.Load(path, opt)
	if err != nil {
		return nil, err
	}
	for _, w := range ds.Warnings() {
		log.Warn(w)
	}
	log.WithFields(log.Fields{"rows": ds.Len(), "ignored_columns": len(ds.Ignored())}).Debug("dataset loaded")
	return ds, nil
}

func loadAnalyzer() (*analysis.Analyzer, error) {
	ds, err := loadDataset()
	if err != nil {
		return nil, err
	}
	return analysis.New(ds), nil
}
