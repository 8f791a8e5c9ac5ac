package dtcc

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	trading "main/internal/domain/entity/trading"

	"github.com/sirupsen/logrus"
)

var (
	// ErrSliceNotFound marks a 404 on a slice sequence: the end of the
	// published sequence for that date, not a failure.
	ErrSliceNotFound = errors.New("dtcc slice not found")
	// ErrEODNotFound marks a missing EOD cumulative file for a date.
	ErrEODNotFound = errors.New("dtcc eod cumulative file not found")
)

const (
	defaultSliceBaseURL     = "https://pddata.dtcc.com/ppd/api/report/intraday/cftc/"
	defaultEODBaseURL       = "https://kgc0418-tdw-data-0.s3.amazonaws.com/cftc/eod/"
	defaultAssetClass       = "CREDITS"
	defaultMaxSliceAttempts = 20
	defaultReferer          = "https://pddata.dtcc.com/ppd/cftcdashboard"
	defaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"
	defaultTimeout          = 60 * time.Second
)

// Config holds the endpoints and probing limits for the public repository.
type Config struct {
	SliceBaseURL     string
	EODBaseURL       string
	AssetClass       string
	MaxSliceAttempts int
	Referer          string
	UserAgent        string
	Timeout          time.Duration
}

// Fetcher downloads and decodes the regulator's zipped CSV disclosures. It
// implements the report-source boundary the core consumes; retry and backoff
// policy belongs to the caller.
type Fetcher struct {
	cfg    Config
	client *http.Client
	logger *logrus.Entry
}

func NewFetcher(cfg Config, logger *logrus.Logger) *Fetcher {
	if cfg.SliceBaseURL == "" {
		cfg.SliceBaseURL = defaultSliceBaseURL
	}
	if cfg.EODBaseURL == "" {
		cfg.EODBaseURL = defaultEODBaseURL
	}
	if cfg.AssetClass == "" {
		cfg.AssetClass = defaultAssetClass
	}
	if cfg.MaxSliceAttempts <= 0 {
		cfg.MaxSliceAttempts = defaultMaxSliceAttempts
	}
	if cfg.Referer == "" {
		cfg.Referer = defaultReferer
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.WithField("component", "dtcc_fetcher"),
	}
}

// SliceURL renders the intraday slice URL for a date and sequence number.
func (f *Fetcher) SliceURL(date time.Time, sequence int) string {
	filename := fmt.Sprintf("CFTC_SLICE_%s_%s_%d.zip",
		strings.ToUpper(f.cfg.AssetClass), date.Format("2006_01_02"), sequence)
	return f.cfg.SliceBaseURL + filename
}

// EODURL renders the end-of-day cumulative file URL for a date.
func (f *Fetcher) EODURL(date time.Time) string {
	filename := fmt.Sprintf("CFTC_CUMULATIVE_%s_%s.zip",
		strings.ToUpper(f.cfg.AssetClass), date.Format("2006_01_02"))
	return f.cfg.EODBaseURL + filename
}

// FetchEOD downloads and parses the EOD cumulative file for a date.
func (f *Fetcher) FetchEOD(ctx context.Context, date time.Time) ([]trading.RawTradeReport, error) {
	url := f.EODURL(date)
	data, err := f.downloadZippedCSV(ctx, url)
	if err != nil {
		if errors.Is(err, errHTTPNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEODNotFound, url)
		}
		return nil, err
	}
	reports, err := ParseReports(data)
	if err != nil {
		return nil, fmt.Errorf("parse eod file %s: %w", url, err)
	}
	f.logger.WithFields(logrus.Fields{
		"url":     url,
		"reports": len(reports),
	}).Info("fetched eod cumulative file")
	return reports, nil
}

// FetchSlice downloads and parses one intraday slice; a 404 becomes
// ErrSliceNotFound.
func (f *Fetcher) FetchSlice(ctx context.Context, date time.Time, sequence int) ([]trading.RawTradeReport, error) {
	url := f.SliceURL(date, sequence)
	data, err := f.downloadZippedCSV(ctx, url)
	if err != nil {
		if errors.Is(err, errHTTPNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSliceNotFound, url)
		}
		return nil, err
	}
	reports, err := ParseReports(data)
	if err != nil {
		return nil, fmt.Errorf("parse slice %s: %w", url, err)
	}
	f.logger.WithFields(logrus.Fields{
		"url":     url,
		"seq":     sequence,
		"reports": len(reports),
	}).Info("fetched intraday slice")
	return reports, nil
}

// FetchDay collects one trading date's reports: the EOD cumulative file when
// published, otherwise sequential intraday slices probed from 1 until the
// first missing sequence.
func (f *Fetcher) FetchDay(ctx context.Context, date time.Time) ([]trading.RawTradeReport, error) {
	reports, err := f.FetchEOD(ctx, date)
	if err == nil && len(reports) > 0 {
		return reports, nil
	}
	if err != nil && !errors.Is(err, ErrEODNotFound) {
		return nil, err
	}
	f.logger.WithField("date", date.Format("2006-01-02")).
		Info("eod cumulative not available, probing intraday slices")

	var all []trading.RawTradeReport
	for sequence := 1; sequence <= f.cfg.MaxSliceAttempts; sequence++ {
		sliceReports, err := f.FetchSlice(ctx, date, sequence)
		if errors.Is(err, ErrSliceNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		all = append(all, sliceReports...)
	}
	return all, nil
}

var errHTTPNotFound = errors.New("http 404")

func (f *Fetcher) downloadZippedCSV(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Referer", f.cfg.Referer)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errHTTPNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return extractFirstCSV(body, url)
}

func extractFirstCSV(data []byte, url string) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip from %s: %w", url, err)
	}
	if len(reader.File) == 0 {
		return nil, fmt.Errorf("zip from %s contains no files", url)
	}
	file, err := reader.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s inside zip from %s: %w", reader.File[0].Name, url, err)
	}
	defer file.Close()
	return io.ReadAll(file)
}
