package sandbox

import (
	"fmt"
	"strconv"
	"strings"
)

// Metrics is the parsed isolate meta file for one run.
type Metrics struct {
	TimeSec     float64
	TimeWallSec float64
	MaxRssKb    int64
	CgMemKb     int64
	CgOomKilled bool

	CswVoluntary int64
	CswForced    int64

	ExitCode   int64
	ExitSignal *int64

	// Isolate status: RE, SG, TO, XX; empty on a clean exit.
	Status  string
	Message string
}

// parseMetaFile reads isolate's key:value meta format. Unknown keys are
// skipped so newer isolate versions stay parseable.
func parseMetaFile(content []byte) (*Metrics, error) {
	metrics := &Metrics{}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed meta line: %q", line)
		}

		var err error
		switch key {
		case "time":
			metrics.TimeSec, err = strconv.ParseFloat(value, 64)
		case "time-wall":
			metrics.TimeWallSec, err = strconv.ParseFloat(value, 64)
		case "max-rss":
			metrics.MaxRssKb, err = strconv.ParseInt(value, 10, 64)
		case "cg-mem":
			metrics.CgMemKb, err = strconv.ParseInt(value, 10, 64)
		case "cg-oom-killed":
			metrics.CgOomKilled = value == "1"
		case "csw-voluntary":
			metrics.CswVoluntary, err = strconv.ParseInt(value, 10, 64)
		case "csw-forced":
			metrics.CswForced, err = strconv.ParseInt(value, 10, 64)
		case "exitcode":
			metrics.ExitCode, err = strconv.ParseInt(value, 10, 64)
		case "exitsig":
			var sig int64
			sig, err = strconv.ParseInt(value, 10, 64)
			if err == nil {
				metrics.ExitSignal = &sig
			}
		case "status":
			metrics.Status = value
		case "message":
			metrics.Message = value
		}
		if err != nil {
			return nil, fmt.Errorf("malformed meta value for %s: %w", key, err)
		}
	}
	return metrics, nil
}
