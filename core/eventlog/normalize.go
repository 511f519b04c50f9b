package eventlog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// DecompressionError signals a corrupt gzip stream. It is fatal to the read:
// there is nothing to retry.
type DecompressionError struct {
	Path string
	Err  error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("decompressing %s: %v", e.Path, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// ReadLogs reads newline-delimited JSON event records from path, optionally
// gzip-compressed, and normalizes each one. Input order is preserved.
func ReadLogs(path string, gzipped bool) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, &DecompressionError{Path: path, Err: err}
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	records, err := ReadLogLines(r)
	if err != nil {
		if gzipped {
			// a truncated/corrupt member surfaces mid-stream
			if errors.Cause(err) == gzip.ErrChecksum || errors.Cause(err) == gzip.ErrHeader || errors.Cause(err) == io.ErrUnexpectedEOF {
				return nil, &DecompressionError{Path: path, Err: err}
			}
		}
		return nil, err
	}
	return records, nil
}

// ReadLogLines decodes one JSON object per line and normalizes it.
func ReadLogLines(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // tracking lines can be huge

	var records []Record
	var n int
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, errors.Wrapf(err, "decoding log line %d", n)
		}
		records = append(records, Normalize(raw))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading log lines")
	}
	return records, nil
}

// Normalize flattens a raw event record: the nested "context" mapping is
// removed and each of its entries reinserted under a "context."-prefixed key.
// "context.module" is collapsed to just its display_name, and the known-noisy
// "context.asides"/"context.user_tags" are discarded when present (their
// absence is expected and not an error). The input is not mutated.
func Normalize(raw map[string]interface{}) Record {
	expanded := make(Record, len(raw))
	for k, v := range raw {
		expanded[k] = v
	}

	ctx, ok := raw["context"].(map[string]interface{})
	if !ok {
		return expanded
	}
	delete(expanded, "context")
	for k, v := range ctx {
		expanded["context."+k] = v
	}

	if module, ok := expanded["context.module"].(map[string]interface{}); ok {
		expanded["context.display_name"] = module["display_name"]
		delete(expanded, "context.module")
	}
	delete(expanded, "context.asides")
	delete(expanded, "context.user_tags")

	return expanded
}
