package probe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
	"github.com/mitchellh/mapstructure"
)

var (
	errEmptyOutput    = errors.New("tool produced no output")
	errNotObject      = errors.New("output is not a JSON object")
	errTrailingOutput = errors.New("unexpected data after JSON document")
)

// Document is the structured metadata produced by ffprobe for a single
// file. Its shape is owned entirely by the tool, so it is held as a generic
// JSON value: nested maps, []any, string, json.Number, bool and nil.
type Document map[string]any

// ParseDocument decodes raw tool output in to a Document. The output must
// contain exactly one JSON object. Numbers are preserved as json.Number so
// that re-encoding the document is lossless.
func ParseDocument(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyOutput
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingOutput
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errNotObject
	}

	return Document(obj), nil
}

// Summary is a small, typed view over a Document, used for diagnostics.
type Summary struct {
	FormatName  string
	Duration    float64
	Size        int64
	BitRate     int64
	StreamCount int

	// Width and Height are those of the first video stream, if any
	Width  int
	Height int

	// StreamTypes counts the streams of the document by codec_type
	StreamTypes map[string]int
}

// Summarize decodes the document in to the typed ffprobe metadata of the
// transcoder library and extracts a Summary from it. ffprobe reports most
// numeric values as strings, so the decode is weakly typed.
func Summarize(doc Document) (*Summary, error) {
	var metadata ffmpeg.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &metadata,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(map[string]any(doc)); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe metadata: %w", err)
	}

	return newSummary(metadata), nil
}

func newSummary(metadata transcoder.Metadata) *Summary {
	format := metadata.GetFormat()
	summary := &Summary{
		FormatName:  format.GetFormatName(),
		StreamCount: format.GetNbStreams(),
		StreamTypes: make(map[string]int),
	}
	summary.Duration, _ = strconv.ParseFloat(format.GetDuration(), 64)
	summary.Size, _ = strconv.ParseInt(format.GetSize(), 10, 64)
	summary.BitRate, _ = strconv.ParseInt(format.GetBitRate(), 10, 64)

	for _, stream := range metadata.GetStreams() {
		codecType := stream.GetCodecType()
		if codecType == "" {
			codecType = "unknown"
		}
		summary.StreamTypes[codecType]++

		if codecType == "video" && summary.Width == 0 {
			summary.Width, summary.Height = stream.GetWidth(), stream.GetHeight()
		}
	}

	return summary
}

func (s *Summary) String() string {
	types := make([]string, 0, len(s.StreamTypes))
	for k, v := range s.StreamTypes {
		types = append(types, fmt.Sprintf("%s=%d", k, v))
	}
	sort.Strings(types)

	return fmt.Sprintf("{format=%s duration=%.2fs resolution=%dx%d streams=%d [%s]}", s.FormatName, s.Duration, s.Width, s.Height, s.StreamCount, strings.Join(types, " "))
}
