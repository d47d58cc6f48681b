package output

import (
	"encoding/json"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
	"github.com/prathikkv/pharma-intelligence-sub001/internal/core/aggregate"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatSearch renders the response exactly as the HTTP API returns it.
func (f *JSONFormatter) FormatSearch(resp *aggregate.Response) (string, error) {
	if resp == nil {
		return "", nil
	}
	return f.marshal(resp)
}

// FormatSources renders descriptors with timeouts in milliseconds.
func (f *JSONFormatter) FormatSources(sources []core.SourceDescriptor) (string, error) {
	type sourceJSON struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		TimeoutMS  int64           `json:"timeout_ms"`
		Retries    int             `json:"retries"`
		Confidence core.Confidence `json:"confidence"`
		HighValue  bool            `json:"high_value"`
		ResultType string          `json:"result_type"`
		Homepage   string          `json:"homepage"`
	}
	out := make([]sourceJSON, 0, len(sources))
	for _, d := range sources {
		out = append(out, sourceJSON{
			ID:         d.ID,
			Name:       d.Name,
			TimeoutMS:  d.Timeout.Milliseconds(),
			Retries:    d.Retries,
			Confidence: d.Confidence,
			HighValue:  d.HighValue,
			ResultType: d.ResultType,
			Homepage:   d.Homepage,
		})
	}
	return f.marshal(out)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
