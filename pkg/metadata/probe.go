package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

// Probe is what the local probe tool could tell about a file.
type Probe struct {
	Duration *float64
	Size     *int64
	Codec    string
	Width    int
	Height   int
}

// Empty reports whether the probe produced nothing usable.
func (p Probe) Empty() bool {
	return p.Duration == nil && p.Size == nil && p.Codec == "" && p.Width == 0 && p.Height == 0
}

// Resolution renders WIDTHxHEIGHT or an empty string.
func (p Probe) Resolution() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Prober extracts technical details from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Probe, error)
}

// FFprobe runs the ffprobe binary.
type FFprobe struct {
	Binary string
}

// Args returns the ffprobe arguments used for path.
func (f FFprobe) Args(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration,size:stream=codec_name,width,height",
		"-of", "json",
		path,
	}
}

// Probe runs ffprobe against path and parses its JSON report.
func (f FFprobe) Probe(ctx context.Context, path string) (Probe, error) {
	bin := f.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, f.Args(path)...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Probe{}, fmt.Errorf("metadata: %s: %w: %s", bin, err, msg)
		}
		return Probe{}, fmt.Errorf("metadata: %s: %w", bin, err)
	}
	return ParseProbe(out), nil
}

type probeReport struct {
	Streams []struct {
		CodecName json.RawMessage `json:"codec_name"`
		Width     json.RawMessage `json:"width"`
		Height    json.RawMessage `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration json.RawMessage `json:"duration"`
		Size     json.RawMessage `json:"size"`
	} `json:"format"`
}

// ParseProbe reads an ffprobe JSON report. Missing or malformed fields are
// left absent; a malformed document yields an empty Probe.
func ParseProbe(data []byte) Probe {
	var r probeReport
	if err := json.Unmarshal(data, &r); err != nil {
		return Probe{}
	}

	var p Probe
	if d, ok := number(r.Format.Duration); ok && d >= 0 {
		p.Duration = &d
	}
	if s, ok := number(r.Format.Size); ok && s >= 0 {
		n := int64(s)
		p.Size = &n
	}
	if len(r.Streams) > 0 {
		st := r.Streams[0]
		var codec string
		if err := json.Unmarshal(st.CodecName, &codec); err == nil {
			p.Codec = strings.TrimSpace(codec)
		}
		if w, ok := number(st.Width); ok && w > 0 {
			p.Width = int(w)
		}
		if h, ok := number(st.Height); ok && h > 0 {
			p.Height = int(h)
		}
	}
	return p
}

// number accepts a JSON number or a JSON string holding one, which is how
// ffprobe reports format fields.
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
