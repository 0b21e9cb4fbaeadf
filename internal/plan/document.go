package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/backmassage/beatcut/internal/selector"
	"github.com/backmassage/beatcut/internal/timeline"
)

// Version is the document format written by this package.
const Version = 1

// ErrUnsupportedVersion is returned when decoding a document from a newer
// or unknown format.
var ErrUnsupportedVersion = errors.New("unsupported plan version")

// namespace scopes plan IDs so they never collide with other UUIDv5 users.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/backmassage/beatcut/plan"))

// Document is one persisted plan.
type Document struct {
	Version   int                  `json:"version"`
	ID        string               `json:"id"`
	Audio     string               `json:"audio,omitempty"`
	ImagesDir string               `json:"images_dir,omitempty"`
	Images    []string             `json:"images"`
	AudioEnd  float64              `json:"audio_end"`
	Beats     []float64            `json:"beats"`
	Cuts      []float64            `json:"cuts"`
	Durations []float64            `json:"durations"`
	Params    Params               `json:"params"`
	Plan      *timeline.RenderPlan `json:"plan"`
}

// Request is the input to [Build].
type Request struct {
	Audio     string
	ImagesDir string
	Images    []string
	Beats     []float64
	AudioEnd  float64
	Params    Params
}

// Build selects cuts, plans the timeline and wraps both in a Document.
// Errors are configuration errors from the selector or the planner.
func Build(req Request) (*Document, error) {
	tcfg := req.Params.Timeline()
	if err := tcfg.Validate(); err != nil {
		return nil, err
	}

	var cuts []float64
	if req.Params.AllBeats {
		cuts = selector.AllBeats(req.Beats, req.AudioEnd, req.Params.Phase)
	} else {
		var err error
		cuts, err = selector.Select(req.Beats, req.AudioEnd, req.Params.Constraints())
		if err != nil {
			return nil, err
		}
	}

	var durations []float64
	if len(cuts) > 0 {
		durations = timeline.Durations(cuts, tcfg.TailDuration)
	}
	rp, err := timeline.PlanDurations(durations, tcfg)
	if err != nil {
		return nil, err
	}

	d := &Document{
		Version:   Version,
		Audio:     req.Audio,
		ImagesDir: req.ImagesDir,
		Images:    nonNil(req.Images),
		AudioEnd:  req.AudioEnd,
		Beats:     nonNil(req.Beats),
		Cuts:      nonNil(cuts),
		Durations: nonNil(durations),
		Params:    req.Params,
		Plan:      rp,
	}
	d.ID = ComputeID(d)
	return d, nil
}

// Replay rebuilds the render plan from the stored durations and params.
func (d *Document) Replay() (*timeline.RenderPlan, error) {
	return timeline.PlanDurations(d.Durations, d.Params.Timeline())
}

// ComputeID derives the document ID from its inputs. Output fields (cuts,
// durations, plan) follow from the inputs and are left out.
func ComputeID(d *Document) string {
	audio := ""
	if d.Audio != "" {
		audio = filepath.Base(d.Audio)
	}
	canon := struct {
		Audio    string    `json:"audio"`
		Images   []string  `json:"images"`
		AudioEnd float64   `json:"audio_end"`
		Beats    []float64 `json:"beats"`
		Params   Params    `json:"params"`
	}{audio, nonNil(d.Images), d.AudioEnd, nonNil(d.Beats), d.Params}
	raw, _ := json.Marshal(canon)
	return uuid.NewSHA1(namespace, raw).String()
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Decode reads a document and checks its version.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if d.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	return &d, nil
}

// Marshal returns the JSON encoding of d.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes d to path, creating parent directories.
func Save(path string, d *Document) error {
	raw, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plan dir: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// Load reads a document from path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
