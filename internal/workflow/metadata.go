package workflow

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed stages.toml
var stagesTOML []byte

// Meta is the display metadata for a stage.
type Meta struct {
	Name        Stage  `toml:"name" json:"name"`
	Label       string `toml:"label" json:"label"`
	Description string `toml:"description" json:"description"`
	Phase       Phase  `toml:"phase" json:"phase,omitempty"`
	Progress    int    `toml:"-" json:"progress"`
}

type metaDoc struct {
	Stages []Meta `toml:"stage"`
}

var (
	metaOnce  sync.Once
	metaByKey map[Stage]Meta
	metaErr   error
)

func loadMeta() {
	var doc metaDoc
	if err := toml.Unmarshal(stagesTOML, &doc); err != nil {
		metaErr = fmt.Errorf("workflow: decode stage metadata: %w", err)
		return
	}
	metaByKey = make(map[Stage]Meta, len(doc.Stages))
	for _, m := range doc.Stages {
		if !Valid(string(m.Name)) {
			metaErr = fmt.Errorf("workflow: unknown stage %q in metadata", m.Name)
			return
		}
		m.Progress = Progress(m.Name)
		metaByKey[m.Name] = m
	}
	for _, s := range All() {
		if _, ok := metaByKey[s]; !ok {
			metaErr = fmt.Errorf("workflow: stage %q has no metadata", s)
			return
		}
	}
}

// CheckMetadata reports whether the embedded stage table decodes and covers
// every stage. Binaries call it at startup.
func CheckMetadata() error {
	metaOnce.Do(loadMeta)
	return metaErr
}

// Describe returns the metadata for s. Unknown stages get their name as label.
func Describe(s Stage) Meta {
	metaOnce.Do(loadMeta)
	if m, ok := metaByKey[s]; ok {
		return m
	}
	return Meta{Name: s, Label: string(s)}
}

// Catalog returns metadata for every stage in rank order, side states last.
func Catalog() []Meta {
	all := All()
	out := make([]Meta, 0, len(all))
	for _, s := range all {
		out = append(out, Describe(s))
	}
	return out
}
