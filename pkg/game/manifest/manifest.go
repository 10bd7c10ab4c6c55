// Package manifest models version manifest documents: the self-contained
// base-game kind and the loader kind that inherits from a base version.
package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

/////////////////////////////////////////////////////////////////////
// Document
/////////////////////////////////////////////////////////////////////

type Rule struct {
	Action   string          `json:"action"`
	OS       *OSMatcher      `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

type OSMatcher struct {
	Name string `json:"name,omitempty"`
	Arch string `json:"arch,omitempty"`
}

type Artifact struct {
	Path string `json:"path"`
	Sha1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type LibraryDownloads struct {
	Artifact    *Artifact            `json:"artifact,omitempty"`
	Classifiers map[string]*Artifact `json:"classifiers,omitempty"`
}

// Library is one dependency declaration. Base-game entries carry a
// structured Downloads block; loader entries carry only the coordinate in
// Name plus a repository base in URL (and optionally sha1/size).
type Library struct {
	Name      string           `json:"name"`
	URL       string           `json:"url,omitempty"`
	Sha1      string           `json:"sha1,omitempty"`
	Size      int64            `json:"size,omitempty"`
	Downloads LibraryDownloads `json:"downloads,omitempty"`
	Rules     []Rule           `json:"rules,omitempty"`
}

// DeclaredArtifact returns the structured primary download, nil when the
// entry only names a coordinate.
func (l *Library) DeclaredArtifact() *Artifact {
	return l.Downloads.Artifact
}

// Classifier looks the key up in the downloads classifier map.
func (l *Library) Classifier(key string) *Artifact {
	if l.Downloads.Classifiers == nil {
		return nil
	}
	return l.Downloads.Classifiers[key]
}

type DownloadEntry struct {
	Sha1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type AssetIndexRef struct {
	ID        string `json:"id"`
	Sha1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// Fragment is one jvm/game argument entry. The wire shape is either a bare
// string or an object {rules, value} where value is a string or a list.
type Fragment struct {
	Values []string
	Rules  []Rule
}

func (f *Fragment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Values = []string{s}
		f.Rules = nil
		return nil
	}

	var obj struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("argument fragment: %w", err)
	}

	f.Rules = obj.Rules
	f.Values = nil
	if len(obj.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(obj.Value, &s); err == nil {
		f.Values = []string{s}
		return nil
	}
	var many []string
	if err := json.Unmarshal(obj.Value, &many); err != nil {
		return fmt.Errorf("argument fragment value: %w", err)
	}
	f.Values = many
	return nil
}

func (f Fragment) MarshalJSON() ([]byte, error) {
	if f.Rules == nil && len(f.Values) == 1 {
		return json.Marshal(f.Values[0])
	}
	return json.Marshal(struct {
		Rules []Rule   `json:"rules,omitempty"`
		Value []string `json:"value"`
	}{Rules: f.Rules, Value: f.Values})
}

type Arguments struct {
	Game []Fragment `json:"game,omitempty"`
	JVM  []Fragment `json:"jvm,omitempty"`
}

// Document is the raw decoded manifest, shared by both kinds.
type Document struct {
	ID           string                   `json:"id"`
	InheritsFrom string                   `json:"inheritsFrom,omitempty"`
	Type         string                   `json:"type,omitempty"`
	MainClass    string                   `json:"mainClass"`
	Arguments    Arguments                `json:"arguments"`
	AssetIndex   *AssetIndexRef           `json:"assetIndex,omitempty"`
	Downloads    map[string]DownloadEntry `json:"downloads,omitempty"`
	Libraries    []Library                `json:"libraries"`
}

// ClientDownload is the main game artifact of a base manifest, nil for
// loader manifests and manifests without a client entry.
func (d *Document) ClientDownload() *DownloadEntry {
	if d.Downloads == nil {
		return nil
	}
	if e, ok := d.Downloads["client"]; ok {
		return &e
	}
	return nil
}

/////////////////////////////////////////////////////////////////////
// Kind
/////////////////////////////////////////////////////////////////////

// Manifest is either *SelfContained or *LoaderOverlay; the sealed method
// keeps the set closed so consumers can switch exhaustively.
type Manifest interface {
	Document() *Document
	sealed()
}

// SelfContained is a base-game manifest: it owns the client jar, the asset
// index, and the full library set.
type SelfContained struct {
	Doc Document
}

func (m *SelfContained) Document() *Document { return &m.Doc }
func (m *SelfContained) sealed()             {}

// LoaderOverlay inherits from a base version: it contributes libraries and
// the entry-point class, but no game jar and no asset index.
type LoaderOverlay struct {
	Doc Document
}

func (m *LoaderOverlay) Document() *Document { return &m.Doc }
func (m *LoaderOverlay) sealed()             {}

// BaseID is the version this overlay inherits from.
func (m *LoaderOverlay) BaseID() string { return m.Doc.InheritsFrom }

// Decode sniffs the manifest kind from the inheritsFrom field before
// unmarshalling, so the caller gets a tagged value instead of probing
// fields itself.
func Decode(data []byte) (Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("manifest: not valid JSON")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("manifest: missing id")
	}

	if gjson.GetBytes(data, "inheritsFrom").Exists() {
		if doc.InheritsFrom == "" {
			return nil, fmt.Errorf("manifest %s: empty inheritsFrom", doc.ID)
		}
		return &LoaderOverlay{Doc: doc}, nil
	}
	return &SelfContained{Doc: doc}, nil
}
