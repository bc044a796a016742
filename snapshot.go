package valmap

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxSnapshotSize is the maximum allowed snapshot size (100MB).
const MaxSnapshotSize = 100 * 1024 * 1024

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = "1.0"

// Snapshot errors.
var (
	// ErrSnapshotTooLarge is returned when a snapshot exceeds MaxSnapshotSize.
	ErrSnapshotTooLarge = errors.New("valmap: snapshot exceeds 100MB size limit")

	// ErrNilSnapshot is returned when WriteSnapshot receives a nil snapshot.
	ErrNilSnapshot = errors.New("valmap: snapshot is nil")

	// ErrUnsupportedVersion is returned when reading a snapshot with unknown version.
	ErrUnsupportedVersion = errors.New("valmap: unsupported snapshot version")
)

// supportedVersions lists snapshot format versions that can be read.
var supportedVersions = map[string]bool{
	"1.0": true,
}

// MappingSnapshot is a point-in-time capture of a constraint mapping.
type MappingSnapshot struct {
	// Version is the snapshot format version (currently "1.0")
	Version string `json:"version"`

	// Timestamp is when the snapshot was created
	Timestamp time.Time `json:"timestamp"`

	// Types holds the declarations of every configured type, in first-use order.
	Types []TypeSnapshot `json:"types"`

	// Errors lists the invalid declarations the mapping recorded.
	Errors []FieldError `json:"errors,omitempty"`
}

// TypeSnapshot is the serialized form of the declarations of one type.
type TypeSnapshot struct {
	Type                 string               `json:"type"`
	DefaultGroupSequence []Group              `json:"defaultGroupSequence,omitempty"`
	SequenceProvider     string               `json:"defaultGroupSequenceProvider,omitempty"`
	Constraints          []ConstraintSnapshot `json:"constraints,omitempty"`
	Cascades             []CascadeSnapshot    `json:"cascades,omitempty"`
}

// ConstraintSnapshot is the serialized form of a constraint declaration.
type ConstraintSnapshot struct {
	Location string         `json:"location"`
	Element  string         `json:"element"`
	Kind     string         `json:"kind"`
	Params   map[string]any `json:"params,omitempty"`
	Source   string         `json:"source,omitempty"`
}

// CascadeSnapshot is the serialized form of a cascade declaration.
type CascadeSnapshot struct {
	Location string `json:"location"`
	Element  string `json:"element"`
	Source   string `json:"source,omitempty"`
}

// SnapshotOption configures snapshot creation behavior.
type SnapshotOption func(*snapshotConfig)

// snapshotConfig holds internal configuration for snapshot creation.
type snapshotConfig struct {
	excludeTypes []string // Rendered type names to exclude
}

// WithExcludeTypes excludes types from the snapshot by rendered name
// (e.g., "model.Person"). Matching is case-insensitive.
func WithExcludeTypes(names ...string) SnapshotOption {
	return func(cfg *snapshotConfig) {
		cfg.excludeTypes = append(cfg.excludeTypes, names...)
	}
}

// CreateSnapshot captures the current declarations of a mapping, including
// their origins and any recorded declaration errors.
// The snapshot's Timestamp is captured at creation time.
func CreateSnapshot(m *ConstraintMapping, opts ...SnapshotOption) (*MappingSnapshot, error) {
	if m == nil {
		return nil, ErrNilMapping
	}

	snapCfg := &snapshotConfig{}
	for _, opt := range opts {
		opt(snapCfg)
	}

	snap := &MappingSnapshot{
		Version:   SnapshotVersion,
		Timestamp: time.Now().UTC(),
		Types:     snapshotTypes(m, true, snapCfg.excludeTypes),
	}

	var ve *ValidationError
	if errors.As(m.Err(), &ve) {
		snap.Errors = ve.FieldErrors
	}

	return snap, nil
}

// snapshotTypes serializes the declarations of m. The result is never nil.
func snapshotTypes(m *ConstraintMapping, withSources bool, exclude []string) []TypeSnapshot {
	excludeSet := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excludeSet[strings.ToLower(name)] = true
	}

	result := make([]TypeSnapshot, 0, len(m.configured))
	for _, t := range m.configured {
		if excludeSet[strings.ToLower(typeName(t))] {
			continue
		}

		ts := TypeSnapshot{Type: typeName(t)}
		if seq, ok := m.sequences[t]; ok {
			ts.DefaultGroupSequence = seq
		}
		if p, ok := m.providers[t]; ok {
			ts.SequenceProvider = fmt.Sprintf("%T", p)
		}

		for _, c := range m.constraints[t] {
			cs := ConstraintSnapshot{
				Location: c.Location.String(),
				Element:  c.Location.ElementType.String(),
				Kind:     c.Def.Kind(),
			}
			if params := c.Def.Params(); len(params) > 0 {
				cs.Params = params
			}
			if withSources {
				cs.Source = c.Origin
			}
			ts.Constraints = append(ts.Constraints, cs)
		}

		for _, c := range m.cascades[t] {
			cs := CascadeSnapshot{
				Location: c.Location.String(),
				Element:  c.Location.ElementType.String(),
			}
			if withSources {
				cs.Source = c.Origin
			}
			ts.Cascades = append(ts.Cascades, cs)
		}

		result = append(result, ts)
	}

	return result
}

// ExpandPath expands template variables using current time.
// For consistency with snapshot metadata, prefer WriteSnapshot which
// uses the snapshot's internal timestamp for expansion.
func ExpandPath(template string) string {
	return ExpandPathWithTime(template, time.Now())
}

// ExpandPathWithTime expands template variables using the provided timestamp.
// Replaces all {{timestamp}} occurrences with the time formatted as 20060102-150405.
// Returns the path unchanged if no template variables are present.
func ExpandPathWithTime(template string, t time.Time) string {
	timestamp := t.UTC().Format("20060102-150405")
	return strings.ReplaceAll(template, "{{timestamp}}", timestamp)
}

// WriteSnapshot persists a snapshot to disk with atomic write semantics and
// returns the path written. Supports the {{timestamp}} template variable in
// the path, expanded with snapshot.Timestamp so the filename matches the content.
// Returns ErrSnapshotTooLarge if serialized size exceeds 100MB.
func WriteSnapshot(snapshot *MappingSnapshot, pathTemplate string) (string, error) {
	if snapshot == nil {
		return "", ErrNilSnapshot
	}

	targetPath := ExpandPathWithTime(pathTemplate, snapshot.Timestamp)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}

	if len(data) > MaxSnapshotSize {
		return "", ErrSnapshotTooLarge
	}

	dir := filepath.Dir(targetPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0700); mkdirErr != nil {
			return "", mkdirErr
		}
	}

	// Temp file lives next to the target so the rename stays on one filesystem.
	tempPath, err := generateTempFileName(targetPath)
	if err != nil {
		return "", err
	}

	var tempFileCreated bool
	defer func() {
		if tempFileCreated {
			_ = os.Remove(tempPath)
		}
	}()

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return "", err
	}
	tempFileCreated = true

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", err
	}
	tempFileCreated = false

	return targetPath, nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
// Returns ErrSnapshotTooLarge for files over MaxSnapshotSize and
// ErrUnsupportedVersion for unknown format versions.
func ReadSnapshot(path string) (*MappingSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSnapshotSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSnapshotSize {
		return nil, ErrSnapshotTooLarge
	}

	var snap MappingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if !supportedVersions[snap.Version] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, snap.Version)
	}

	return &snap, nil
}

// generateTempFileName returns targetPath + ".tmp." + 16 random hex chars.
func generateTempFileName(targetPath string) (string, error) {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	suffix := hex.EncodeToString(randomBytes)
	return targetPath + ".tmp." + suffix, nil
}
