package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/bytedance/sonic"
	"github.com/google/renameio/v2"
)

const (
	// DefaultFilename is the manifest used when no path is given.
	DefaultFilename = "app.json"

	indent = "  "
)

var (
	// ErrRead is returned when the manifest cannot be read.
	ErrRead = errors.New("read manifest")
	// ErrParse is returned when the manifest is not valid JSON or lacks the expected shape.
	ErrParse = errors.New("parse manifest")
	// ErrWrite is returned when the manifest cannot be replaced.
	ErrWrite = errors.New("write manifest")
)

var (
	buildNumberPath = []string{"expo", "ios", "buildNumber"}
	versionCodePath = []string{"expo", "android", "versionCode"}

	// uniqueKeys must appear at most once inside their parent object.
	uniqueKeys = [][]string{
		{"expo"},
		{"expo", "ios"},
		{"expo", "android"},
		buildNumberPath,
		versionCodePath,
	}
)

// Manifest is the typed view of the fields this package touches.
type Manifest struct {
	Expo *Expo `json:"expo"`
}

// Expo is the "expo" section of app.json.
type Expo struct {
	IOS     *IOS     `json:"ios"`
	Android *Android `json:"android"`
}

// IOS is the "expo.ios" section of app.json.
type IOS struct {
	BuildNumber *string `json:"buildNumber"`
}

// Android is the "expo.android" section of app.json.
type Android struct {
	VersionCode *json.Number `json:"versionCode"`
}

// BuildNumber returns expo.ios.buildNumber or "" when unset.
func (m *Manifest) BuildNumber() string {
	if m.Expo == nil || m.Expo.IOS == nil || m.Expo.IOS.BuildNumber == nil {
		return ""
	}

	return *m.Expo.IOS.BuildNumber
}

// VersionCode returns expo.android.versionCode or 0 when unset.
func (m *Manifest) VersionCode() int64 {
	if m.Expo == nil || m.Expo.Android == nil || m.Expo.Android.VersionCode == nil {
		return 0
	}

	return VersionCode(m.Expo.Android.VersionCode.String())
}

func (m *Manifest) validate() error {
	switch {
	case m.Expo == nil:
		return fmt.Errorf("%w: missing \"expo\" object", ErrParse)
	case m.Expo.IOS == nil:
		return fmt.Errorf("%w: missing \"expo.ios\" object", ErrParse)
	case m.Expo.Android == nil:
		return fmt.Errorf("%w: missing \"expo.android\" object", ErrParse)
	}

	return nil
}

// Document is a manifest file loaded in memory.
type Document struct {
	path     string
	mode     os.FileMode
	raw      []byte
	manifest Manifest
}

// Read loads and validates the manifest at path (DefaultFilename when empty).
func Read(path string) (*Document, error) {
	if path == "" {
		path = DefaultFilename
	}

	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	doc := &Document{
		path: path,
		mode: info.Mode().Perm(),
		raw:  raw,
	}

	if err = doc.decode(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Path returns the cleaned location of the manifest.
func (d *Document) Path() string {
	return d.path
}

// Manifest returns the typed view of the current content.
func (d *Document) Manifest() Manifest {
	return d.manifest
}

// SetBuildNumber writes value as the iOS build number and its integer form
// (see VersionCode) as the Android version code.
func (d *Document) SetBuildNumber(value string) error {
	quoted, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode build number: %w", err)
	}

	// jsonparser.Set may reuse the input buffer.
	raw, err := jsonparser.Set(bytes.Clone(d.raw), quoted, buildNumberPath...)
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrParse, strings.Join(buildNumberPath, "."), err)
	}

	code := strconv.FormatInt(VersionCode(value), 10)

	raw, err = jsonparser.Set(raw, []byte(code), versionCodePath...)
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrParse, strings.Join(versionCodePath, "."), err)
	}

	d.raw = raw

	return d.decode()
}

// Bytes renders the document with two-space indentation.
func (d *Document) Bytes() ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, d.raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return out.Bytes(), nil
}

// Save replaces the file on disk. The new content goes to a temporary file in
// the same directory that is renamed over the original in one step; on any
// error the temporary file is removed and the original is left untouched.
func (d *Document) Save() error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(d.path, renameio.WithStaticPermissions(d.mode))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	defer func() {
		_ = pending.Cleanup()
	}()

	if _, err = pending.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err = pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

func (d *Document) decode() error {
	var m Manifest
	if err := sonic.Unmarshal(d.raw, &m); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}

	if err := m.validate(); err != nil {
		return err
	}

	if err := checkEditedKeys(d.raw); err != nil {
		return err
	}

	d.manifest = m

	return nil
}

// checkEditedKeys looks at the raw document, where field edits are applied:
// every key on an edited path is unique and versionCode is a JSON number.
func checkEditedKeys(raw []byte) error {
	for _, path := range uniqueKeys {
		parent, key := path[:len(path)-1], path[len(path)-1]

		count := 0

		err := jsonparser.ObjectEach(raw, func(k, _ []byte, _ jsonparser.ValueType, _ int) error {
			if string(k) == key {
				count++
			}

			return nil
		}, parent...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParse, err)
		}

		if count > 1 {
			return fmt.Errorf("%w: duplicate %q key", ErrParse, strings.Join(path, "."))
		}
	}

	_, kind, _, err := jsonparser.Get(raw, versionCodePath...)

	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrParse, err)
	case kind != jsonparser.Number && kind != jsonparser.Null:
		return fmt.Errorf("%w: %q must be a number, got %s", ErrParse, strings.Join(versionCodePath, "."), kind)
	}

	return nil
}

// Write sets the build number of the manifest at path and saves it.
func Write(path, value string) (*Document, error) {
	doc, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err = doc.SetBuildNumber(value); err != nil {
		return nil, err
	}

	if err = doc.Save(); err != nil {
		return nil, err
	}

	return doc, nil
}

// VersionCode converts a build number to the Android integer form.
// Decimals keep their integer part; anything non-numeric becomes 0.
func VersionCode(value string) int64 {
	value = strings.TrimSpace(value)
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0
	}

	return int64(f)
}
