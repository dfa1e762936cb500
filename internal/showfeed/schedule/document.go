package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Document is the persisted schedule, keyed by show slug.
type Document struct {
	LastUpdated time.Time
	Shows       map[string]Production
}

type documentJson struct {
	LastUpdated string                `json:"last_updated"`
	Shows       map[string]Production `json:"shows"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	shows := d.Shows
	if shows == nil {
		shows = map[string]Production{}
	}
	return marshal(documentJson{
		LastUpdated: d.LastUpdated.Format(time.RFC3339),
		Shows:       shows,
	})
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw documentJson
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	d.LastUpdated, err = time.Parse(time.RFC3339, raw.LastUpdated)
	if err != nil {
		return fmt.Errorf("last_updated: %w", err)
	}
	d.Shows = raw.Shows
	return nil
}

// Reduced builds the minimal valid document: every known show with its
// identity, no events and null metadata.
func Reduced(known map[string]Production, now time.Time) Document {
	shows := make(map[string]Production, len(known))
	for slug, p := range known {
		shows[slug] = p.Skeleton()
	}
	return Document{LastUpdated: now, Shows: shows}
}

// Encode renders the document with 2 space indentation, html characters and
// umlauts are written as is.
func Encode(doc Document) ([]byte, error) {
	buff := bytes.NewBuffer(nil)
	encoder := json.NewEncoder(buff)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(doc)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// Read loads a document written by Write.
func Read(path string) (Document, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	err = json.Unmarshal(contents, &doc)
	if err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// Write replaces the file at path with the encoded document. Readers only
// ever see the previous or the new file: the document goes to a temporary
// file in the same directory which is then renamed over path.
func Write(path string, doc Document) error {
	contents, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	return writeAtomic(path, contents)
}

func writeAtomic(path string, contents []byte) (err error) {
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.Write(contents)
	if err != nil {
		return err
	}
	err = tmp.Sync()
	if err != nil {
		return err
	}
	err = tmp.Chmod(0644)
	if err != nil {
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
