package devconf

import (
	"bytes"
	"strings"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"omibyte.io/wmdt/targets"
)

// EncodeRecord renders a record as a standalone device entry in the same
// format the description document uses.
func EncodeRecord(rec Record) ([]byte, error) {
	entry := newMapping()
	encodeEntry(writer{node: entry}, rec)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(entry); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRecord parses a standalone device entry for key. Unlike loading a
// description it is strict: any field that would have fallen back to its
// default is reported as NotValid.
func DecodeRecord(key Key, data []byte, chip targets.Chip) (Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Record{}, errors.Annotatef(err, "parsing %s", key.Name())
	}
	if doc.Kind == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return Record{}, errors.NotValidf("%s entry", key.Name())
	}
	entry := doc.Content[0]

	if name, ok := scalarString(lookup(entry, "dev_name")); ok && name != key.Name() {
		return Record{}, errors.NotValidf("entry for %q given for %s", name, key.Name())
	}

	var issues []string
	rec := decodeEntry(key, entry, chip, &issues)
	if len(issues) > 0 {
		return Record{}, errors.NewNotValid(nil, strings.Join(issues, "; "))
	}
	return rec, nil
}
