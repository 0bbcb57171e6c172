// Package devconf holds the device description model: one normalized record
// per configured device, backed by the YAML description document it was
// loaded from.
package devconf

import (
	"bytes"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"golang.org/x/exp/slices"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"omibyte.io/wmdt/targets"
)

// SupportedVersion is the major description format version this package
// understands.
const SupportedVersion = "v1"

type Model struct {
	mu    sync.Mutex
	store Store
	chip  targets.Chip

	doc     *yaml.Node
	devs    *yaml.Node
	version string
	table   string

	entries map[Key]*yaml.Node
	records map[Key]Record
	order   []Key
}

// Load reads the description from store. Only a document that is not valid
// YAML, or whose shape is not a description at all, is an error; any
// problem inside a device entry falls back to class defaults.
func Load(store Store, chip targets.Chip) (*Model, error) {
	data, err := store.Load()
	if err != nil {
		return nil, errors.Annotate(err, "reading device description")
	}

	m := &Model{
		store:   store,
		chip:    chip,
		entries: map[Key]*yaml.Node{},
		records: map[Key]Record{},
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotate(err, "parsing device description")
	}
	// An empty file, a bare document marker and an explicit null all describe
	// an empty table.
	if doc.Kind == 0 || len(doc.Content) == 0 || doc.Content[0].ShortTag() == "!!null" {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{newMapping()}}
	}
	m.doc = &doc

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.NotValidf("device description root")
	}

	r := reader{dev: "description", node: root}
	m.version = r.str("version", "")
	if len(m.version) > 0 {
		v := m.version
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			glog.Warningf("description version %q is not a semantic version", m.version)
		} else if semver.Major(v) != SupportedVersion {
			glog.Warningf("description version %s may not be understood, expected %s.x", m.version, SupportedVersion)
		}
	}
	m.table = r.str("table_name", "")

	m.devs = lookup(root, "dev")
	if m.devs == nil {
		m.devs = newSequence()
		put(root, "dev", m.devs)
	} else if m.devs.Kind != yaml.SequenceNode {
		return nil, errors.NotValidf("device list")
	}

	for i, entry := range m.devs.Content {
		name, _ := scalarString(lookup(entry, "dev_name"))
		if entry.Kind != yaml.MappingNode || len(name) == 0 {
			glog.Warningf("dev[%d]: entry without a device name", i)
			continue
		}

		key, ok := ParseKey(name)
		if !ok || !key.Valid() {
			glog.Warningf("dev[%d]: unknown device %q", i, name)
			continue
		}
		if _, dup := m.entries[key]; dup {
			glog.Warningf("dev[%d]: duplicate device %q ignored", i, name)
			continue
		}

		rec := decodeEntry(key, entry, chip, nil)
		m.deriveClocks(&rec)
		m.entries[key] = entry
		m.records[key] = rec
		m.order = append(m.order, key)
	}

	m.refreshClocks()

	glog.V(1).Infof("loaded %d devices for %s", len(m.order), chip.Name)
	return m, nil
}

// Chip returns the chip variant the model was loaded for.
func (m *Model) Chip() targets.Chip {
	return m.chip
}

// TableName returns the device table name set by the description.
func (m *Model) TableName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table
}

// Version returns the description format version, if the document has one.
func (m *Model) Version() string {
	return m.version
}

// Get returns the record for key. A device missing from the description
// yields its class default with Exists cleared.
func (m *Model) Get(key Key) (Record, error) {
	if !key.Valid() {
		return Record{}, errors.NotFoundf("device %q", key.Name())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[key]; ok {
		return rec.Clone(), nil
	}

	rec := Default(key)
	m.deriveClocks(&rec)
	return rec, nil
}

// Records returns every device present in the description, in class
// processing order and then document order.
func (m *Model) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := slices.Clone(m.order)
	slices.SortStableFunc(keys, func(a, b Key) int {
		return int(a.Class) - int(b.Class)
	})

	result := make([]Record, len(keys))
	for i, key := range keys {
		result[i] = m.records[key].Clone()
	}
	return result
}

// Set replaces the record for key, re-derives the values the model owns and
// persists the whole document. On any error the model and the backing store
// are left unchanged.
func (m *Model) Set(key Key, rec Record) error {
	if !key.Valid() {
		return errors.NotFoundf("device %q", key.Name())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return errors.NotFoundf("device %q in the description", key.Name())
	}

	rec = rec.Clone()
	rec.Key = key
	rec.Exists = true

	if c, ok := rec.Config.(RCCConfig); ok {
		prev, _ := m.records[key].Config.(RCCConfig)
		rec.Config = syncDividers(prev, c)
	}
	deriveFuns(&rec, m.chip)
	m.deriveClocks(&rec)

	if err := validate(rec, m.chip); err != nil {
		return err
	}

	updated := cloneNode(entry)
	encodeEntry(writer{node: updated}, rec)

	i := slices.Index(m.devs.Content, entry)
	m.devs.Content[i] = updated

	data, err := m.marshal()
	if err == nil {
		err = m.store.Save(data)
	}
	if err != nil {
		m.devs.Content[i] = entry
		return errors.Annotatef(err, "saving %s", key.Name())
	}

	m.entries[key] = updated
	m.records[key] = rec
	if key.Class == ClassRCC {
		m.refreshClocks()
	}

	glog.V(1).Infof("updated %s", key.Name())
	return nil
}

// Bytes returns the serialized document.
func (m *Model) Bytes() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marshal()
}

func (m *Model) marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m.doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cpuClockHz returns the CPU clock of the current clock tree.
func (m *Model) cpuClockHz() int {
	rcc, ok := m.records[Key{Class: ClassRCC}]
	if !ok {
		rcc = Default(Key{Class: ClassRCC})
	}
	c, _ := rcc.Config.(RCCConfig)
	return c.CPUClockHz()
}

// deriveClocks fills in the values that follow from the clock tree.
func (m *Model) deriveClocks(rec *Record) {
	switch c := rec.Config.(type) {
	case RCCConfig:
		c.Clocks = slices.Clone(c.Clocks)
		c.Clocks = setDividedClock(c.Clocks, RCCCPU, c.CPUDiv)
		c.Clocks = setDividedClock(c.Clocks, RCCWLAN, c.WLANDiv)
		rec.Config = c
	case SDMMCConfig:
		c.CPUClockHz = m.cpuClockHz()
		rec.Config = c
	case PSRAMConfig:
		c.CPUClockHz = m.cpuClockHz()
		rec.Config = c
	}
}

// setDividedClock makes the clock of type t agree with div. A clock that
// already truncates to div is kept as is.
func setDividedClock(clocks []RCCClock, t RCCType, div int) []RCCClock {
	if div <= 0 {
		return clocks
	}
	for i, clock := range clocks {
		if clock.Type != t {
			continue
		}
		if clock.Clock <= 0 || PLLMHz/clock.Clock != div {
			clocks[i].Clock = PLLMHz / div
		}
		return clocks
	}
	return append(clocks, RCCClock{Type: t, Clock: PLLMHz / div})
}

// syncDividers lets a clock edited without touching its divider set the
// divider. When both changed the divider wins.
func syncDividers(prev, next RCCConfig) RCCConfig {
	next.CPUDiv = divider(prev, next, RCCCPU, prev.CPUDiv, next.CPUDiv)
	next.WLANDiv = divider(prev, next, RCCWLAN, prev.WLANDiv, next.WLANDiv)
	return next
}

func divider(prev, next RCCConfig, t RCCType, prevDiv, nextDiv int) int {
	if nextDiv != prevDiv {
		return nextDiv
	}
	clock := clockOf(next.Clocks, t)
	if clock <= 0 || clock == clockOf(prev.Clocks, t) {
		return nextDiv
	}
	return PLLMHz / clock
}

func clockOf(clocks []RCCClock, t RCCType) int {
	for _, clock := range clocks {
		if clock.Type == t {
			return clock.Clock
		}
	}
	return 0
}

func (m *Model) refreshClocks() {
	for key, rec := range m.records {
		switch rec.Class {
		case ClassSDMMC, ClassPSRAM:
			m.deriveClocks(&rec)
			m.records[key] = rec
			if err := validateConfig(rec.Config, m.chip); err != nil {
				glog.Warningf("%s: %v", key.Name(), err)
			}
		}
	}
}
