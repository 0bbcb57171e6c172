package devconf

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/juju/errors"

	"omibyte.io/wmdt/targets"
)

func TestRecordCodec(t *testing.T) {
	m, _ := loadFixture(t)

	for _, rec := range m.Records() {
		t.Run(rec.Name(), func(t *testing.T) {
			data, err := EncodeRecord(rec)
			if err != nil {
				t.Fatal(err)
			}
			got, err := DecodeRecord(rec.Key, data, m.Chip())
			if err != nil {
				t.Fatalf("%v\n%s", err, data)
			}

			// Derived clocks are not part of an entry.
			want := rec.Clone()
			switch c := want.Config.(type) {
			case SDMMCConfig:
				c.CPUClockHz = 240000000
				want.Config = c
			case PSRAMConfig:
				c.CPUClockHz = 240000000
				want.Config = c
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected %+v\ngot      %+v", want, got)
			}
		})
	}
}

func TestDecodeRecordStrict(t *testing.T) {
	key := Key{Class: ClassUART, Instance: "2"}

	tests := []struct {
		name  string
		entry string
		ok    bool
	}{
		{"valid", "dev_name: uart2\nuart_cfg: {baudrate: 9600, parity: even}\n", true},
		{"without name", "uart_cfg: {baudrate: 9600}\n", true},
		{"other device", "dev_name: uart3\n", false},
		{"enum", "uart_cfg: {parity: sometimes}\n", false},
		{"integer", "uart_cfg: {baudrate: fast}\n", false},
		{"pin", "pin_cfg:\n  - {pin: 60, fun: fun2}\n  - {pin: 3, fun: fun2}\n", false},
		{"function", "pin_cfg:\n  - {pin: 2, fun: fun9}\n  - {pin: 3, fun: fun2}\n", false},
		{"table", "uart_cfg: 9600\n", false},
		{"not a table", "- uart2\n", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec, err := DecodeRecord(key, []byte(test.entry), targets.Baseline())
			if test.ok {
				if err != nil {
					t.Fatal(err)
				}
				if !rec.Exists || rec.Key != key {
					t.Errorf("unexpected record %+v", rec)
				}
				return
			}
			if !errors.Is(err, errors.NotValid) {
				t.Errorf("expected NotValid, got %v", err)
			}
		})
	}
}

func TestEncodeRecordFormat(t *testing.T) {
	m, _ := loadFixture(t)

	rec := mustGet(t, m, "eeprom0")
	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{"dev_name: eeprom0", "i2c_addr: 0x50", "pin_cfg:\n  pin: 30", "pupd: pullup", "i2c_device: i2c"} {
		if !strings.Contains(string(data), s) {
			t.Errorf("expected %q in\n%s", s, data)
		}
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device_table.yaml")
	if err := os.WriteFile(path, []byte("dev: []\n"), 0600); err != nil {
		t.Fatal(err)
	}

	store := FileStore(path)
	if err := store.Save([]byte("table_name: board\n")); err != nil {
		t.Fatal(err)
	}

	data, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "table_name: board\n" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected the file mode to be kept, got %v", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no temporary files to remain, found %d entries", len(entries))
	}
}

func TestFileStoreModel(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "description.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "device_table.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(FileStore(path), targets.Baseline())
	if err != nil {
		t.Fatal(err)
	}
	rec := mustGet(t, m, "i2c")
	rec.Config = I2CConfig{MaxClock: 100000}
	if err := m.Set(rec.Key, rec); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(FileStore(path), targets.Baseline())
	if err != nil {
		t.Fatal(err)
	}
	if c := mustGet(t, reloaded, "i2c").Config.(I2CConfig); c.MaxClock != 100000 {
		t.Errorf("expected the new clock, got %d", c.MaxClock)
	}
}
