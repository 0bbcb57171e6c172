package dtc

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

type File struct {
	Name string
	Data []byte
}

// Output is a compiled device table held in memory.
type Output struct {
	Files []File
	// Table is the table name from the options, empty for the default table.
	Table string
	// Devices lists the table entries in initialization order.
	Devices  []string
	Warnings []string
}

// File returns the contents of the named output file.
func (o *Output) File(name string) ([]byte, bool) {
	for _, f := range o.Files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

// Write stores the files in dir. Every file is staged next to its target
// first and only renamed into place once all of them were written, so a
// failure never leaves a mix of old and new files behind. Files whose
// content is unchanged are not touched.
func (o *Output) Write(dir string) (err error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Annotate(err, "creating output directory")
	}

	type staged struct {
		tmp  string
		path string
	}
	var pending []staged
	defer func() {
		if err != nil {
			for _, s := range pending {
				os.Remove(s.tmp)
			}
		}
	}()

	for _, f := range o.Files {
		path := filepath.Join(dir, f.Name)
		if existing, readErr := os.ReadFile(path); readErr == nil && bytes.Equal(existing, f.Data) {
			glog.V(1).Infof("%s is up to date", path)
			continue
		}

		tmp, err := os.CreateTemp(dir, "."+f.Name+".*")
		if err != nil {
			return errors.Annotatef(err, "staging %s", f.Name)
		}
		pending = append(pending, staged{tmp: tmp.Name(), path: path})

		_, err = tmp.Write(f.Data)
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if err == nil {
			err = os.Chmod(tmp.Name(), 0644)
		}
		if err != nil {
			return errors.Annotatef(err, "writing %s", f.Name)
		}
	}

	for i, s := range pending {
		if err := os.Rename(s.tmp, s.path); err != nil {
			pending = pending[i:]
			return errors.Annotatef(err, "replacing %s", s.path)
		}
		glog.V(1).Infof("wrote %s", s.path)
	}
	pending = nil
	return nil
}
