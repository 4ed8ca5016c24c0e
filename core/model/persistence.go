package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/ezoic/agrodash/pkg/errors"
)

// Register makes concrete estimator types known to gob so they can travel
// inside interface-typed fields such as pipeline steps.
func Register(values ...interface{}) {
	for _, v := range values {
		gob.Register(v)
	}
}

// SaveModel serializes m to path with encoding/gob.
func SaveModel(m interface{}, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	err = SaveModelToWriter(m, file)
	if err == nil {
		err = file.Sync()
	}
	return closeAfter(file, err)
}

// closeAfter closes c and reports the first of err and the close error.
func closeAfter(c io.Closer, err error) error {
	cerr := c.Close()
	if err != nil {
		return err
	}
	return errors.Wrap(cerr, "failed to close file")
}

// SaveModelToWriter serializes m to w with encoding/gob.
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if fitted, ok := m.(interface{ IsFitted() bool }); ok && !fitted.IsFitted() {
		return errors.NewNotFittedError(fmt.Sprintf("%T", m), "SaveModel")
	}
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModel restores a model previously written by SaveModel into m, which
// must be a pointer to the same concrete type.
func LoadModel(m interface{}, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return LoadModelFromReader(m, file)
}

// LoadModelFromReader decodes a gob-encoded model from r into m.
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
