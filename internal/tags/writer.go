package tags

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"verus-etags/internal/errors"
)

const (
	sectionMark = '\x0c'
	patternEnd  = '\x7f'
	nameEnd     = '\x01'
)

// Body returns the serialized tag lines of a section.
func (s Section) Body() []byte {
	var b bytes.Buffer
	for _, t := range s.Tags {
		b.WriteString(t.Pattern)
		b.WriteByte(patternEnd)
		b.WriteString(t.Name)
		b.WriteByte(nameEnd)
		b.WriteString(strconv.Itoa(t.Line))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(t.Offset))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Write serializes t in etags format. Sections without tags are omitted.
func Write(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	for _, s := range t.Sections {
		if len(s.Tags) == 0 {
			continue
		}
		body := s.Body()
		if _, err := fmt.Fprintf(bw, "%c\n%s,%d\n", sectionMark, s.Path, len(body)); err != nil {
			return err
		}
		if _, err := bw.Write(body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes t to path through a temporary file in the same
// directory, so a failed run never leaves a truncated table behind.
func WriteFile(path string, t *Table) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return errors.ForPath(errors.OutputUnwritable, path, "failed to create tag file", err)
	}
	if err := Write(f, t); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return errors.ForPath(errors.OutputUnwritable, path, "failed to write tag file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.ForPath(errors.OutputUnwritable, path, "failed to write tag file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.ForPath(errors.OutputUnwritable, path, "failed to rename tag file", err)
	}
	return nil
}
