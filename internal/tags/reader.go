package tags

import (
	"bytes"
	"io"
	"os"
	"strconv"

	"verus-etags/internal/errors"
)

// Read parses an etags table. Each section's declared size must match its
// body exactly. Entries of the form produced by other etags writers without
// an explicit tag name (pattern\x7fline,offset) are accepted; their name is
// left empty.
func Read(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses an etags table held in memory.
func Parse(data []byte) (*Table, error) {
	t := &Table{}
	rest := data
	for n := 1; len(rest) > 0; n++ {
		if len(rest) < 2 || rest[0] != sectionMark || rest[1] != '\n' {
			return nil, errors.Newf(errors.TagsMalformed, "section %d: expected form feed and newline", n)
		}
		rest = rest[2:]

		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			return nil, errors.Newf(errors.TagsMalformed, "section %d: unterminated header", n)
		}
		header := rest[:nl]
		rest = rest[nl+1:]
		comma := bytes.LastIndexByte(header, ',')
		if comma < 0 {
			return nil, errors.Newf(errors.TagsMalformed, "section %d: header without size", n)
		}
		path := string(header[:comma])
		size, err := strconv.Atoi(string(header[comma+1:]))
		if err != nil || size < 0 {
			return nil, errors.Newf(errors.TagsMalformed, "section %d (%s): invalid size %q", n, path, header[comma+1:])
		}
		if size > len(rest) {
			return nil, errors.Newf(errors.TagsMalformed, "section %d (%s): declares %d bytes, %d remain", n, path, size, len(rest))
		}
		body := rest[:size]
		rest = rest[size:]
		if len(rest) > 0 && rest[0] != sectionMark {
			return nil, errors.Newf(errors.TagsMalformed, "section %d (%s): size %d does not end at a section boundary", n, path, size)
		}

		sec := Section{Path: path}
		if err := parseBody(body, &sec); err != nil {
			return nil, errors.Newf(errors.TagsMalformed, "section %d (%s): %v", n, path, err)
		}
		t.Sections = append(t.Sections, sec)
	}
	return t, nil
}

type lineError struct {
	line int
	msg  string
}

func (e *lineError) Error() string {
	return "entry " + strconv.Itoa(e.line) + ": " + e.msg
}

func parseBody(body []byte, sec *Section) error {
	for i := 1; len(body) > 0; i++ {
		nl := bytes.IndexByte(body, '\n')
		if nl < 0 {
			return &lineError{i, "missing trailing newline"}
		}
		entry := body[:nl]
		body = body[nl+1:]

		del := bytes.IndexByte(entry, patternEnd)
		if del < 0 {
			return &lineError{i, "missing pattern delimiter"}
		}
		tag := Tag{Pattern: string(entry[:del])}
		loc := entry[del+1:]
		if soh := bytes.IndexByte(loc, nameEnd); soh >= 0 {
			tag.Name = string(loc[:soh])
			loc = loc[soh+1:]
		}
		comma := bytes.IndexByte(loc, ',')
		if comma < 0 {
			return &lineError{i, "missing line,offset"}
		}
		var err error
		if tag.Line, err = strconv.Atoi(string(loc[:comma])); err != nil {
			return &lineError{i, "invalid line number"}
		}
		if tag.Offset, err = strconv.Atoi(string(loc[comma+1:])); err != nil {
			return &lineError{i, "invalid byte offset"}
		}
		sec.Tags = append(sec.Tags, tag)
	}
	return nil
}

// ReadFile reads the table at path. A missing file yields an empty table.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, errors.ForPath(errors.FileUnreadable, path, "failed to open tag file", err)
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		if errors.HasCode(err, errors.TagsMalformed) {
			return nil, err
		}
		return nil, errors.ForPath(errors.FileUnreadable, path, "failed to read tag file", err)
	}
	return t, nil
}
