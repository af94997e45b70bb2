package submission

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"
)

// File is an uploaded form file read into memory.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// Form is a parsed multipart body.
type Form struct {
	Values map[string][]string
	Files  map[string]*File
}

// Get returns the first value for name, trimmed.
func (f Form) Get(name string) string {
	if vs := f.Values[name]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// All returns every non-empty value for name. A single comma-separated value
// is split. Duplicates are dropped keeping first occurrence.
func (f Form) All(name string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range f.Values[name] {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// File returns the named upload or nil.
func (f Form) File(name string) *File {
	if f.Files == nil {
		return nil
	}
	return f.Files[name]
}

// FormFromMultipart copies values and reads the first file of each field.
func FormFromMultipart(mf *multipart.Form) (Form, error) {
	form := Form{Values: map[string][]string{}, Files: map[string]*File{}}
	if mf == nil {
		return form, nil
	}
	for k, v := range mf.Value {
		form.Values[k] = v
	}
	for field, headers := range mf.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		content, err := readFileHeader(fh)
		if err != nil {
			return Form{}, fmt.Errorf("read upload %s: %w", field, err)
		}
		form.Files[field] = &File{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     content,
		}
	}
	return form, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
