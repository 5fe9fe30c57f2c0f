package fetch

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Multipart is a pre-encoded multipart/form-data body. The pipeline sends it
// unmodified and can replay it when a request is retried.
type Multipart struct {
	contentType string
	data        []byte
}

// ContentType returns the multipart content type including its boundary.
func (m *Multipart) ContentType() string { return m.contentType }

// Bytes returns the encoded body.
func (m *Multipart) Bytes() []byte { return m.data }

// NewMultipart encodes fields as form values and files (form field name to
// local path) as file parts. Field names are decamelized; nil becomes an
// empty value, booleans "1"/"0", slices key[i] and maps key[child].
func NewMultipart(fields map[string]any, files map[string]string) (*Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := appendField(w, Decamelize(k), reflect.ValueOf(fields[k])); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := files[name]
		if path == "" {
			continue
		}
		if err := appendFile(w, Decamelize(name), path); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return &Multipart{contentType: w.FormDataContentType(), data: buf.Bytes()}, nil
}

func appendField(w *multipart.Writer, key string, v reflect.Value) error {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return w.WriteField(key, "")
		}
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return w.WriteField(key, s.String())
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return w.WriteField(key, "")
	}
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case time.Time:
			return w.WriteField(key, x.Format(time.RFC3339))
		case fmt.Stringer:
			return w.WriteField(key, x.String())
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return w.WriteField(key, "1")
		}
		return w.WriteField(key, "0")
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := appendField(w, key+"["+strconv.Itoa(i)+"]", v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		byKey := map[string]reflect.Value{}
		iter := v.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			byKey[k] = iter.Value()
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := appendField(w, key+"["+Decamelize(k)+"]", byKey[k]); err != nil {
				return err
			}
		}
		return nil
	default:
		return w.WriteField(key, fmt.Sprint(v.Interface()))
	}
}

func appendFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}
