package ontology

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	"gopkg.in/yaml.v3"
)

// Load decodes a hierarchy description from r and returns a ready-to-use
// Manager.
//
// The description maps class names to objects with the optional fields
// superclass (list of names), min, max, mean (numbers) and unitMeasure (list of
// units). Other fields are kept as metadata of the class:
//
//	{
//	  "Temperature": {"min": 0, "max": 100, "mean": 20, "unitMeasure": ["C"]},
//	  "RoomTemperature": {"superclass": ["Temperature"]}
//	}
//
// Load returns a *LoadError if the description cannot be read or is malformed.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*Manager, error) {
	return load(ctx, "reader", r, opts)
}

// LoadFile is like Load, reading the description from the named file. Files
// named *.yaml or *.yml are decoded as YAML unless WithFormat says otherwise.
func LoadFile(ctx context.Context, name string, opts ...Option) (*Manager, error) {
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Source: name, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	} else if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	defer func() { _ = f.Close() }()
	return load(ctx, name, f, opts)
}

// OpenBucket is like Load, reading the description from the object stored under
// key in the given bucket.
func OpenBucket(ctx context.Context, bucket *blob.Bucket, key string, opts ...Option) (*Manager, error) {
	r, err := bucket.NewReader(ctx, key, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, &LoadError{Source: key, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	} else if err != nil {
		return nil, &LoadError{Source: key, Err: fmt.Errorf("open reader: %w", err)}
	}
	defer func() { _ = r.Close() }()
	return load(ctx, key, r, opts)
}

// OpenURL is like OpenBucket, locating the description by a gocloud blob URL
// that includes the object key, for example:
//
//	file:///var/lib/sensortwin/class_hierarchy.json
//	s3://my-bucket/ontology/class_hierarchy.yaml?region=eu-west-1
//
// The scheme's blob driver must be linked into the binary (e.g. by importing
// gocloud.dev/blob/fileblob).
func OpenURL(ctx context.Context, urlstr string, opts ...Option) (*Manager, error) {
	bucketURL, key, err := splitObjectURL(urlstr)
	if err != nil {
		return nil, &LoadError{Source: urlstr, Err: err}
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, &LoadError{Source: urlstr, Err: fmt.Errorf("open bucket: %w", err)}
	}
	defer func() { _ = bucket.Close() }()

	m, err := OpenBucket(ctx, bucket, key, opts...)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Source = urlstr
		}
		return nil, err
	}
	return m, nil
}

// splitObjectURL separates an object URL into the URL of its bucket and the key
// of the object within that bucket. For file URLs, the bucket is the object's
// directory; for other schemes, the bucket is the URL's host.
func splitObjectURL(urlstr string) (bucketURL, key string, err error) {
	u, err := url.Parse(urlstr)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" {
		return "", "", fmt.Errorf("url %q has no scheme", urlstr)
	}
	if u.Scheme == "file" {
		var dir string
		dir, key = path.Split(u.Path)
		u.Path = dir
	} else {
		key = strings.TrimPrefix(u.Path, "/")
		u.Path = ""
	}
	if key == "" {
		return "", "", fmt.Errorf("url %q has no object key", urlstr)
	}
	return u.String(), key, nil
}

func load(ctx context.Context, source string, r io.Reader, opts []Option) (m *Manager, err error) {
	ctx, span := tracer.Start(ctx, "Load", trace.WithAttributes(
		attribute.String("ontology.source", source),
	))
	defer span.End()

	defer func(start time.Time) {
		measureLoad(ctx, err == nil, time.Since(start))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}(time.Now())

	o := newOptions(opts)
	format := o.format
	if format == FormatAuto {
		format = formatOf(source)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("read: %w", err)}
	}
	raw, err := decode(data, format)
	if err != nil {
		return nil, &LoadError{Source: source, Err: malformed(fmt.Errorf("decode %v: %w", format, err))}
	}

	h := make(Hierarchy, len(raw))
	for name, fields := range raw {
		c, err := parseClass(name, fields)
		if err != nil {
			return nil, &LoadError{Source: source, Err: malformed(err)}
		}
		h[name] = c
	}

	m, err = newManager(ctx, h, o)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	span.SetAttributes(attribute.Int("ontology.classes", len(h)))
	return m, nil
}

func formatOf(source string) Format {
	switch strings.ToLower(path.Ext(source)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// decode unmarshals the description into loosely-typed class objects. Both
// encodings yield nil for null values, []any for lists, and numbers that the
// number function understands.
func decode(data []byte, format Format) (map[string]map[string]any, error) {
	var raw map[string]map[string]any
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		return nil, errors.New("empty document")
	}
	return raw, nil
}
