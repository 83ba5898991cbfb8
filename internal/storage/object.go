package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/windcast/windcast/internal/stamp"
)

// Object is a remote object-bucket backed Store. The bucket's own listing/
// auth semantics are an external collaborator per the system's scope - this
// talks to it over plain HTTP PUT/GET/HEAD/DELETE against
// "<endpoint>/<bucket>/<name>", which is the abstract contract the Provider
// engine needs regardless of which concrete object store sits behind it.
type Object struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string

	Client *http.Client
}

// NewObject creates an Object store; client defaults to a 30s-timeout
// http.Client when nil.
func NewObject(endpoint, region, bucket, accessKey, secretKey string, client *http.Client) *Object {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Object{
		Endpoint:  strings.TrimRight(endpoint, "/"),
		Region:    region,
		Bucket:    bucket,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Client:    client,
	}
}

func (o *Object) url(name string) string {
	return fmt.Sprintf("%s/%s/%s", o.Endpoint, o.Bucket, name)
}

func (o *Object) authenticate(req *http.Request) {
	req.SetBasicAuth(o.AccessKey, o.SecretKey)
}

// Save gzips sourcePath's contents in memory and PUTs them under name with
// content-encoding/cache-control/content-type set for long-lived immutable
// JSON artifacts. A non-200 response is an error.
func (o *Object) Save(ctx context.Context, sourcePath, name string) error {
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return errors.Wrapf(err, "reading %q", sourcePath)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return errors.Wrap(err, "gzipping payload")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "closing gzip writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, o.url(name), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return errors.Wrap(err, "building put request")
	}
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Cache-Control", "public, max-age=604800, immutable")
	req.Header.Set("Content-Type", "application/json")
	o.authenticate(req)

	resp, err := o.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "saving %q", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("saving %q: unexpected status %d", name, resp.StatusCode)
	}
	return nil
}

// Remove requires an HTTP 204 from the backend.
func (o *Object) Remove(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, o.url(name), nil)
	if err != nil {
		return errors.Wrap(err, "building delete request")
	}
	o.authenticate(req)

	resp, err := o.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "removing %q", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return errors.Errorf("removing %q: unexpected status %d", name, resp.StatusCode)
	}
	return nil
}

func (o *Object) Exists(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, o.url(name), nil)
	if err != nil {
		return false, errors.Wrap(err, "building head request")
	}
	o.authenticate(req)

	resp, err := o.Client.Do(req)
	if err != nil {
		return false, errors.Wrapf(err, "checking %q", name)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// ExistsBlocking is Exists with a background context. The engine's download
// walk and refresh loop call it on every backend, so for this store each
// check is a HEAD request over the network.
func (o *Object) ExistsBlocking(name string) (bool, error) {
	return o.Exists(context.Background(), name)
}

// List is not implemented for the object backend: enumerating a bucket
// requires its native listing API, which sits outside the abstract contract
// this system specifies (see spec.md §4.3). Bootstrap/refresh against an
// object-backed provider therefore relies on the in-memory Status already
// populated by prior runs, not a cold List.
func (o *Object) List(_ context.Context) ([]stamp.Stamp, error) {
	return nil, errors.New("object storage: List is not supported by the abstract bucket contract")
}

func (o *Object) Get(ctx context.Context, name string, v any) error {
	rc, err := o.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return errors.Wrapf(err, "decoding %q", name)
	}
	return nil
}

func (o *Object) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url(name), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building get request")
	}
	o.authenticate(req)

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", name)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("opening %q: unexpected status %d", name, resp.StatusCode)
	}

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, errors.Wrap(err, "opening gzip reader")
		}
		return &gzipReadCloser{gz: gz, body: resp.Body}, nil
	}
	return resp.Body, nil
}

func (o *Object) String() string {
	return fmt.Sprintf("ObjectStorage (%s)", o.Bucket)
}

type gzipReadCloser struct {
	gz   *gzip.Reader
	body io.ReadCloser
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	bodyErr := g.body.Close()
	if gzErr != nil {
		return gzErr
	}
	return bodyErr
}
