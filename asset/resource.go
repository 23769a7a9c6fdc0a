package asset

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrUnsupportedScheme = errors.New("resource: unsupported scheme")
)

// The client used for fetching remote mesh resources.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// A Resource wraps a streamable mesh file which may live on the local
// filesystem or on a remote http(s) server.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the base name of the resource.
func (r *Resource) Name() string {
	return filepath.Base(r.url.Path)
}

// Returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. If relTo is specified and pathToResource does not define
// a scheme, the resource path is resolved relative to the directory of relTo.
// This allows mesh files to include other files using relative paths both
// locally and on a remote server.
//
// The caller must close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	if resURL.Scheme == "" && relTo != nil {
		resURL, err = resolveRelative(resURL.Path, relTo.url)
		if err != nil {
			return nil, err
		}
	}

	reader, err := open(resURL)
	if err != nil {
		return nil, err
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, _ := url.Parse(name)
	return &Resource{
		ReadCloser: ioutil.NopCloser(source),
		url:        resURL,
	}
}

func resolveRelative(path string, parent *url.URL) (*url.URL, error) {
	resolved := *parent
	prefix := parent.Path
	if parent.Scheme == "" {
		absPrefix, err := filepath.Abs(parent.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", parent.String(), err)
		}
		prefix = absPrefix
	}
	resolved.Path = filepath.ToSlash(filepath.Dir(prefix)) + "/" + path
	return &resolved, nil
}

func open(resURL *url.URL) (io.ReadCloser, error) {
	switch resURL.Scheme {
	case "":
		return os.Open(filepath.Clean(resURL.Path))
	case "http", "https":
		resp, err := httpClient.Get(resURL.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", resURL.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		return resp.Body, nil
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnsupportedScheme, resURL.Scheme)
	}
}
