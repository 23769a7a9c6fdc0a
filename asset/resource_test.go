package asset

import (
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local resource")
	}
	if res.Name() != "resource_test.go" {
		t.Fatalf("expected name resource_test.go; got %s", res.Name())
	}
}

func TestLocalRelativeResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	parent, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer parent.Close()

	sibling, err := NewResource("resource.go", parent)
	if err != nil {
		t.Fatal(err)
	}
	defer sibling.Close()

	if filepath.Base(sibling.Path()) != "resource.go" {
		t.Fatalf("expected sibling path to end in resource.go; got %s", sibling.Path())
	}
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
	if !res.IsRemote() {
		t.Fatal("expected remote resource")
	}

	fetchUrl = server.URL + "/file-not-found.obj"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(fetchUrl, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeRemoteResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		switch r.URL.Path {
		case "/minis/goblin.obj", "/minis/goblin_base.obj":
			w.Write([]byte("v 0 0 0"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/minis/goblin.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("goblin_base.obj", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	data, err := ioutil.ReadAll(res2)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v 0 0 0" {
		t.Fatalf("expected to read payload; got %q", string(data))
	}
	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	_, err := NewResource("gopher://digging.obj", nil)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected to get ErrUnsupportedScheme; got %v", err)
	}
}

func TestResourceFromStream(t *testing.T) {
	res := NewResourceFromStream("inline.obj", strings.NewReader("payload"))
	defer res.Close()

	data, _ := ioutil.ReadAll(res)
	if string(data) != "payload" || res.Path() != "inline.obj" || res.IsRemote() {
		t.Fatalf("unexpected stream resource state: %q %s", string(data), res.Path())
	}
}
