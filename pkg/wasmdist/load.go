package wasmdist

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/davidmdm/x/xerr"
)

func isRemote(ref string) bool {
	uri, err := url.Parse(ref)
	return err == nil && slices.Contains([]string{"http", "https"}, uri.Scheme)
}

// PayloadName is the file name a payload reference contributes to sibling
// delivery, without any .gz suffix.
func PayloadName(ref string) string {
	name := filepath.Base(ref)
	if isRemote(ref) {
		uri, _ := url.Parse(ref)
		name = path.Base(uri.Path)
	}
	if filepath.Ext(name) == ".gz" {
		name = name[:len(name)-len(".gz")]
	}
	return name
}

// LoadPayload reads the payload from a local file, a gzip compressed local file
// or an http(s) URL.
func LoadPayload(ctx context.Context, ref string) (payload []byte, err error) {
	uri, err := url.Parse(ref)
	if err != nil || uri.Scheme == "" || len(uri.Scheme) == 1 {
		return loadFile(ref)
	}

	if !isRemote(ref) {
		return nil, fmt.Errorf("unsupported protocol: %s - http(s) supported only", uri.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", uri.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, resp.Body.Close())
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected statuscode fetching %s: %d", uri.String(), resp.StatusCode)
	}

	if resp.Header.Get("Content-Encoding") == "gzip" || path.Ext(uri.Path) == ".gz" {
		return io.ReadAll(gzipReader(resp.Body))
	}

	return io.ReadAll(resp.Body)
}

func loadFile(path string) (result []byte, err error) {
	if filepath.Ext(path) != ".gz" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &FilesystemError{Op: "read payload", Path: path, Err: err}
		}
		return data, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &FilesystemError{Op: "open payload", Path: path, Err: err}
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, file.Close())
	}()

	return io.ReadAll(gzipReader(file))
}

func gzipReader(r io.Reader) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		gr, err := gzip.NewReader(r)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(pw, gr); err != nil {
			pw.CloseWithError(err)
		}
		pw.CloseWithError(gr.Close())
	}()

	return pr
}
