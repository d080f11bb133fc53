// Package datasource abstracts where an upload's bytes come from.
package datasource

import (
	"context"
	"io"
	"strings"

	"studentetl/internal/datasource/file"
	"studentetl/internal/datasource/httpds"
)

// Source opens an input stream. Name is used to pick a parser by extension.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// For returns the source for a CLI argument: http(s) URLs are downloaded
// with client, anything else is a local path. "-" reads stdin, or os.Stdin
// when stdin is nil.
func For(arg string, client *httpds.Client, stdin io.Reader) Source {
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if client == nil {
			client = httpds.NewClient(httpds.Config{})
		}
		return httpds.NewSource(client, arg)
	}
	if arg == file.Stdin && stdin != nil {
		return file.NewStdin(stdin)
	}
	return file.NewLocal(arg)
}
