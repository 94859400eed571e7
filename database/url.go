package database

import (
	"fmt"
	"strings"
)

// BuildConnectionURL joins a base postgres URL with a database name, keeping
// any query parameters the base already carries. Local deployments rarely run
// TLS on postgres, so sslmode=disable is appended unless the caller set one.
func BuildConnectionURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base := strings.TrimRight(baseURL, "/")

	var url string
	if path, query, found := strings.Cut(base, "?"); found {
		url = fmt.Sprintf("%s/%s?%s", path, databaseName, query)
	} else {
		url = fmt.Sprintf("%s/%s", base, databaseName)
	}

	if !strings.Contains(url, "sslmode=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "sslmode=disable"
	}

	return url
}
