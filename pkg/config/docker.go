package config

import (
	"net/url"
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the application is running inside a Docker container.
// Detection is based on the presence of /.dockerenv file which exists in all Docker containers.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveEndpointForDocker rewrites a localhost endpoint to host.docker.internal
// when running in Docker, so a model server on the host stays reachable.
// Unparseable endpoints are returned unchanged.
func ResolveEndpointForDocker(endpoint string) string {
	if !IsRunningInDocker() {
		return endpoint
	}
	return rewriteLocalhost(endpoint)
}

func rewriteLocalhost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		host := "host.docker.internal"
		if port := u.Port(); port != "" {
			host += ":" + port
		}
		u.Host = host
		return u.String()
	default:
		return endpoint
	}
}
