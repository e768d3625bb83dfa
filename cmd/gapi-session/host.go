package main

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-gapi-session/gapi"
)

// cliHost is the minimal host the plugin installs into.
type cliHost struct {
	lock    sync.RWMutex
	plugins map[string]*gapi.Plugin
}

var _ gapi.Host = (*cliHost)(nil)

func newCLIHost() *cliHost {
	return &cliHost{plugins: make(map[string]*gapi.Plugin)}
}

func (h *cliHost) Provide(namespace string, p *gapi.Plugin) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	if _, ok := h.plugins[namespace]; ok {
		return fmt.Errorf("namespace %s already provided", namespace)
	}
	h.plugins[namespace] = p
	return nil
}

func (h *cliHost) plugin(namespace string) (*gapi.Plugin, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	p, ok := h.plugins[namespace]
	if !ok {
		return nil, fmt.Errorf("namespace %s not provided", namespace)
	}
	return p, nil
}
