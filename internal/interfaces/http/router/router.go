package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mounter attaches a route tree to the versioned API group.
type Mounter interface {
	Mount(api *gin.RouterGroup)
}

// API collects resource trees under /api/<version>.
type API struct {
	engine  *gin.Engine
	version string
	chain   []gin.HandlerFunc
	mounts  []Mounter
}

// NewAPI starts an API tree for engine. An empty version means "v1".
func NewAPI(engine *gin.Engine, version string) *API {
	if version == "" {
		version = "v1"
	}
	return &API{engine: engine, version: version}
}

// Use appends middleware that runs in front of every API route.
func (a *API) Use(mw ...gin.HandlerFunc) *API {
	a.chain = append(a.chain, mw...)
	return a
}

// Add queues m for Build.
func (a *API) Add(m Mounter) *API {
	a.mounts = append(a.mounts, m)
	return a
}

// Build registers every queued tree on the engine.
func (a *API) Build() {
	group := a.engine.Group("/api/"+a.version, a.chain...)
	for _, m := range a.mounts {
		m.Mount(group)
	}
}

type endpoint struct {
	method string
	path   string
	chain  []gin.HandlerFunc
}

// Resource is one REST resource: a path prefix, its own middleware, its endpoints and any nested resources.
type Resource struct {
	prefix    string
	chain     []gin.HandlerFunc
	endpoints []endpoint
	nested    []*Resource
}

// NewResource creates an empty resource rooted at prefix.
func NewResource(prefix string) *Resource {
	return &Resource{prefix: prefix}
}

// Use appends middleware for this resource and everything nested below it.
func (r *Resource) Use(mw ...gin.HandlerFunc) *Resource {
	r.chain = append(r.chain, mw...)
	return r
}

// On adds an endpoint. Route-level middleware precedes the final handler in chain.
func (r *Resource) On(method, path string, chain ...gin.HandlerFunc) *Resource {
	r.endpoints = append(r.endpoints, endpoint{method: method, path: path, chain: chain})
	return r
}

func (r *Resource) GET(path string, chain ...gin.HandlerFunc) *Resource {
	return r.On(http.MethodGet, path, chain...)
}

func (r *Resource) POST(path string, chain ...gin.HandlerFunc) *Resource {
	return r.On(http.MethodPost, path, chain...)
}

func (r *Resource) PUT(path string, chain ...gin.HandlerFunc) *Resource {
	return r.On(http.MethodPut, path, chain...)
}

func (r *Resource) PATCH(path string, chain ...gin.HandlerFunc) *Resource {
	return r.On(http.MethodPatch, path, chain...)
}

func (r *Resource) DELETE(path string, chain ...gin.HandlerFunc) *Resource {
	return r.On(http.MethodDelete, path, chain...)
}

// Nest returns a child resource mounted under r's prefix.
func (r *Resource) Nest(prefix string) *Resource {
	child := NewResource(prefix)
	r.nested = append(r.nested, child)
	return child
}

// Mount implements Mounter.
func (r *Resource) Mount(parent *gin.RouterGroup) {
	group := parent.Group(r.prefix, r.chain...)
	for _, e := range r.endpoints {
		group.Handle(e.method, e.path, e.chain...)
	}
	for _, child := range r.nested {
		child.Mount(group)
	}
}
