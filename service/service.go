// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

// Package service serves experiment assignments and parameters over http.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/purpleidea/planout/lang"
	"github.com/purpleidea/planout/lang/env"
	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	jsonUtil "github.com/purpleidea/planout/lang/types/json"
	"github.com/purpleidea/planout/prometheus"
	"github.com/purpleidea/planout/util"
	"github.com/purpleidea/planout/util/errwrap"
	"github.com/purpleidea/planout/util/recwatch"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	// RequestIDHeader is the header that carries the request id.
	RequestIDHeader = "X-Request-Id"

	requestIDKey = "requestID"

	// shutdownTimeout is how long in-flight requests get to finish.
	shutdownTimeout = 5 * time.Second
)

// Server is the assignment service. Run Init() on it.
type Server struct {
	// Fs is where the config and the experiment files are read from.
	Fs afero.Fs

	// ConfigFile is the path to the configuration file.
	ConfigFile string

	// Listen overrides the listen address of the config if it is set.
	Listen string

	// Watch reloads the experiments when any of the files change.
	Watch bool

	Debug bool
	Logf  func(format string, v ...interface{})

	lang    *lang.Lang
	metrics *prometheus.Prometheus
	router  *gin.Engine

	mutex    *sync.RWMutex
	config   *Config
	registry *Registry
}

// Init loads the configuration and builds the router. It fails if the initial
// configuration can't be loaded.
func (obj *Server) Init() error {
	if obj.Fs == nil {
		return fmt.Errorf("the Fs must not be nil")
	}
	if obj.Logf == nil {
		return fmt.Errorf("the Logf must not be nil")
	}
	obj.mutex = &sync.RWMutex{}

	obj.lang = &lang.Lang{
		Fs:    obj.Fs,
		Debug: obj.Debug,
		Logf: func(format string, v ...interface{}) {
			obj.Logf("lang: "+format, v...)
		},
	}

	obj.metrics = &prometheus.Prometheus{}
	if err := obj.metrics.Init(); err != nil {
		return errwrap.Wrapf(err, "can't init metrics")
	}

	if err := obj.Reload(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode) // for production
	obj.router = obj.newRouter()
	return nil
}

// Reload reads the configuration again, and loads all the experiments. If that
// fails, the previous experiments are kept.
func (obj *Server) Reload() error {
	config, err := LoadConfig(obj.Fs, obj.ConfigFile)
	if err != nil {
		return err
	}
	registry, err := NewRegistry(obj.lang, config, obj.metrics)
	if err != nil {
		return errwrap.Wrapf(err, "can't load experiments")
	}

	obj.mutex.Lock()
	obj.config = config
	obj.registry = registry
	obj.mutex.Unlock()

	obj.metrics.SetExperiments(registry.Len())
	obj.Logf("loaded %d experiment(s) from: %s", registry.Len(), obj.ConfigFile)
	return nil
}

// Registry returns the current set of experiments.
func (obj *Server) Registry() *Registry {
	obj.mutex.RLock()
	defer obj.mutex.RUnlock()
	return obj.registry
}

// ListenAddr returns the address that Run will listen on.
func (obj *Server) ListenAddr() string {
	if obj.Listen != "" {
		return obj.Listen
	}
	obj.mutex.RLock()
	defer obj.mutex.RUnlock()
	if obj.config != nil && obj.config.Listen != "" {
		return obj.config.Listen
	}
	return DefaultListen
}

// ServeHTTP is the standard HTTP handler that will be used here.
func (obj *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	obj.router.ServeHTTP(w, req)
}

// Run serves until the context is cancelled. The listen address is only read
// at startup, so a reload doesn't change it.
func (obj *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    obj.ListenAddr(),
		Handler: obj,
	}

	wg := &sync.WaitGroup{}
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // unblock the goroutines below

	if obj.Watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obj.watch(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			obj.Logf("shutdown error: %+v", err)
		}
	}()

	obj.Logf("listening on: %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errwrap.Wrapf(err, "server failed")
	}
	return nil
}

// watch reloads whenever the config file or an experiment file changes. The
// set of watched files follows the config after each successful reload.
func (obj *Server) watch(ctx context.Context) {
	for {
		obj.mutex.RLock()
		files := append([]string{obj.ConfigFile}, obj.config.Files()...)
		obj.mutex.RUnlock()

		cw := recwatch.NewConfigWatcher()
		cw.Debug = obj.Debug
		cw.Logf = func(format string, v ...interface{}) {
			obj.Logf("watch: "+format, v...)
		}
		cw.Add(files...)

		reloaded := obj.waitReload(ctx, cw)
		cw.Close()
		if !reloaded {
			return // shutting down
		}
	}
}

// waitReload blocks until a successful reload, in which case it returns true,
// or until the context is done.
func (obj *Server) waitReload(ctx context.Context, cw *recwatch.ConfigWatcher) bool {
	for {
		select {
		case f, ok := <-cw.Events():
			if !ok {
				return false
			}
			obj.Logf("file changed: %s", f)
			if err := obj.Reload(); err != nil {
				obj.Logf("reload failed, keeping the old experiments: %+v", err)
				continue
			}
			return true

		case err, ok := <-cw.Error():
			if !ok {
				return false
			}
			obj.Logf("watch error: %+v", err)

		case <-ctx.Done():
			return false
		}
	}
}

func (obj *Server) newRouter() *gin.Engine {
	router := gin.New()
	recovery := gin.RecoveryWithWriter(&util.LogWriter{
		Prefix: "recovery: ",
		Logf:   obj.Logf,
	})
	router.Use(obj.requestID(), obj.ginLogger(), recovery)

	router.GET("/experiments", obj.getExperiments)
	router.GET("/experiments/:name/parameters", obj.getParameters)
	router.POST("/experiments/:name/assign", obj.postAssign)
	router.GET("/metrics", gin.WrapH(obj.metrics.Handler()))

	return router
}

// requestID tags each request with an id. A valid id sent by the client is
// kept.
func (obj *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ginLogger is a helper to get structured logs out of gin.
func (obj *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if !obj.Debug {
			return
		}
		obj.Logf("%s: %v %s %s (%d) in %v", c.GetString(requestIDKey), c.ClientIP(), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (obj *Server) getExperiments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"experiments": obj.Registry().Names()})
}

func (obj *Server) getParameters(c *gin.Context) {
	name := c.Param("name")
	exp, exists := obj.Registry().Lookup(name)
	if !exists {
		msg := fmt.Sprintf("experiment `%s` not found", name)
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	respond(c, http.StatusOK, gin.H{
		"name":       exp.Name,
		"parameters": exp.Parameters,
	})
}

func (obj *Server) postAssign(c *gin.Context) {
	name := c.Param("name")
	exp, exists := obj.Registry().Lookup(name)
	if !exists {
		msg := fmt.Sprintf("experiment `%s` not found", name)
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}

	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := parseAssignRequest(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the request input is layered over the configured defaults
	layer := env.FromMap(exp.Input)
	for k, v := range input {
		layer.Set(k, v)
	}

	result, err := obj.lang.Execute(exp.Name, exp.Code, layer)
	if err != nil {
		obj.metrics.UpdateAssignmentsTotal(exp.Name, false, true)
		if obj.Debug {
			obj.Logf("%s: assign failed: %+v", c.GetString(requestIDKey), err)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"class": ErrorClass(err),
		})
		return
	}
	obj.metrics.UpdateAssignmentsTotal(exp.Name, result.Enabled(), false)

	assignments := make(map[string]interface{})
	for k, v := range result.Env.Values() {
		assignments[k] = v.Value()
	}
	respond(c, http.StatusOK, gin.H{
		"name":        exp.Name,
		"enabled":     result.Enabled(),
		"assignments": assignments,
	})
}

// respond encodes the object before writing any of the response, since gin
// would otherwise send the status with an empty body if encoding fails. Json
// has no infinite or NaN numbers, so a result holding one is a server error.
func respond(c *gin.Context, code int, obj interface{}) {
	b, err := json.Marshal(obj)
	if err != nil {
		err = errwrap.Wrapf(err, "can't encode the response")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(code, "application/json; charset=utf-8", b)
}

// parseAssignRequest decodes a body of the form {"input": {...}}. An empty body
// has no input.
func parseAssignRequest(data []byte) (map[string]types.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	v, err := jsonUtil.ValueOfJSON(data)
	if err != nil {
		return nil, err
	}
	if v.Kind() != types.KindMap {
		return nil, fmt.Errorf("request must be a map")
	}
	input, exists := v.Map()["input"]
	if !exists || input.Kind() == types.KindNull {
		return nil, nil
	}
	if input.Kind() != types.KindMap {
		return nil, fmt.Errorf("input must be a map")
	}
	return input.Map(), nil
}

// ErrorClass returns a short name for the class of an evaluation error.
func ErrorClass(err error) string {
	switch {
	case errors.Is(err, interfaces.ErrUnsupportedOperation):
		return "unsupported operation"
	case errors.Is(err, interfaces.ErrTypeMismatch):
		return "type mismatch"
	case errors.Is(err, interfaces.ErrInvalidArgument):
		return "invalid argument"
	}
	return "unknown"
}
